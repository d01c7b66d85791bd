package search

import "log"

// Service tries Meilisearch first and falls back to Postgres FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService creates the facade. meili may be nil when Meilisearch is not
// configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexOrder pushes an order into the index, fire-and-forget.
func (s *Service) IndexOrder(rec OrderRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexOrder(rec); err != nil {
			log.Printf("search: %v", err)
		}
	}()
}

// DeleteOrder removes an order from the index, fire-and-forget.
func (s *Service) DeleteOrder(id int64) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteOrder(id); err != nil {
			log.Printf("search: %v", err)
		}
	}()
}

func nonNil(results []Result) []Result {
	if results == nil {
		return []Result{}
	}
	return results
}
