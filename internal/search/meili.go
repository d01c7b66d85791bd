package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxOrders = "swiftflow_orders"

// Meili indexes orders in Meilisearch. A background loop tracks health so
// the facade can fall back to Postgres while Meilisearch is down.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxOrders,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxOrders, err)
	}

	index := m.client.Index(idxOrders)
	filterable := []interface{}{"department", "status"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs: %v", err)
	}
	searchable := []string{"productDetails", "customProductDetails", "material"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs: %v", err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

func (m *Meili) Close() {
	close(m.done)
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	req := &meili.SearchRequest{
		Limit:  limit,
		Offset: int64(q.Offset),
	}
	if q.Department != "" {
		req.Filter = "department = " + strconv.Quote(q.Department)
	}

	resp, err := m.client.Index(idxOrders).Search(q.Text, req)
	if err != nil {
		return nil, 0, fmt.Errorf("meili search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var rec OrderRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		results = append(results, Result{
			OrderID:        rec.ID,
			ProductDetails: rec.ProductDetails,
			Material:       rec.Material,
			Department:     rec.Department,
			Status:         rec.Status,
		})
	}
	return results, int(resp.EstimatedTotalHits), nil
}

func (m *Meili) IndexOrder(rec OrderRecord) error {
	if _, err := m.client.Index(idxOrders).AddDocuments([]OrderRecord{rec}, nil); err != nil {
		return fmt.Errorf("index order %d: %w", rec.ID, err)
	}
	return nil
}

func (m *Meili) DeleteOrder(id int64) error {
	if _, err := m.client.Index(idxOrders).DeleteDocument(strconv.FormatInt(id, 10), nil); err != nil {
		return fmt.Errorf("delete order %d from index: %w", id, err)
	}
	return nil
}
