package search

import (
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS searches orders with PostgreSQL full-text search. It is the
// fallback path; if Postgres is down, the whole app is down anyway.
type PgFTS struct {
	db *sql.DB
}

func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	const doc = `to_tsvector('english', product_details || ' ' || custom_product_details || ' ' || material)`
	where := doc + ` @@ plainto_tsquery('english', $1)`
	args := []any{q.Text}
	if q.Department != "" {
		where += fmt.Sprintf(" AND department = $%d", len(args)+1)
		args = append(args, q.Department)
	}

	var total int
	if err := p.db.QueryRow(`SELECT COUNT(*) FROM orders WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count order matches: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT order_id, product_details, material, department, status,
			ts_headline('english', product_details || ' ' || custom_product_details, plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30')
		FROM orders
		WHERE %s
		ORDER BY ts_rank(%s, plainto_tsquery('english', $1)) DESC, order_id DESC
		LIMIT %d OFFSET %d
	`, where, doc, limit, offset)

	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search orders: %w", err)
	}
	defer rows.Close()

	results := make([]Result, 0)
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.OrderID, &r.ProductDetails, &r.Material, &r.Department, &r.Status, &r.Snippet); err != nil {
			return nil, 0, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, r)
	}
	return results, total, rows.Err()
}
