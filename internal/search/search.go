// Package search provides order lookup over Meilisearch with a PostgreSQL
// full-text fallback.
package search

// Query is a free-text order search, optionally narrowed to a department.
type Query struct {
	Text       string
	Department string
	Limit      int
	Offset     int
}

// Result is one matching order.
type Result struct {
	OrderID        int64  `json:"orderId"`
	ProductDetails string `json:"productDetails"`
	Material       string `json:"material"`
	Department     string `json:"department"`
	Status         string `json:"status"`
	Snippet        string `json:"snippet,omitempty"`
}

// Response is the search envelope returned to clients.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// OrderRecord is the indexed shape of an order.
type OrderRecord struct {
	ID                   int64  `json:"id"`
	ProductDetails       string `json:"productDetails"`
	CustomProductDetails string `json:"customProductDetails"`
	Material             string `json:"material"`
	Department           string `json:"department"`
	Status               string `json:"status"`
}
