package bill

import "time"

// LineItem is one finalized invoice row. Fields are pointers so that absent
// values serialize as JSON null rather than zero.
type LineItem struct {
	ItemName     *string  `json:"item_name"`
	ItemQuantity *float64 `json:"item_quantity"`
	ItemRate     *float64 `json:"item_rate"`
	ItemAmount   *float64 `json:"item_amount"`
}

// PageResult holds the finalized line items for one rasterized page.
// PageNo runs 1..N in page order with no gaps; a page whose extraction
// failed still appears here with an empty BillItems.
type PageResult struct {
	PageNo    int        `json:"page_no"`
	BillItems []LineItem `json:"bill_items"`
}

// DocumentResult is the per-request summary returned to the caller
type DocumentResult struct {
	PagewiseLineItems []PageResult `json:"pagewise_line_items"`
	TotalItemCount    int          `json:"total_item_count"`
	ReconciledAmount  float64      `json:"reconciled_amount"`
}

// Extraction is the persisted record of one completed extraction request
type Extraction struct {
	ID          string         `json:"id"`
	DocumentURL string         `json:"document_url"`
	Filename    string         `json:"filename"`
	ContentType string         `json:"content_type"`
	Result      DocumentResult `json:"result"`
	CreatedAt   time.Time      `json:"created_at"`
}
