package dto

import "time"

// OrderIngestRequest carries raw spreadsheet rows as loose key/value bags;
// field aliasing and typing happen during normalization.
type OrderIngestRequest struct {
	OwnerCompany string              `json:"ownerCompany"`
	Rows         []map[string]string `json:"rows"`
}

// OrderIngestResponse lists the ids of the persisted rows in request order.
type OrderIngestResponse struct {
	RowIDs []int64 `json:"rowIds"`
}

// OrderRowResponse is one ingested order line as the API exposes it.
type OrderRowResponse struct {
	ID           int64     `json:"id"`
	VendorName   string    `json:"vendorName"`
	MappingCode  string    `json:"mappingCode"`
	Quantity     int       `json:"quantity"`
	Status       string    `json:"status"`
	InternalCode *string   `json:"internalCode,omitempty"`
	IngestedAt   time.Time `json:"ingestedAt"`
}
