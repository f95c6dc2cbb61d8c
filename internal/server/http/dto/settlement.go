package dto

// SettlementComputeRequest triggers aggregation for one counterparty period.
// Dates use the 2006-01-02 layout.
type SettlementComputeRequest struct {
	OwnerCompany        string `json:"ownerCompany"`
	CounterpartyKind    string `json:"counterpartyKind"`
	CounterpartyKey     string `json:"counterpartyKey"`
	PeriodStart         string `json:"periodStart"`
	PeriodEnd           string `json:"periodEnd"`
	PerOrderShippingFee bool   `json:"perOrderShippingFee"`
}

// SettlementLineResponse is one per-mapping-code group of the summary.
type SettlementLineResponse struct {
	MappingCode    string `json:"mappingCode"`
	ProductName    string `json:"productName,omitempty"`
	BillType       string `json:"billType"`
	OrderQuantity  int    `json:"orderQuantity"`
	OrderAmount    int64  `json:"orderAmount"`
	CancelQuantity int    `json:"cancelQuantity"`
	CancelAmount   int64  `json:"cancelAmount"`
}

// SettlementResponse mirrors a stored settlement summary.
type SettlementResponse struct {
	OwnerCompany        string                   `json:"ownerCompany"`
	CounterpartyKind    string                   `json:"counterpartyKind"`
	CounterpartyKey     string                   `json:"counterpartyKey"`
	PeriodStart         string                   `json:"periodStart"`
	PeriodEnd           string                   `json:"periodEnd"`
	PerOrderShippingFee bool                     `json:"perOrderShippingFee"`
	OrderQuantity       int                      `json:"orderQuantity"`
	OrderAmount         int64                    `json:"orderAmount"`
	CancelQuantity      int                      `json:"cancelQuantity"`
	CancelAmount        int64                    `json:"cancelAmount"`
	NetAmount           int64                    `json:"netAmount"`
	TaxableAmount       int64                    `json:"taxableAmount"`
	TaxFreeAmount       int64                    `json:"taxFreeAmount"`
	TotalAmount         int64                    `json:"totalAmount"`
	Lines               []SettlementLineResponse `json:"lines"`
}
