package model

import "time"

// SettlementOptions tunes how line amounts are computed.
type SettlementOptions struct {
	// PerOrderShippingFee charges shipping on every unit when true. When
	// false only the first unit of a multi-unit order carries the shared fee.
	PerOrderShippingFee bool
}

// SettlementLine is one per-mapping-code group of a settlement document.
type SettlementLine struct {
	MappingCode    string   `json:"mappingCode"`
	ProductName    string   `json:"productName,omitempty"`
	BillType       BillType `json:"billType"`
	OrderQuantity  int      `json:"orderQuantity"`
	OrderAmount    int64    `json:"orderAmount"`
	CancelQuantity int      `json:"cancelQuantity"`
	CancelAmount   int64    `json:"cancelAmount"`
}

// NetAmount is the line's order amount netted against cancellations.
func (l SettlementLine) NetAmount() int64 {
	return l.OrderAmount - l.CancelAmount
}

// SettlementSummary aggregates one counterparty's orders over a period.
// Exactly one summary exists per (owner, counterparty, period) tuple.
type SettlementSummary struct {
	OwnerCompany   string
	Counterparty   CounterpartyRef
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Options        SettlementOptions
	OrderQuantity  int
	OrderAmount    int64
	CancelQuantity int
	CancelAmount   int64
	NetAmount      int64
	TaxableAmount  int64
	TaxFreeAmount  int64
	TotalAmount    int64
	Lines          []SettlementLine
}
