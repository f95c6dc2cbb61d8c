package handlers

import (
	"context"
	"time"

	"github.com/orderdesk/backoffice/internal/domain/model"
)

// AllocationFacade encapsulates code allocation operations exposed via HTTP.
type AllocationFacade interface {
	AllocateCodes(ctx context.Context, ownerCompany string, vendorNames []string) ([]string, error)
	AssignCodes(ctx context.Context, ownerCompany string, codes map[int64]string) error
}

// SettlementFacade provides settlement computation and retrieval.
type SettlementFacade interface {
	ComputeSettlement(ctx context.Context, ownerCompany string, counterparty model.CounterpartyRef, periodStart, periodEnd time.Time, opts model.SettlementOptions) (*model.SettlementSummary, error)
	Settlement(ctx context.Context, ownerCompany string, counterparty model.CounterpartyRef, periodStart, periodEnd time.Time) (*model.SettlementSummary, error)
}

// OrderFacade ingests and lists order rows.
type OrderFacade interface {
	IngestRows(ctx context.Context, ownerCompany string, payloads []model.RowPayload) ([]int64, error)
	Rows(ctx context.Context, ownerCompany string, counterparty model.CounterpartyRef, periodStart, periodEnd time.Time, excludeCancelled bool) ([]model.OrderRow, error)
}

// BackofficeFacade aggregates the full set of operations used across handlers.
type BackofficeFacade interface {
	AllocationFacade
	SettlementFacade
	OrderFacade
	Ping(ctx context.Context) error
}
