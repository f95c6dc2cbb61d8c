package app

import (
	"context"
	"time"

	domainErrors "github.com/orderdesk/backoffice/internal/domain/errors"
	"github.com/orderdesk/backoffice/internal/domain/model"
	"github.com/orderdesk/backoffice/internal/domain/repository"
	"github.com/orderdesk/backoffice/internal/usecase"
)

// Pinger reports storage connectivity.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// BackofficeFacade bundles the allocation and settlement cores behind one
// surface consumed by HTTP handlers and the refresh worker.
type BackofficeFacade struct {
	allocator   *usecase.AllocatorUseCase
	settlements *usecase.SettlementUseCase
	orderRows   repository.OrderRowRepository
	pinger      Pinger
}

// NewBackofficeFacade constructs BackofficeFacade.
func NewBackofficeFacade(
	allocator *usecase.AllocatorUseCase,
	settlements *usecase.SettlementUseCase,
	orderRows repository.OrderRowRepository,
	pinger Pinger,
) *BackofficeFacade {
	return &BackofficeFacade{
		allocator:   allocator,
		settlements: settlements,
		orderRows:   orderRows,
		pinger:      pinger,
	}
}

// IngestRows normalizes raw spreadsheet payloads and persists them, returning
// the new row ids in input order.
func (f *BackofficeFacade) IngestRows(ctx context.Context, ownerCompany string, payloads []model.RowPayload) ([]int64, error) {
	if ownerCompany == "" || len(payloads) == 0 {
		return nil, domainErrors.ErrInvalidInput
	}
	now := time.Now()
	rows := make([]model.OrderRow, 0, len(payloads))
	for _, payload := range payloads {
		rows = append(rows, model.NormalizeRow(0, ownerCompany, now, payload))
	}
	return f.orderRows.InsertRows(ctx, rows)
}

// AllocateCodes issues one internal code per vendor name, atomically.
func (f *BackofficeFacade) AllocateCodes(ctx context.Context, ownerCompany string, vendorNames []string) ([]string, error) {
	return f.allocator.Allocate(ctx, ownerCompany, vendorNames)
}

// AssignCodes persists allocated codes onto order rows.
func (f *BackofficeFacade) AssignCodes(ctx context.Context, ownerCompany string, codes map[int64]string) error {
	return f.orderRows.AssignCodes(ctx, ownerCompany, codes)
}

// ComputeSettlement aggregates and persists a period settlement summary.
func (f *BackofficeFacade) ComputeSettlement(ctx context.Context, ownerCompany string, counterparty model.CounterpartyRef, periodStart, periodEnd time.Time, opts model.SettlementOptions) (*model.SettlementSummary, error) {
	return f.settlements.Compute(ctx, ownerCompany, counterparty, periodStart, periodEnd, opts)
}

// Settlement fetches a previously computed summary.
func (f *BackofficeFacade) Settlement(ctx context.Context, ownerCompany string, counterparty model.CounterpartyRef, periodStart, periodEnd time.Time) (*model.SettlementSummary, error) {
	return f.settlements.Get(ctx, ownerCompany, counterparty, periodStart, periodEnd)
}

// Rows lists order rows for a counterparty and period.
func (f *BackofficeFacade) Rows(ctx context.Context, ownerCompany string, counterparty model.CounterpartyRef, periodStart, periodEnd time.Time, excludeCancelled bool) ([]model.OrderRow, error) {
	return f.orderRows.SelectRows(ctx, ownerCompany, counterparty, periodStart, periodEnd, excludeCancelled)
}

// RefreshableSettlements lists summaries whose period still covers today.
func (f *BackofficeFacade) RefreshableSettlements(ctx context.Context, limit int) ([]model.SettlementSummary, error) {
	return f.settlements.Refreshable(ctx, limit)
}

// RecomputeSettlement re-runs aggregation for a stored summary's key.
func (f *BackofficeFacade) RecomputeSettlement(ctx context.Context, summary model.SettlementSummary) error {
	_, err := f.settlements.Compute(ctx, summary.OwnerCompany, summary.Counterparty, summary.PeriodStart, summary.PeriodEnd, summary.Options)
	return err
}

// Ping verifies storage connectivity.
func (f *BackofficeFacade) Ping(ctx context.Context) error {
	return f.pinger.HealthCheck(ctx)
}
