package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/orderdesk/backoffice/internal/domain/model"
)

// BackofficeFacadeStub provides controllable behaviour for HTTP handler tests.
type BackofficeFacadeStub struct {
	AllocateFn func(ctx context.Context, ownerCompany string, vendorNames []string) ([]string, error)
	AssignFn   func(ctx context.Context, ownerCompany string, codes map[int64]string) error
	ComputeFn  func(ctx context.Context, ownerCompany string, cp model.CounterpartyRef, start, end time.Time, opts model.SettlementOptions) (*model.SettlementSummary, error)
	GetFn      func(ctx context.Context, ownerCompany string, cp model.CounterpartyRef, start, end time.Time) (*model.SettlementSummary, error)
	RowsFn     func(ctx context.Context, ownerCompany string, cp model.CounterpartyRef, start, end time.Time, excludeCancelled bool) ([]model.OrderRow, error)
	IngestFn   func(ctx context.Context, ownerCompany string, payloads []model.RowPayload) ([]int64, error)
	PingFn     func(ctx context.Context) error

	Assigned map[int64]string
	Ingested []model.RowPayload
}

// AllocateCodes delegates to the configured function or returns stub codes.
func (s *BackofficeFacadeStub) AllocateCodes(ctx context.Context, ownerCompany string, vendorNames []string) ([]string, error) {
	if s.AllocateFn != nil {
		return s.AllocateFn(ctx, ownerCompany, vendorNames)
	}
	codes := make([]string, len(vendorNames))
	for i := range vendorNames {
		codes[i] = "20260301XX000" + string(rune('1'+i))
	}
	return codes, nil
}

// AssignCodes records assignments.
func (s *BackofficeFacadeStub) AssignCodes(ctx context.Context, ownerCompany string, codes map[int64]string) error {
	if s.AssignFn != nil {
		return s.AssignFn(ctx, ownerCompany, codes)
	}
	if s.Assigned == nil {
		s.Assigned = make(map[int64]string)
	}
	for id, code := range codes {
		s.Assigned[id] = code
	}
	return nil
}

// ComputeSettlement delegates or returns an empty summary echoing the key.
func (s *BackofficeFacadeStub) ComputeSettlement(ctx context.Context, ownerCompany string, cp model.CounterpartyRef, start, end time.Time, opts model.SettlementOptions) (*model.SettlementSummary, error) {
	if s.ComputeFn != nil {
		return s.ComputeFn(ctx, ownerCompany, cp, start, end, opts)
	}
	return &model.SettlementSummary{OwnerCompany: ownerCompany, Counterparty: cp, PeriodStart: start, PeriodEnd: end, Options: opts}, nil
}

// Settlement delegates or returns an empty summary.
func (s *BackofficeFacadeStub) Settlement(ctx context.Context, ownerCompany string, cp model.CounterpartyRef, start, end time.Time) (*model.SettlementSummary, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, ownerCompany, cp, start, end)
	}
	return &model.SettlementSummary{OwnerCompany: ownerCompany, Counterparty: cp, PeriodStart: start, PeriodEnd: end}, nil
}

// IngestRows delegates or records payloads, handing out sequential ids.
func (s *BackofficeFacadeStub) IngestRows(ctx context.Context, ownerCompany string, payloads []model.RowPayload) ([]int64, error) {
	if s.IngestFn != nil {
		return s.IngestFn(ctx, ownerCompany, payloads)
	}
	ids := make([]int64, 0, len(payloads))
	for _, payload := range payloads {
		s.Ingested = append(s.Ingested, payload)
		ids = append(ids, int64(len(s.Ingested)))
	}
	return ids, nil
}

// Rows delegates or returns a single row.
func (s *BackofficeFacadeStub) Rows(ctx context.Context, ownerCompany string, cp model.CounterpartyRef, start, end time.Time, excludeCancelled bool) ([]model.OrderRow, error) {
	if s.RowsFn != nil {
		return s.RowsFn(ctx, ownerCompany, cp, start, end, excludeCancelled)
	}
	return []model.OrderRow{{ID: 1, MappingCode: "SKU-1", Quantity: 1}}, nil
}

// Ping delegates or reports healthy.
func (s *BackofficeFacadeStub) Ping(ctx context.Context) error {
	if s.PingFn != nil {
		return s.PingFn(ctx)
	}
	return nil
}

// WorkerFacadeStub mimics worker interactions with the backoffice facade.
type WorkerFacadeStub struct {
	Batches     [][]model.SettlementSummary
	RefreshFn   func(context.Context, int) ([]model.SettlementSummary, error)
	RecomputeFn func(context.Context, model.SettlementSummary) error
	Recomputed  []model.SettlementSummary

	mu             sync.Mutex
	fetchCallCount int32
}

// Lock exposes internal mutex for external synchronization.
func (s *WorkerFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *WorkerFacadeStub) Unlock() { s.mu.Unlock() }

// RefreshableSettlements returns batches from the configured queue.
func (s *WorkerFacadeStub) RefreshableSettlements(ctx context.Context, limit int) ([]model.SettlementSummary, error) {
	if s.RefreshFn != nil {
		return s.RefreshFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.fetchCallCount, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// RecomputeSettlement records recompute requests.
func (s *WorkerFacadeStub) RecomputeSettlement(ctx context.Context, summary model.SettlementSummary) error {
	if s.RecomputeFn != nil {
		return s.RecomputeFn(ctx, summary)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Recomputed = append(s.Recomputed, summary)
	return nil
}
