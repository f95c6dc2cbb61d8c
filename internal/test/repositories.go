package test

import (
	"context"
	"time"

	domainErrors "github.com/orderdesk/backoffice/internal/domain/errors"
	"github.com/orderdesk/backoffice/internal/domain/model"
	"github.com/orderdesk/backoffice/internal/domain/repository"
)

// ReserveCall records one ReserveBlock invocation.
type ReserveCall struct {
	OwnerCompany string
	Day          string
	Prefix       string
	Count        int
}

// AllocationTxnStub drives allocation use case tests with in-memory counters.
type AllocationTxnStub struct {
	Counters     map[string]int
	Existing     map[string]struct{}
	ReserveFn    func(ctx context.Context, ownerCompany, day, prefix string, count int) (int, error)
	ExistingFn   func(ctx context.Context, ownerCompany string, codes []string) (map[string]struct{}, error)
	Reservations []ReserveCall
}

func counterKey(ownerCompany, day, prefix string) string {
	return ownerCompany + "|" + day + "|" + prefix
}

// ReserveBlock advances the in-memory counter like the durable one would.
func (s *AllocationTxnStub) ReserveBlock(ctx context.Context, ownerCompany, day, prefix string, count int) (int, error) {
	s.Reservations = append(s.Reservations, ReserveCall{OwnerCompany: ownerCompany, Day: day, Prefix: prefix, Count: count})
	if s.ReserveFn != nil {
		return s.ReserveFn(ctx, ownerCompany, day, prefix, count)
	}
	if s.Counters == nil {
		s.Counters = make(map[string]int)
	}
	key := counterKey(ownerCompany, day, prefix)
	s.Counters[key] += count
	return s.Counters[key], nil
}

// ExistingCodes reports configured collisions.
func (s *AllocationTxnStub) ExistingCodes(ctx context.Context, ownerCompany string, codes []string) (map[string]struct{}, error) {
	if s.ExistingFn != nil {
		return s.ExistingFn(ctx, ownerCompany, codes)
	}
	found := make(map[string]struct{})
	for _, code := range codes {
		if _, ok := s.Existing[code]; ok {
			found[code] = struct{}{}
		}
	}
	return found, nil
}

// AllocationRepositoryStub runs the callback against the stub transaction and
// mimics rollback by restoring counters when the callback fails.
type AllocationRepositoryStub struct {
	Txn        *AllocationTxnStub
	BeginErr   error
	RolledBack bool
}

// NewAllocationRepositoryStub constructs a stub with an empty transaction.
func NewAllocationRepositoryStub() *AllocationRepositoryStub {
	return &AllocationRepositoryStub{Txn: &AllocationTxnStub{Counters: make(map[string]int)}}
}

func (s *AllocationRepositoryStub) WithinAllocation(ctx context.Context, fn func(repository.AllocationTxn) error) error {
	if s.BeginErr != nil {
		return s.BeginErr
	}
	snapshot := make(map[string]int, len(s.Txn.Counters))
	for k, v := range s.Txn.Counters {
		snapshot[k] = v
	}
	if err := fn(s.Txn); err != nil {
		s.RolledBack = true
		s.Txn.Counters = snapshot
		return err
	}
	return nil
}

// SettlementTxnStub drives settlement use case tests.
type SettlementTxnStub struct {
	Promotions    []model.Promotion
	PromotionsErr error
	Rows          []model.OrderRow
	RowsErr       error
	SelectFn      func(ctx context.Context, ownerCompany string, cp model.CounterpartyRef, start, end time.Time, excludeCancelled bool) ([]model.OrderRow, error)
	Deleted       []int64
	Upserts       []model.SettlementSummary
	UpsertErr     error
}

func (s *SettlementTxnStub) AllPromotions(ctx context.Context, ownerCompany string) ([]model.Promotion, error) {
	if s.PromotionsErr != nil {
		return nil, s.PromotionsErr
	}
	return s.Promotions, nil
}

// DeletePromotions records swept ids and removes them from the configured set.
func (s *SettlementTxnStub) DeletePromotions(ctx context.Context, ids []int64) error {
	s.Deleted = append(s.Deleted, ids...)
	remaining := s.Promotions[:0]
	for _, p := range s.Promotions {
		keep := true
		for _, id := range ids {
			if p.ID == id {
				keep = false
				break
			}
		}
		if keep {
			remaining = append(remaining, p)
		}
	}
	s.Promotions = remaining
	return nil
}

func (s *SettlementTxnStub) SelectRows(ctx context.Context, ownerCompany string, cp model.CounterpartyRef, start, end time.Time, excludeCancelled bool) ([]model.OrderRow, error) {
	if s.SelectFn != nil {
		return s.SelectFn(ctx, ownerCompany, cp, start, end, excludeCancelled)
	}
	if s.RowsErr != nil {
		return nil, s.RowsErr
	}
	return s.Rows, nil
}

func (s *SettlementTxnStub) UpsertSummary(ctx context.Context, summary *model.SettlementSummary) error {
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	s.Upserts = append(s.Upserts, *summary)
	return nil
}

// SettlementRepositoryStub backs the settlement use case in tests.
type SettlementRepositoryStub struct {
	Txn         *SettlementTxnStub
	Summary     *model.SettlementSummary
	GetErr      error
	Refreshable []model.SettlementSummary
	RefreshErr  error
}

// NewSettlementRepositoryStub constructs a stub with an empty transaction.
func NewSettlementRepositoryStub() *SettlementRepositoryStub {
	return &SettlementRepositoryStub{Txn: &SettlementTxnStub{}}
}

func (s *SettlementRepositoryStub) WithinSettlement(ctx context.Context, fn func(repository.SettlementTxn) error) error {
	return fn(s.Txn)
}

func (s *SettlementRepositoryStub) GetSummary(ctx context.Context, ownerCompany string, cp model.CounterpartyRef, start, end time.Time) (*model.SettlementSummary, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	if s.Summary == nil {
		return nil, domainErrors.ErrNotFound
	}
	return s.Summary, nil
}

func (s *SettlementRepositoryStub) ListRefreshable(ctx context.Context, asOf time.Time, limit int) ([]model.SettlementSummary, error) {
	if s.RefreshErr != nil {
		return nil, s.RefreshErr
	}
	return s.Refreshable, nil
}

// CatalogStub resolves products from an in-memory map keyed by mapping code.
type CatalogStub struct {
	Products  map[string]*model.Product
	ResolveFn func(ctx context.Context, ownerCompany, mappingCode string) (*model.Product, error)
	Calls     int
}

func (s *CatalogStub) Resolve(ctx context.Context, ownerCompany, mappingCode string) (*model.Product, error) {
	s.Calls++
	if s.ResolveFn != nil {
		return s.ResolveFn(ctx, ownerCompany, mappingCode)
	}
	if p, ok := s.Products[mappingCode]; ok {
		return p, nil
	}
	return nil, domainErrors.ErrNotFound
}

// CounterpartyRepositoryStub reports configured counterparties as known.
type CounterpartyRepositoryStub struct {
	Known    map[model.CounterpartyRef]bool
	ExistsFn func(ctx context.Context, ownerCompany string, ref model.CounterpartyRef) (bool, error)
}

func (s *CounterpartyRepositoryStub) Exists(ctx context.Context, ownerCompany string, ref model.CounterpartyRef) (bool, error) {
	if s.ExistsFn != nil {
		return s.ExistsFn(ctx, ownerCompany, ref)
	}
	if s.Known == nil {
		return true, nil
	}
	return s.Known[ref], nil
}

// OrderRowRepositoryStub records inserts and code assignments and serves
// configured rows.
type OrderRowRepositoryStub struct {
	Rows      []model.OrderRow
	RowsErr   error
	Inserted  []model.OrderRow
	InsertErr error
	Assigned  map[int64]string
	AssignErr error
	nextID    int64
}

// InsertRows appends rows and hands out sequential ids starting at 1.
func (s *OrderRowRepositoryStub) InsertRows(ctx context.Context, rows []model.OrderRow) ([]int64, error) {
	if s.InsertErr != nil {
		return nil, s.InsertErr
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		s.nextID++
		row.ID = s.nextID
		s.Inserted = append(s.Inserted, row)
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (s *OrderRowRepositoryStub) SelectRows(ctx context.Context, ownerCompany string, cp model.CounterpartyRef, start, end time.Time, excludeCancelled bool) ([]model.OrderRow, error) {
	if s.RowsErr != nil {
		return nil, s.RowsErr
	}
	return s.Rows, nil
}

func (s *OrderRowRepositoryStub) AssignCodes(ctx context.Context, ownerCompany string, codes map[int64]string) error {
	if s.AssignErr != nil {
		return s.AssignErr
	}
	if s.Assigned == nil {
		s.Assigned = make(map[int64]string)
	}
	for id, code := range codes {
		s.Assigned[id] = code
	}
	return nil
}

var _ repository.AllocationRepository = (*AllocationRepositoryStub)(nil)
var _ repository.SettlementRepository = (*SettlementRepositoryStub)(nil)
var _ repository.ProductCatalog = (*CatalogStub)(nil)
var _ repository.CounterpartyRepository = (*CounterpartyRepositoryStub)(nil)
var _ repository.OrderRowRepository = (*OrderRowRepositoryStub)(nil)
