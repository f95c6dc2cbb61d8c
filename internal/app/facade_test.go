package app

import (
	"context"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/orderdesk/backoffice/internal/domain/errors"
	"github.com/orderdesk/backoffice/internal/domain/model"
	testhelpers "github.com/orderdesk/backoffice/internal/test"
	"github.com/orderdesk/backoffice/internal/usecase"
)

type pingerStub struct {
	err error
}

func (p pingerStub) HealthCheck(context.Context) error { return p.err }

func newFacade() (*BackofficeFacade, *testhelpers.AllocationRepositoryStub, *testhelpers.SettlementRepositoryStub, *testhelpers.OrderRowRepositoryStub) {
	allocations := testhelpers.NewAllocationRepositoryStub()
	allocator := usecase.NewAllocatorUseCase(allocations, 100)

	settlements := testhelpers.NewSettlementRepositoryStub()
	catalog := &testhelpers.CatalogStub{Products: map[string]*model.Product{}}
	counterparties := &testhelpers.CounterpartyRepositoryStub{}
	settlementUC := usecase.NewSettlementUseCase(settlements, catalog, counterparties, 4000)

	orderRows := &testhelpers.OrderRowRepositoryStub{}

	facade := NewBackofficeFacade(allocator, settlementUC, orderRows, pingerStub{})
	return facade, allocations, settlements, orderRows
}

func TestBackofficeFacadeAllocation(t *testing.T) {
	facade, allocations, _, orderRows := newFacade()

	codes, err := facade.AllocateCodes(context.Background(), "acme", []string{"MegaMart", "Corner"})
	if err != nil {
		t.Fatalf("allocate returned error: %v", err)
	}
	if len(codes) != 2 || codes[0] == codes[1] {
		t.Fatalf("unexpected codes %v", codes)
	}
	if len(allocations.Txn.Reservations) == 0 {
		t.Fatal("expected namespace reservations recorded")
	}

	if err := facade.AssignCodes(context.Background(), "acme", map[int64]string{1: codes[0]}); err != nil {
		t.Fatalf("assign returned error: %v", err)
	}
	if orderRows.Assigned[1] != codes[0] {
		t.Fatalf("expected code persisted on row, got %v", orderRows.Assigned)
	}
}

func TestBackofficeFacadeIngestRows(t *testing.T) {
	facade, _, _, orderRows := newFacade()

	ids, err := facade.IngestRows(context.Background(), "acme", []model.RowPayload{
		{"shop_name": "MegaMart", "product_code": "SKU-1", "qty": "3", "pay_amount": "12,000", "order_status": "paid"},
		{"vendor_name": "Corner", "mapping_code": "SKU-2"},
	})
	if err != nil {
		t.Fatalf("ingest returned error: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("unexpected ids %v", ids)
	}
	if len(orderRows.Inserted) != 2 {
		t.Fatalf("expected 2 rows persisted, got %d", len(orderRows.Inserted))
	}

	first := orderRows.Inserted[0]
	if first.OwnerCompany != "acme" || first.VendorName != "MegaMart" || first.MappingCode != "SKU-1" {
		t.Fatalf("unexpected normalized row %+v", first)
	}
	if first.Quantity != 3 || first.Price != 12000 || first.Status != "paid" {
		t.Fatalf("unexpected normalized fields %+v", first)
	}
	if first.IngestedAt.IsZero() {
		t.Fatal("expected ingestion timestamp set")
	}
	if second := orderRows.Inserted[1]; second.Quantity != 1 || second.Price != 0 {
		t.Fatalf("expected quantity default and zero price, got %+v", second)
	}
}

func TestBackofficeFacadeIngestRowsRejectsEmptyInput(t *testing.T) {
	facade, _, _, orderRows := newFacade()

	if _, err := facade.IngestRows(context.Background(), "", []model.RowPayload{{"qty": "1"}}); !errors.Is(err, domainErrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty owner, got %v", err)
	}
	if _, err := facade.IngestRows(context.Background(), "acme", nil); !errors.Is(err, domainErrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty batch, got %v", err)
	}
	if len(orderRows.Inserted) != 0 {
		t.Fatalf("expected nothing persisted, got %+v", orderRows.Inserted)
	}
}

func TestBackofficeFacadeSettlements(t *testing.T) {
	facade, _, settlements, _ := newFacade()
	settlements.Txn.Rows = []model.OrderRow{
		{ID: 1, OwnerCompany: "acme", MappingCode: "SKU-1", ChannelID: "mall-1", Quantity: 1, SupplyPrice: 9000, Status: "paid"},
	}

	cp := model.CounterpartyRef{Kind: model.CounterpartyChannel, Key: "mall-1"}
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)

	summary, err := facade.ComputeSettlement(context.Background(), "acme", cp, start, end, model.SettlementOptions{PerOrderShippingFee: true})
	if err != nil {
		t.Fatalf("compute returned error: %v", err)
	}
	if summary.OrderAmount != 9000 {
		t.Fatalf("unexpected amount %d", summary.OrderAmount)
	}

	settlements.Summary = summary
	fetched, err := facade.Settlement(context.Background(), "acme", cp, start, end)
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if fetched != summary {
		t.Fatal("expected stored summary returned")
	}

	settlements.Summary = nil
	if _, err := facade.Settlement(context.Background(), "acme", cp, start, end); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBackofficeFacadeRecompute(t *testing.T) {
	facade, _, settlements, _ := newFacade()
	settlements.Refreshable = []model.SettlementSummary{{
		OwnerCompany: "acme",
		Counterparty: model.CounterpartyRef{Kind: model.CounterpartyChannel, Key: "mall-1"},
		PeriodStart:  time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:    time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
		Options:      model.SettlementOptions{PerOrderShippingFee: true},
	}}

	listed, err := facade.RefreshableSettlements(context.Background(), 10)
	if err != nil {
		t.Fatalf("refreshable returned error: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one refreshable summary, got %d", len(listed))
	}

	if err := facade.RecomputeSettlement(context.Background(), listed[0]); err != nil {
		t.Fatalf("recompute returned error: %v", err)
	}
	if len(settlements.Txn.Upserts) != 1 {
		t.Fatalf("expected recompute to persist, got %d upserts", len(settlements.Txn.Upserts))
	}
	if !settlements.Txn.Upserts[0].Options.PerOrderShippingFee {
		t.Fatal("expected stored options to carry through recompute")
	}
}

func TestBackofficeFacadeRows(t *testing.T) {
	facade, _, _, orderRows := newFacade()
	orderRows.Rows = []model.OrderRow{{ID: 5, MappingCode: "SKU-9"}}

	rows, err := facade.Rows(context.Background(), "acme",
		model.CounterpartyRef{Kind: model.CounterpartySupplier, Key: "Supply Co"},
		time.Now().AddDate(0, -1, 0), time.Now(), true)
	if err != nil {
		t.Fatalf("rows returned error: %v", err)
	}
	if len(rows) != 1 || rows[0].MappingCode != "SKU-9" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestBackofficeFacadePing(t *testing.T) {
	facade, _, _, _ := newFacade()
	if err := facade.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	down := NewBackofficeFacade(nil, nil, nil, pingerStub{err: errors.New("db down")})
	if err := down.Ping(context.Background()); err == nil {
		t.Fatal("expected ping failure")
	}
}
