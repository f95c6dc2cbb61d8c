package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	domainErrors "github.com/orderdesk/backoffice/internal/domain/errors"
	"github.com/orderdesk/backoffice/internal/domain/model"
	testhelpers "github.com/orderdesk/backoffice/internal/test"
)

const testShippingFee = 4000

type settlementFixture struct {
	uc             *SettlementUseCase
	settlements    *testhelpers.SettlementRepositoryStub
	catalog        *testhelpers.CatalogStub
	counterparties *testhelpers.CounterpartyRepositoryStub
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	settlements := testhelpers.NewSettlementRepositoryStub()
	catalog := &testhelpers.CatalogStub{Products: map[string]*model.Product{}}
	counterparties := &testhelpers.CounterpartyRepositoryStub{}
	uc := NewSettlementUseCase(settlements, catalog, counterparties, testShippingFee)
	uc.now = func() time.Time { return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC) }
	return &settlementFixture{uc: uc, settlements: settlements, catalog: catalog, counterparties: counterparties}
}

func channelRef(key string) model.CounterpartyRef {
	return model.CounterpartyRef{Kind: model.CounterpartyChannel, Key: key}
}

var (
	periodStart = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)
)

func TestComputeRejectsInvertedPeriod(t *testing.T) {
	f := newSettlementFixture(t)
	_, err := f.uc.Compute(context.Background(), "acme", channelRef("mall-1"), periodEnd, periodStart, model.SettlementOptions{})
	if !errors.Is(err, domainErrors.ErrInvalidPeriod) {
		t.Fatalf("expected invalid period, got %v", err)
	}
}

func TestComputeRejectsUnknownCounterparty(t *testing.T) {
	f := newSettlementFixture(t)
	f.counterparties.Known = map[model.CounterpartyRef]bool{}

	_, err := f.uc.Compute(context.Background(), "acme", channelRef("mall-1"), periodStart, periodEnd, model.SettlementOptions{})
	if !errors.Is(err, domainErrors.ErrUnknownCounterparty) {
		t.Fatalf("expected unknown counterparty, got %v", err)
	}

	_, err = f.uc.Compute(context.Background(), "acme", model.CounterpartyRef{Kind: "warehouse", Key: "w-1"}, periodStart, periodEnd, model.SettlementOptions{})
	if !errors.Is(err, domainErrors.ErrUnknownCounterparty) {
		t.Fatalf("expected unknown counterparty for bad kind, got %v", err)
	}
}

func TestComputeApportionsSharedShipping(t *testing.T) {
	f := newSettlementFixture(t)
	f.settlements.Txn.Rows = []model.OrderRow{
		{ID: 1, OwnerCompany: "acme", MappingCode: "SKU-1", ChannelID: "mall-1", Quantity: 3, SupplyPrice: 10000, Status: "paid"},
	}

	// Shared shipping: 10000*3 - 4000*2 = 22000.
	summary, err := f.uc.Compute(context.Background(), "acme", channelRef("mall-1"), periodStart, periodEnd, model.SettlementOptions{PerOrderShippingFee: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.OrderAmount != 22000 {
		t.Fatalf("expected shared-shipping amount 22000, got %d", summary.OrderAmount)
	}

	// Per-order shipping charges every unit: 10000*3 = 30000.
	summary, err = f.uc.Compute(context.Background(), "acme", channelRef("mall-1"), periodStart, periodEnd, model.SettlementOptions{PerOrderShippingFee: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.OrderAmount != 30000 {
		t.Fatalf("expected per-order amount 30000, got %d", summary.OrderAmount)
	}
}

func TestComputePromotionOverridesCatalogPrice(t *testing.T) {
	f := newSettlementFixture(t)
	f.catalog.Products["SKU-1"] = &model.Product{OwnerCompany: "acme", MappingCode: "SKU-1", ProductName: "Lamp", SalePrice: 10000, BillType: model.BillTypeTaxable}
	f.settlements.Txn.Rows = []model.OrderRow{
		{ID: 1, OwnerCompany: "acme", MappingCode: "SKU-1", ChannelID: "mall-1", Quantity: 1, Status: "paid"},
	}
	f.settlements.Txn.Promotions = []model.Promotion{
		{
			ID: 7, OwnerCompany: "acme", ChannelID: "mall-1", ProductCode: "SKU-1",
			EventPrice: int64Ptr(8000),
			ValidFrom:  time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			ValidTo:    time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	summary, err := f.uc.Compute(context.Background(), "acme", channelRef("mall-1"), periodStart, periodEnd, model.SettlementOptions{PerOrderShippingFee: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.OrderAmount != 8000 {
		t.Fatalf("expected event price 8000 to win, got %d", summary.OrderAmount)
	}
}

func TestComputeDiscountRatePromotion(t *testing.T) {
	f := newSettlementFixture(t)
	f.catalog.Products["SKU-1"] = &model.Product{OwnerCompany: "acme", MappingCode: "SKU-1", ProductName: "Lamp", SalePrice: 10000, BillType: model.BillTypeTaxable}
	f.settlements.Txn.Rows = []model.OrderRow{
		{ID: 1, OwnerCompany: "acme", MappingCode: "SKU-1", ChannelID: "mall-1", Quantity: 1, Status: "paid"},
	}
	f.settlements.Txn.Promotions = []model.Promotion{
		{
			ID: 3, OwnerCompany: "acme", ChannelID: "mall-1", ProductCode: "SKU-1",
			DiscountRate: float64Ptr(20),
			ValidFrom:    time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			ValidTo:      time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	summary, err := f.uc.Compute(context.Background(), "acme", channelRef("mall-1"), periodStart, periodEnd, model.SettlementOptions{PerOrderShippingFee: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.OrderAmount != 8000 {
		t.Fatalf("expected 20%% discount on 10000, got %d", summary.OrderAmount)
	}
}

func TestComputeSweepsExpiredPromotions(t *testing.T) {
	f := newSettlementFixture(t)
	f.catalog.Products["SKU-1"] = &model.Product{OwnerCompany: "acme", MappingCode: "SKU-1", ProductName: "Lamp", SalePrice: 10000, BillType: model.BillTypeTaxable}
	f.settlements.Txn.Rows = []model.OrderRow{
		{ID: 1, OwnerCompany: "acme", MappingCode: "SKU-1", ChannelID: "mall-1", Quantity: 1, Status: "paid"},
	}
	f.settlements.Txn.Promotions = []model.Promotion{
		{
			ID: 11, OwnerCompany: "acme", ChannelID: "mall-1", ProductCode: "SKU-1",
			EventPrice: int64Ptr(100),
			ValidFrom:  time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
			ValidTo:    time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC),
		},
	}

	summary, err := f.uc.Compute(context.Background(), "acme", channelRef("mall-1"), periodStart, periodEnd, model.SettlementOptions{PerOrderShippingFee: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.OrderAmount != 10000 {
		t.Fatalf("expired promotion must not price the row, got %d", summary.OrderAmount)
	}
	if len(f.settlements.Txn.Deleted) != 1 || f.settlements.Txn.Deleted[0] != 11 {
		t.Fatalf("expected promotion 11 swept, got %v", f.settlements.Txn.Deleted)
	}
}

func TestComputeDuplicatePromotionsSmallestIDWins(t *testing.T) {
	f := newSettlementFixture(t)
	f.settlements.Txn.Rows = []model.OrderRow{
		{ID: 1, OwnerCompany: "acme", MappingCode: "SKU-1", ChannelID: "mall-1", Quantity: 1, Status: "paid"},
	}
	window := func(id int64, price int64) model.Promotion {
		return model.Promotion{
			ID: id, OwnerCompany: "acme", ChannelID: "mall-1", ProductCode: "SKU-1",
			EventPrice: int64Ptr(price),
			ValidFrom:  time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			ValidTo:    time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
		}
	}
	f.settlements.Txn.Promotions = []model.Promotion{window(9, 5000), window(2, 7000)}

	summary, err := f.uc.Compute(context.Background(), "acme", channelRef("mall-1"), periodStart, periodEnd, model.SettlementOptions{PerOrderShippingFee: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.OrderAmount != 7000 {
		t.Fatalf("expected promotion with id 2 to win, got amount %d", summary.OrderAmount)
	}
}

func TestComputeSplitsCancelledRows(t *testing.T) {
	f := newSettlementFixture(t)
	f.settlements.Txn.Rows = []model.OrderRow{
		{ID: 1, OwnerCompany: "acme", MappingCode: "SKU-1", ChannelID: "mall-1", Quantity: 2, SupplyPrice: 5000, Status: "paid"},
		{ID: 2, OwnerCompany: "acme", MappingCode: "SKU-1", ChannelID: "mall-1", Quantity: 1, SupplyPrice: 5000, Status: "Cancelled"},
	}

	summary, err := f.uc.Compute(context.Background(), "acme", channelRef("mall-1"), periodStart, periodEnd, model.SettlementOptions{PerOrderShippingFee: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.OrderQuantity != 2 || summary.OrderAmount != 10000 {
		t.Fatalf("unexpected order bucket: qty %d amount %d", summary.OrderQuantity, summary.OrderAmount)
	}
	if summary.CancelQuantity != 1 || summary.CancelAmount != 5000 {
		t.Fatalf("unexpected cancel bucket: qty %d amount %d", summary.CancelQuantity, summary.CancelAmount)
	}
	if summary.NetAmount != 5000 {
		t.Fatalf("expected net 5000, got %d", summary.NetAmount)
	}
}

func TestComputeTaxSplitCoversTotal(t *testing.T) {
	f := newSettlementFixture(t)
	f.catalog.Products["SKU-1"] = &model.Product{OwnerCompany: "acme", MappingCode: "SKU-1", ProductName: "Lamp", SalePrice: 10000, BillType: model.BillTypeTaxable}
	f.catalog.Products["SKU-2"] = &model.Product{OwnerCompany: "acme", MappingCode: "SKU-2", ProductName: "Rice", SalePrice: 3000, BillType: model.BillTypeTaxFree}
	f.settlements.Txn.Rows = []model.OrderRow{
		{ID: 1, OwnerCompany: "acme", MappingCode: "SKU-1", ChannelID: "mall-1", Quantity: 1, Status: "paid"},
		{ID: 2, OwnerCompany: "acme", MappingCode: "SKU-2", ChannelID: "mall-1", Quantity: 2, Status: "paid"},
		{ID: 3, OwnerCompany: "acme", MappingCode: "SKU-2", ChannelID: "mall-1", Quantity: 1, Status: "cancelled"},
	}

	summary, err := f.uc.Compute(context.Background(), "acme", channelRef("mall-1"), periodStart, periodEnd, model.SettlementOptions{PerOrderShippingFee: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TaxableAmount != 10000 {
		t.Fatalf("expected taxable 10000, got %d", summary.TaxableAmount)
	}
	if summary.TaxFreeAmount != 3000 {
		t.Fatalf("expected tax-free 3000, got %d", summary.TaxFreeAmount)
	}
	if summary.TaxableAmount+summary.TaxFreeAmount != summary.TotalAmount {
		t.Fatalf("tax split %d+%d does not cover total %d", summary.TaxableAmount, summary.TaxFreeAmount, summary.TotalAmount)
	}
	if len(summary.Lines) != 2 || summary.Lines[0].MappingCode != "SKU-1" || summary.Lines[1].MappingCode != "SKU-2" {
		t.Fatalf("expected lines sorted by mapping code, got %+v", summary.Lines)
	}
}

func TestComputeUnpricedRowStillCounts(t *testing.T) {
	f := newSettlementFixture(t)
	f.settlements.Txn.Rows = []model.OrderRow{
		{ID: 1, OwnerCompany: "acme", MappingCode: "SKU-404", ChannelID: "mall-1", Quantity: 2, Status: "paid"},
	}

	summary, err := f.uc.Compute(context.Background(), "acme", channelRef("mall-1"), periodStart, periodEnd, model.SettlementOptions{PerOrderShippingFee: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.OrderQuantity != 2 {
		t.Fatalf("expected quantity counted despite missing price, got %d", summary.OrderQuantity)
	}
	if summary.OrderAmount != 0 {
		t.Fatalf("expected zero amount for unpriced row, got %d", summary.OrderAmount)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	f := newSettlementFixture(t)
	f.catalog.Products["SKU-1"] = &model.Product{OwnerCompany: "acme", MappingCode: "SKU-1", ProductName: "Lamp", SalePrice: 10000, BillType: model.BillTypeTaxable}
	f.settlements.Txn.Rows = []model.OrderRow{
		{ID: 1, OwnerCompany: "acme", MappingCode: "SKU-1", ChannelID: "mall-1", Quantity: 3, Status: "paid"},
		{ID: 2, OwnerCompany: "acme", MappingCode: "SKU-1", ChannelID: "mall-1", Quantity: 1, Status: "cancelled"},
	}
	opts := model.SettlementOptions{PerOrderShippingFee: false}

	first, err := f.uc.Compute(context.Background(), "acme", channelRef("mall-1"), periodStart, periodEnd, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.uc.Compute(context.Background(), "acme", channelRef("mall-1"), periodStart, periodEnd, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("recomputation over unchanged data diverged:\nfirst  %+v\nsecond %+v", first, second)
	}
	if len(f.settlements.Txn.Upserts) != 2 {
		t.Fatalf("expected two upserts, got %d", len(f.settlements.Txn.Upserts))
	}
	if !reflect.DeepEqual(f.settlements.Txn.Upserts[0], f.settlements.Txn.Upserts[1]) {
		t.Fatal("persisted summaries differ between recomputations")
	}
}

func TestComputePropagatesCatalogFailure(t *testing.T) {
	boom := errors.New("catalog down")
	f := newSettlementFixture(t)
	f.catalog.ResolveFn = func(context.Context, string, string) (*model.Product, error) {
		return nil, boom
	}
	f.settlements.Txn.Rows = []model.OrderRow{
		{ID: 1, OwnerCompany: "acme", MappingCode: "SKU-1", ChannelID: "mall-1", Quantity: 1, Status: "paid"},
	}

	if _, err := f.uc.Compute(context.Background(), "acme", channelRef("mall-1"), periodStart, periodEnd, model.SettlementOptions{}); !errors.Is(err, boom) {
		t.Fatalf("expected catalog failure to propagate, got %v", err)
	}
	if len(f.settlements.Txn.Upserts) != 0 {
		t.Fatal("failed computation must not persist a summary")
	}
}

func TestGetNormalizesPeriodToDays(t *testing.T) {
	f := newSettlementFixture(t)
	stored := &model.SettlementSummary{OwnerCompany: "acme", Counterparty: channelRef("mall-1")}
	f.settlements.Summary = stored

	got, err := f.uc.Get(context.Background(), "acme", channelRef("mall-1"),
		periodStart.Add(13*time.Hour), periodEnd.Add(26*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != stored {
		t.Fatal("expected stored summary returned")
	}
}

func TestRefreshableDelegatesToRepository(t *testing.T) {
	f := newSettlementFixture(t)
	f.settlements.Refreshable = []model.SettlementSummary{{OwnerCompany: "acme"}}

	got, err := f.uc.Refreshable(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].OwnerCompany != "acme" {
		t.Fatalf("unexpected refreshable list %+v", got)
	}
}
