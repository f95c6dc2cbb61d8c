package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	domainErrors "github.com/orderdesk/backoffice/internal/domain/errors"
	"github.com/orderdesk/backoffice/internal/domain/model"
	"github.com/orderdesk/backoffice/internal/domain/repository"
)

// SettlementUseCase turns raw order rows into period settlement summaries.
type SettlementUseCase struct {
	settlements    repository.SettlementRepository
	catalog        repository.ProductCatalog
	counterparties repository.CounterpartyRepository
	shippingFee    int64
	now            func() time.Time
}

// NewSettlementUseCase constructs SettlementUseCase. sharedShippingFee is the
// per-order shipping constant apportioned across multi-unit orders.
func NewSettlementUseCase(
	settlements repository.SettlementRepository,
	catalog repository.ProductCatalog,
	counterparties repository.CounterpartyRepository,
	sharedShippingFee int64,
) *SettlementUseCase {
	return &SettlementUseCase{
		settlements:    settlements,
		catalog:        catalog,
		counterparties: counterparties,
		shippingFee:    sharedShippingFee,
		now:            time.Now,
	}
}

type lineAccumulator struct {
	productName    string
	billType       model.BillType
	orderQuantity  int
	orderAmount    int64
	cancelQuantity int
	cancelAmount   int64
}

// Compute aggregates the counterparty's rows over the period and upserts the
// resulting summary. Recomputing with an unchanged underlying dataset yields
// an identical summary. Structural errors (bad period, unknown counterparty)
// fail the call; data-quality gaps degrade to defaults.
func (u *SettlementUseCase) Compute(
	ctx context.Context,
	ownerCompany string,
	counterparty model.CounterpartyRef,
	periodStart, periodEnd time.Time,
	opts model.SettlementOptions,
) (*model.SettlementSummary, error) {
	periodStart = model.Day(periodStart)
	periodEnd = model.Day(periodEnd)
	if periodStart.After(periodEnd) {
		return nil, fmt.Errorf("%w: %s after %s", domainErrors.ErrInvalidPeriod,
			periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"))
	}
	if !counterparty.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind %q", domainErrors.ErrUnknownCounterparty, counterparty.Kind)
	}

	known, err := u.counterparties.Exists(ctx, ownerCompany, counterparty)
	if err != nil {
		return nil, fmt.Errorf("resolve counterparty: %w", err)
	}
	if !known {
		return nil, fmt.Errorf("%w: %s %q", domainErrors.ErrUnknownCounterparty, counterparty.Kind, counterparty.Key)
	}

	summary := &model.SettlementSummary{
		OwnerCompany: ownerCompany,
		Counterparty: counterparty,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		Options:      opts,
	}

	err = u.settlements.WithinSettlement(ctx, func(txn repository.SettlementTxn) error {
		overrides, err := u.resolvePromotions(ctx, txn, ownerCompany)
		if err != nil {
			return err
		}

		rows, err := txn.SelectRows(ctx, ownerCompany, counterparty, periodStart, periodEnd, false)
		if err != nil {
			return fmt.Errorf("select rows: %w", err)
		}

		lines, err := u.accumulate(ctx, rows, overrides, opts)
		if err != nil {
			return err
		}
		fillSummary(summary, lines)

		if err := txn.UpsertSummary(ctx, summary); err != nil {
			return fmt.Errorf("upsert summary: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// resolvePromotions loads the promotion set, sweeps expired entries, and
// returns the override lookup built from the currently valid ones. The sweep
// runs before price resolution so a just-expired promotion is never applied.
func (u *SettlementUseCase) resolvePromotions(ctx context.Context, txn repository.SettlementTxn, ownerCompany string) (map[model.PromotionKey]model.Promotion, error) {
	promotions, err := txn.AllPromotions(ctx, ownerCompany)
	if err != nil {
		return nil, fmt.Errorf("load promotions: %w", err)
	}

	today := u.now()
	overrides := make(map[model.PromotionKey]model.Promotion)
	var expired []int64
	for _, promo := range promotions {
		if promo.ExpiredOn(today) {
			expired = append(expired, promo.ID)
			continue
		}
		if !promo.ValidOn(today) {
			continue
		}
		// More than one valid promotion for a pair: smallest id wins.
		if current, ok := overrides[promo.Key()]; !ok || promo.ID < current.ID {
			overrides[promo.Key()] = promo
		}
	}

	if len(expired) > 0 {
		if err := txn.DeletePromotions(ctx, expired); err != nil {
			return nil, fmt.Errorf("sweep expired promotions: %w", err)
		}
	}

	return overrides, nil
}

func (u *SettlementUseCase) accumulate(
	ctx context.Context,
	rows []model.OrderRow,
	overrides map[model.PromotionKey]model.Promotion,
	opts model.SettlementOptions,
) (map[string]*lineAccumulator, error) {
	lines := make(map[string]*lineAccumulator)

	for _, row := range rows {
		product, err := u.catalog.Resolve(ctx, row.OwnerCompany, row.MappingCode)
		if err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
			return nil, fmt.Errorf("resolve product %q: %w", row.MappingCode, err)
		}

		pc := PriceContext{Row: row, Product: product}
		if promo, ok := overrides[model.PromotionKey{ChannelID: row.ChannelID, ProductCode: row.MappingCode}]; ok {
			p := promo
			pc.Promotion = &p
		}

		unitPrice := ResolveUnitPrice(pc)
		quantity := row.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		amount := u.lineAmount(unitPrice, quantity, opts)

		acc, ok := lines[row.MappingCode]
		if !ok {
			acc = &lineAccumulator{billType: model.BillTypeTaxable}
			if product != nil {
				acc.productName = product.ProductName
				acc.billType = product.BillType
			}
			lines[row.MappingCode] = acc
		}

		if row.Cancelled() {
			acc.cancelQuantity += quantity
			acc.cancelAmount += amount
		} else {
			acc.orderQuantity += quantity
			acc.orderAmount += amount
		}
	}

	return lines, nil
}

// lineAmount applies the shipping apportionment rule: unless every unit
// carries its own shipping fee, units past the first in one order do not
// re-charge the shared fee.
func (u *SettlementUseCase) lineAmount(unitPrice int64, quantity int, opts model.SettlementOptions) int64 {
	if opts.PerOrderShippingFee {
		return unitPrice * int64(quantity)
	}
	return unitPrice*int64(quantity) - u.shippingFee*int64(quantity-1)
}

// fillSummary folds accumulated groups into summary totals. Lines are sorted
// by mapping code so recomputation is stable. The tax split is exact integer
// arithmetic over group nets, so taxable + taxFree always equals total.
func fillSummary(summary *model.SettlementSummary, lines map[string]*lineAccumulator) {
	codes := make([]string, 0, len(lines))
	for code := range lines {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	summary.Lines = make([]model.SettlementLine, 0, len(codes))
	summary.OrderQuantity = 0
	summary.OrderAmount = 0
	summary.CancelQuantity = 0
	summary.CancelAmount = 0
	summary.TaxableAmount = 0
	summary.TaxFreeAmount = 0

	for _, code := range codes {
		acc := lines[code]
		line := model.SettlementLine{
			MappingCode:    code,
			ProductName:    acc.productName,
			BillType:       acc.billType,
			OrderQuantity:  acc.orderQuantity,
			OrderAmount:    acc.orderAmount,
			CancelQuantity: acc.cancelQuantity,
			CancelAmount:   acc.cancelAmount,
		}
		summary.Lines = append(summary.Lines, line)

		summary.OrderQuantity += line.OrderQuantity
		summary.OrderAmount += line.OrderAmount
		summary.CancelQuantity += line.CancelQuantity
		summary.CancelAmount += line.CancelAmount

		switch line.BillType {
		case model.BillTypeTaxFree:
			summary.TaxFreeAmount += line.NetAmount()
		default:
			summary.TaxableAmount += line.NetAmount()
		}
	}

	summary.NetAmount = summary.OrderAmount - summary.CancelAmount
	summary.TotalAmount = summary.TaxableAmount + summary.TaxFreeAmount
}

// Get fetches a previously computed summary.
func (u *SettlementUseCase) Get(ctx context.Context, ownerCompany string, counterparty model.CounterpartyRef, periodStart, periodEnd time.Time) (*model.SettlementSummary, error) {
	return u.settlements.GetSummary(ctx, ownerCompany, counterparty, model.Day(periodStart), model.Day(periodEnd))
}

// Refreshable lists stored summaries whose period still covers today.
func (u *SettlementUseCase) Refreshable(ctx context.Context, limit int) ([]model.SettlementSummary, error) {
	return u.settlements.ListRefreshable(ctx, model.Day(u.now()), limit)
}
