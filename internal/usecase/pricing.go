package usecase

import (
	"math"

	"github.com/orderdesk/backoffice/internal/domain/model"
)

// PriceContext carries everything one row's price resolution may consult.
// Product is nil on a catalog miss, Promotion is nil when no currently valid
// override targets the row's (channel, product) pair.
type PriceContext struct {
	Row       model.OrderRow
	Product   *model.Product
	Promotion *model.Promotion
}

type priceResolver struct {
	name    string
	resolve func(PriceContext) (int64, bool)
}

// priceChain is evaluated in order, stopping at the first resolver that
// produces a value. The ordering is the business rule; keep it flat so it
// stays auditable.
var priceChain = []priceResolver{
	{
		name: "promotion event price",
		resolve: func(pc PriceContext) (int64, bool) {
			if pc.Promotion == nil || pc.Promotion.EventPrice == nil {
				return 0, false
			}
			return *pc.Promotion.EventPrice, true
		},
	},
	{
		name: "promotion discount rate",
		resolve: func(pc PriceContext) (int64, bool) {
			if pc.Promotion == nil || pc.Promotion.DiscountRate == nil || pc.Product == nil {
				return 0, false
			}
			discounted := float64(pc.Product.SalePrice) * (1 - *pc.Promotion.DiscountRate/100)
			return int64(math.Round(discounted)), true
		},
	},
	{
		name: "row supply price",
		resolve: func(pc PriceContext) (int64, bool) {
			if pc.Row.SupplyPrice <= 0 {
				return 0, false
			}
			return pc.Row.SupplyPrice, true
		},
	},
	{
		name: "catalog sale price",
		resolve: func(pc PriceContext) (int64, bool) {
			if pc.Product == nil || pc.Product.SalePrice <= 0 {
				return 0, false
			}
			return pc.Product.SalePrice, true
		},
	},
}

// ResolveUnitPrice walks the fallback chain and returns the effective unit
// price for a row. A row nothing in the chain can price resolves to zero;
// missing price data must still produce a summable total.
func ResolveUnitPrice(pc PriceContext) int64 {
	for _, r := range priceChain {
		if price, ok := r.resolve(pc); ok {
			return price
		}
	}
	return 0
}
