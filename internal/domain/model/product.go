package model

import "strings"

// BillType classifies an amount for tax purposes.
type BillType string

const (
	BillTypeTaxable BillType = "taxable"
	BillTypeTaxFree BillType = "tax-free"
)

// NormalizeBillType maps a raw catalog bill-type value onto a known bucket.
// Anything unrecognized counts as taxable.
func NormalizeBillType(raw string) BillType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(BillTypeTaxFree), "taxfree", "tax_free", "exempt":
		return BillTypeTaxFree
	default:
		return BillTypeTaxable
	}
}

// Product is a catalog entry resolved by mapping code.
type Product struct {
	OwnerCompany string
	MappingCode  string
	ProductName  string
	SalePrice    int64
	CostPrice    int64
	BillType     BillType
	SupplierName string
}
