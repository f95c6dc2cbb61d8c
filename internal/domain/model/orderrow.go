package model

import (
	"strconv"
	"strings"
	"time"
)

// StatusCancelled is the sentinel status excluding a row from order totals.
const StatusCancelled = "cancelled"

// OrderRow is one ingested order line after payload normalization.
type OrderRow struct {
	ID           int64
	OwnerCompany string
	VendorName   string
	MappingCode  string
	ChannelID    string
	SupplierName string
	Quantity     int
	SupplyPrice  int64
	Price        int64
	Status       string
	InternalCode *string
	IngestedAt   time.Time
}

// Cancelled reports whether the row carries the cancellation sentinel.
func (r OrderRow) Cancelled() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), StatusCancelled)
}

// RowPayload is the loose key/value bag an ingested spreadsheet row arrives as.
type RowPayload map[string]string

// Field aliases recognized during normalization. Interpreting the loose
// payload happens here and nowhere else.
var (
	vendorNameKeys  = []string{"vendor_name", "shop_name", "mall_name"}
	mappingCodeKeys = []string{"mapping_code", "product_code", "item_code"}
	quantityKeys    = []string{"quantity", "qty", "order_count"}
	supplyPriceKeys = []string{"supply_price", "settlement_price"}
	priceKeys       = []string{"price", "sale_price", "pay_amount"}
	statusKeys      = []string{"status", "order_status"}
	channelKeys     = []string{"channel_id", "mall_id"}
	supplierKeys    = []string{"supplier_name", "purchase_name"}
)

// NormalizeRow converts a raw payload into a typed OrderRow. Missing or
// unparseable quantity defaults to 1; missing prices stay zero so downstream
// price resolution can fall through.
func NormalizeRow(id int64, ownerCompany string, ingestedAt time.Time, payload RowPayload) OrderRow {
	return OrderRow{
		ID:           id,
		OwnerCompany: ownerCompany,
		VendorName:   payloadString(payload, vendorNameKeys),
		MappingCode:  payloadString(payload, mappingCodeKeys),
		ChannelID:    payloadString(payload, channelKeys),
		SupplierName: payloadString(payload, supplierKeys),
		Quantity:     payloadQuantity(payload),
		SupplyPrice:  payloadAmount(payload, supplyPriceKeys),
		Price:        payloadAmount(payload, priceKeys),
		Status:       payloadString(payload, statusKeys),
		IngestedAt:   ingestedAt,
	}
}

func payloadString(p RowPayload, keys []string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(p[key]); v != "" {
			return v
		}
	}
	return ""
}

func payloadQuantity(p RowPayload) int {
	raw := payloadString(p, quantityKeys)
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

func payloadAmount(p RowPayload, keys []string) int64 {
	raw := payloadString(p, keys)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(raw, ",", ""), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// VendorPrefix derives the allocation namespace component from a vendor name:
// the first two runes, or the whole name when shorter.
func VendorPrefix(vendorName string) string {
	runes := []rune(strings.TrimSpace(vendorName))
	if len(runes) <= 2 {
		return string(runes)
	}
	return string(runes[:2])
}

// Day truncates a timestamp to date granularity.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
