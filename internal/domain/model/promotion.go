package model

import "time"

// Promotion is a time-bounded price override for a (channel, product) pair.
// EventPrice takes precedence over DiscountRate when both are set.
type Promotion struct {
	ID           int64
	OwnerCompany string
	ChannelID    string
	ProductCode  string
	EventPrice   *int64
	DiscountRate *float64
	ValidFrom    time.Time
	ValidTo      time.Time
}

// PromotionKey identifies the lookup pair price resolution is keyed by.
type PromotionKey struct {
	ChannelID   string
	ProductCode string
}

// Key returns the lookup key for this promotion.
func (p Promotion) Key() PromotionKey {
	return PromotionKey{ChannelID: p.ChannelID, ProductCode: p.ProductCode}
}

// ValidOn reports whether the promotion window covers the given day, bounds inclusive.
func (p Promotion) ValidOn(day time.Time) bool {
	d := Day(day)
	return !d.Before(Day(p.ValidFrom)) && !d.After(Day(p.ValidTo))
}

// ExpiredOn reports whether the promotion window closed before the given day.
func (p Promotion) ExpiredOn(day time.Time) bool {
	return Day(p.ValidTo).Before(Day(day))
}
