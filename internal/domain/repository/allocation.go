package repository

import "context"

// AllocationTxn exposes the operations an allocation performs inside one
// transaction. Reservation and the collision re-check share the transaction
// so a failed call leaves no sequence numbers burned.
type AllocationTxn interface {
	// ReserveBlock atomically advances the (company, day, prefix) namespace
	// counter by count and returns the last issued sequence number. Blocks
	// reserved by concurrent callers never overlap.
	ReserveBlock(ctx context.Context, ownerCompany, day, prefix string, count int) (int, error)

	// ExistingCodes returns the subset of candidate codes already persisted
	// on the company's order rows.
	ExistingCodes(ctx context.Context, ownerCompany string, codes []string) (map[string]struct{}, error)
}

// AllocationRepository runs allocation work inside a transaction boundary.
type AllocationRepository interface {
	WithinAllocation(ctx context.Context, fn func(AllocationTxn) error) error
}
