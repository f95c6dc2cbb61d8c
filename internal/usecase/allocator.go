package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	domainErrors "github.com/orderdesk/backoffice/internal/domain/errors"
	"github.com/orderdesk/backoffice/internal/domain/model"
	"github.com/orderdesk/backoffice/internal/domain/repository"
)

// maxNamespaceSeq bounds the four-digit sequence component of a code.
const maxNamespaceSeq = 9999

// AllocatorUseCase issues globally unique internal order codes shaped
// DATE(8) + VENDOR_PREFIX(2) + SEQ(4). Uniqueness contention is scoped to the
// (company, day, prefix) namespace; the durable counter behind
// AllocationTxn.ReserveBlock is the only arbiter under concurrency.
type AllocatorUseCase struct {
	allocations repository.AllocationRepository
	maxBatch    int
	now         func() time.Time
}

// NewAllocatorUseCase constructs AllocatorUseCase.
func NewAllocatorUseCase(allocations repository.AllocationRepository, maxBatch int) *AllocatorUseCase {
	if maxBatch <= 0 {
		maxBatch = 10000
	}
	return &AllocatorUseCase{allocations: allocations, maxBatch: maxBatch, now: time.Now}
}

type prefixGroup struct {
	prefix    string
	positions []int
}

// Allocate returns one code per vendor name, same order, all distinct, or
// fails atomically. Duplicated names across the batch each receive their own
// code. Codes are never persisted here; callers attach them to rows.
func (u *AllocatorUseCase) Allocate(ctx context.Context, ownerCompany string, vendorNames []string) ([]string, error) {
	if strings.TrimSpace(ownerCompany) == "" {
		return nil, fmt.Errorf("%w: owner company is required", domainErrors.ErrInvalidInput)
	}
	if len(vendorNames) == 0 {
		return nil, fmt.Errorf("%w: empty batch", domainErrors.ErrInvalidInput)
	}
	if len(vendorNames) > u.maxBatch {
		return nil, fmt.Errorf("%w: batch of %d exceeds ceiling %d", domainErrors.ErrInvalidInput, len(vendorNames), u.maxBatch)
	}

	groups := make(map[string]*prefixGroup)
	order := make([]*prefixGroup, 0)
	for i, name := range vendorNames {
		prefix := model.VendorPrefix(name)
		if prefix == "" {
			return nil, fmt.Errorf("%w: vendor name at position %d is empty", domainErrors.ErrInvalidInput, i)
		}
		g, ok := groups[prefix]
		if !ok {
			g = &prefixGroup{prefix: prefix}
			groups[prefix] = g
			order = append(order, g)
		}
		g.positions = append(g.positions, i)
	}

	day := u.now().Format("20060102")
	codes := make([]string, len(vendorNames))

	err := u.allocations.WithinAllocation(ctx, func(txn repository.AllocationTxn) error {
		for _, g := range order {
			count := len(g.positions)
			last, err := txn.ReserveBlock(ctx, ownerCompany, day, g.prefix, count)
			if err != nil {
				return fmt.Errorf("reserve block %s/%s: %w", day, g.prefix, err)
			}
			if last > maxNamespaceSeq {
				return fmt.Errorf("%w: namespace %s%s needs %d past %d", domainErrors.ErrNamespaceExhausted, day, g.prefix, last, maxNamespaceSeq)
			}
			start := last - count + 1
			for i, pos := range g.positions {
				codes[pos] = day + g.prefix + fmt.Sprintf("%04d", start+i)
			}
		}

		// A hit here means the counter state went stale; rolling back
		// also undoes the reservations.
		seen := make(map[string]struct{}, len(codes))
		for _, code := range codes {
			if _, dup := seen[code]; dup {
				return fmt.Errorf("%w: duplicate %s within batch", domainErrors.ErrCodeCollision, code)
			}
			seen[code] = struct{}{}
		}
		existing, err := txn.ExistingCodes(ctx, ownerCompany, codes)
		if err != nil {
			return fmt.Errorf("check existing codes: %w", err)
		}
		if len(existing) > 0 {
			for code := range existing {
				return fmt.Errorf("%w: %s already persisted", domainErrors.ErrCodeCollision, code)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return codes, nil
}
