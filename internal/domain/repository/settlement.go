package repository

import (
	"context"
	"time"

	"github.com/orderdesk/backoffice/internal/domain/model"
)

// SettlementTxn groups the reads and writes of one settlement computation.
// The promotion sweep and the promotion read share the transaction so no
// caller ever observes a promotion as valid while another deletes it.
type SettlementTxn interface {
	// AllPromotions returns every promotion of the company, valid or expired.
	AllPromotions(ctx context.Context, ownerCompany string) ([]model.Promotion, error)

	// DeletePromotions removes promotions by id.
	DeletePromotions(ctx context.Context, ids []int64) error

	// SelectRows returns order rows for the counterparty whose ingestion date
	// falls in [periodStart, periodEnd], both inclusive at date granularity.
	SelectRows(ctx context.Context, ownerCompany string, counterparty model.CounterpartyRef, periodStart, periodEnd time.Time, excludeCancelled bool) ([]model.OrderRow, error)

	// UpsertSummary writes the summary, replacing any previous one for the
	// same (owner, counterparty, period) key.
	UpsertSummary(ctx context.Context, summary *model.SettlementSummary) error
}

// SettlementRepository persists settlement summaries.
type SettlementRepository interface {
	WithinSettlement(ctx context.Context, fn func(SettlementTxn) error) error

	// GetSummary fetches a stored summary or ErrNotFound.
	GetSummary(ctx context.Context, ownerCompany string, counterparty model.CounterpartyRef, periodStart, periodEnd time.Time) (*model.SettlementSummary, error)

	// ListRefreshable returns stored summaries whose period still covers asOf,
	// oldest computation first.
	ListRefreshable(ctx context.Context, asOf time.Time, limit int) ([]model.SettlementSummary, error)
}
