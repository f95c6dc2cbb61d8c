package repository

import (
	"context"
	"time"

	"github.com/orderdesk/backoffice/internal/domain/model"
)

// OrderRowRepository describes the order-row operations the service exposes
// outside of settlement transactions.
type OrderRowRepository interface {
	// InsertRows persists normalized rows and returns their ids in input order.
	InsertRows(ctx context.Context, rows []model.OrderRow) ([]int64, error)

	// SelectRows lists rows for a counterparty and period, date bounds inclusive.
	SelectRows(ctx context.Context, ownerCompany string, counterparty model.CounterpartyRef, periodStart, periodEnd time.Time, excludeCancelled bool) ([]model.OrderRow, error)

	// AssignCodes persists freshly allocated internal codes onto rows.
	// A row that already carries a code keeps it.
	AssignCodes(ctx context.Context, ownerCompany string, codes map[int64]string) error
}
