package repository

import (
	"context"

	"github.com/orderdesk/backoffice/internal/domain/model"
)

// CounterpartyRepository verifies settlement counterparties exist.
type CounterpartyRepository interface {
	Exists(ctx context.Context, ownerCompany string, ref model.CounterpartyRef) (bool, error)
}
