package repository

import (
	"context"

	"github.com/orderdesk/backoffice/internal/domain/model"
)

// ProductCatalog resolves mapping codes to cost and tax fields.
type ProductCatalog interface {
	// Resolve returns the catalog entry for a mapping code or ErrNotFound.
	Resolve(ctx context.Context, ownerCompany, mappingCode string) (*model.Product, error)
}
