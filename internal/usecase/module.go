package usecase

import (
	"go.uber.org/fx"

	"github.com/orderdesk/backoffice/internal/config"
	"github.com/orderdesk/backoffice/internal/domain/repository"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	func(cfg *config.Config, allocations repository.AllocationRepository) *AllocatorUseCase {
		return NewAllocatorUseCase(allocations, cfg.MaxAllocationBatch)
	},
	func(
		cfg *config.Config,
		settlements repository.SettlementRepository,
		catalog repository.ProductCatalog,
		counterparties repository.CounterpartyRepository,
	) *SettlementUseCase {
		return NewSettlementUseCase(settlements, catalog, counterparties, cfg.SharedShippingFee)
	},
)
