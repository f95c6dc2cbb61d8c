package postgres

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/orderdesk/backoffice/internal/config"
	"github.com/orderdesk/backoffice/internal/domain/repository"
)

// Module wires PostgreSQL storage and repository adapters. The product
// catalog is intentionally not provided here; the cache package decorates it.
var Module = fx.Options(
	fx.Provide(newStorage),
	fx.Provide(
		func(s *Storage) repository.AllocationRepository { return s.Allocations() },
		func(s *Storage) repository.SettlementRepository { return s.Settlements() },
		func(s *Storage) repository.CounterpartyRepository { return s.Counterparties() },
		func(s *Storage) repository.OrderRowRepository { return s.OrderRows() },
	),
	fx.Invoke(registerLifecycle),
)

type storageParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

func newStorage(p storageParams) (*Storage, error) {
	return New(p.Ctx, p.Config.DatabaseURI, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, storage *Storage) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			storage.Close()
			return nil
		},
	})
}
