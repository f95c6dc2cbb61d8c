package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Allocations() AllocationRepository
	Settlements() SettlementRepository
	Catalog() ProductCatalog
	Counterparties() CounterpartyRepository
	OrderRows() OrderRowRepository
}
