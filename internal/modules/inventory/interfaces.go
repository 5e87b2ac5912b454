package inventory

import (
	"context"
	"time"

	"fieldops/internal/domain"
	"fieldops/internal/repository"
)

// LedgerRepository is append-only: entries are inserted and read, never
// updated or deleted.
type LedgerRepository interface {
	Create(ctx context.Context, t *domain.InventoryTransaction) error
	GetByID(ctx context.Context, id string) (*domain.InventoryTransaction, error)
	List(ctx context.Context, f repository.TransactionFilter) ([]domain.InventoryTransaction, int64, error)
	Balances(ctx context.Context, materialID string) ([]repository.BalanceRow, error)
	Usage(ctx context.Context, from, to time.Time) ([]repository.UsageRow, error)
}

type MaterialDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.Material, error)
	ListAll(ctx context.Context) ([]domain.Material, error)
}

type EventPublisher interface {
	Publish(eventType string, data any)
}
