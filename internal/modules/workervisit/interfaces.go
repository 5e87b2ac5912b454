package workervisit

import (
	"context"
	"time"

	"fieldops/internal/domain"
	"fieldops/internal/repository"
)

type WorkerVisitRepository interface {
	Create(ctx context.Context, v *domain.WorkerVisit) error
	GetByID(ctx context.Context, id string) (*domain.WorkerVisit, error)
	List(ctx context.Context, f repository.WorkerVisitFilter) ([]domain.WorkerVisit, int64, error)
	UpdateGuarded(ctx context.Context, id string, readUpdatedAt time.Time, updates map[string]any) (bool, error)
	SummaryByClient(ctx context.Context, from, to time.Time) ([]repository.VisitSummaryRow, error)
}

type ClientDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.Client, error)
}

type EngineerDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.Engineer, error)
}

type EventPublisher interface {
	Publish(eventType string, data any)
}
