package appointment

import (
	"context"
	"time"

	"fieldops/internal/domain"
	"fieldops/internal/repository"
)

// AppointmentRepository is the persistence contract for appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) error
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	List(ctx context.Context, f repository.AppointmentFilter) ([]domain.Appointment, int64, error)
	UpdateGuarded(ctx context.Context, id string, readUpdatedAt time.Time, updates map[string]any) (bool, error)
	Stats(ctx context.Context, now time.Time) (*repository.DashboardStats, error)
}

// ClientDirectory resolves client references.
type ClientDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.Client, error)
}

// EngineerDirectory resolves engineer references.
type EngineerDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.Engineer, error)
}

// EventPublisher pushes dashboard events; nil-safe in the service.
type EventPublisher interface {
	Publish(eventType string, data any)
}
