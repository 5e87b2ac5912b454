package repository

import (
	"context"
	"time"

	"fieldops/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

type AppointmentFilter struct {
	Status     string
	ClientID   string
	EngineerID string
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

func (f *AppointmentFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

type DashboardStats struct {
	TotalAppointments    int64 `json:"totalAppointments"`
	PendingVerifications int64 `json:"pendingVerifications"`
	CompletedToday       int64 `json:"completedToday"`
	UpcomingAppointments int64 `json:"upcomingAppointments"`
}

func (r *AppointmentRepository) Create(ctx context.Context, a *domain.Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	var a domain.Appointment
	tx := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Engineer").
		First(&a, "id = ?", id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &a, nil
}

func (r *AppointmentRepository) List(ctx context.Context, f AppointmentFilter) ([]domain.Appointment, int64, error) {
	f.normalize()

	q := r.db.WithContext(ctx).Model(&domain.Appointment{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ClientID != "" {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if f.EngineerID != "" {
		q = q.Where("engineer_id = ?", f.EngineerID)
	}
	if f.From != nil {
		q = q.Where("visit_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("visit_date <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Appointment
	err := q.Preload("Client").
		Preload("Engineer").
		Order("visit_date DESC").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateGuarded applies updates only when the row's updated_at still
// matches the snapshot the caller read. Returns false when another writer
// got there first.
func (r *AppointmentRepository) UpdateGuarded(ctx context.Context, id string, readUpdatedAt time.Time, updates map[string]any) (bool, error) {
	updates["updated_at"] = time.Now()
	tx := r.db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id = ? AND updated_at = ?", id, readUpdatedAt).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *AppointmentRepository) Stats(ctx context.Context, now time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{}
	db := r.db.WithContext(ctx).Model(&domain.Appointment{})

	if err := db.Session(&gorm.Session{}).Count(&stats.TotalAppointments).Error; err != nil {
		return nil, err
	}

	if err := db.Session(&gorm.Session{}).
		Where("status IN ?", []string{string(domain.AppointmentScheduled), string(domain.AppointmentOTPSent)}).
		Count(&stats.PendingVerifications).Error; err != nil {
		return nil, err
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := db.Session(&gorm.Session{}).
		Where("status = ? AND updated_at >= ?", domain.AppointmentCompleted, startOfDay).
		Count(&stats.CompletedToday).Error; err != nil {
		return nil, err
	}

	if err := db.Session(&gorm.Session{}).
		Where("visit_date >= ? AND status NOT IN ?", now,
			[]string{string(domain.AppointmentCompleted), string(domain.AppointmentCancelled)}).
		Count(&stats.UpcomingAppointments).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
