package repository

import (
	"context"
	"time"

	"fieldops/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkerVisitRepository struct {
	db *gorm.DB
}

func NewWorkerVisitRepository(db *gorm.DB) *WorkerVisitRepository {
	return &WorkerVisitRepository{db: db}
}

type WorkerVisitFilter struct {
	Status     string
	ClientID   string
	EngineerID string
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

func (f *WorkerVisitFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

// VisitSummaryRow aggregates completed visits per client for contractor
// payment reconciliation.
type VisitSummaryRow struct {
	ClientID     string `json:"clientId" gorm:"column:client_id"`
	Visits       int64  `json:"visits" gorm:"column:visits"`
	TotalWorkers int64  `json:"totalWorkers" gorm:"column:total_workers"`
}

func (r *WorkerVisitRepository) Create(ctx context.Context, v *domain.WorkerVisit) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *WorkerVisitRepository) GetByID(ctx context.Context, id string) (*domain.WorkerVisit, error) {
	var v domain.WorkerVisit
	tx := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Engineer").
		First(&v, "id = ?", id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &v, nil
}

func (r *WorkerVisitRepository) List(ctx context.Context, f WorkerVisitFilter) ([]domain.WorkerVisit, int64, error) {
	f.normalize()

	q := r.db.WithContext(ctx).Model(&domain.WorkerVisit{})
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

	var out []domain.WorkerVisit
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

// UpdateGuarded applies updates only when updated_at still matches the
// snapshot the caller read.
func (r *WorkerVisitRepository) UpdateGuarded(ctx context.Context, id string, readUpdatedAt time.Time, updates map[string]any) (bool, error) {
	updates["updated_at"] = time.Now()
	tx := r.db.WithContext(ctx).
		Model(&domain.WorkerVisit{}).
		Where("id = ? AND updated_at = ?", id, readUpdatedAt).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *WorkerVisitRepository) SummaryByClient(ctx context.Context, from, to time.Time) ([]VisitSummaryRow, error) {
	var rows []VisitSummaryRow
	q := `
SELECT client_id,
       COUNT(1)                     AS visits,
       COALESCE(SUM(worker_count), 0) AS total_workers
FROM worker_visits
WHERE status = ?
  AND visit_date >= ?
  AND visit_date <= ?
GROUP BY client_id
ORDER BY total_workers DESC
`
	tx := r.db.WithContext(ctx).Raw(q, string(domain.VisitCompleted), from, to).Scan(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return rows, nil
}
