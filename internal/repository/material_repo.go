package repository

import (
	"context"

	"fieldops/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) Create(ctx context.Context, m *domain.Material) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MaterialRepository) GetByID(ctx context.Context, id string) (*domain.Material, error) {
	var m domain.Material
	tx := r.db.WithContext(ctx).First(&m, "id = ?", id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &m, nil
}

func (r *MaterialRepository) List(ctx context.Context, f DirectoryFilter) ([]domain.Material, int64, error) {
	f.normalize()

	q := r.db.WithContext(ctx).Model(&domain.Material{})
	if f.Search != "" {
		q = q.Where("name LIKE ?", "%"+f.Search+"%")
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Material
	err := q.Order("name ASC").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListAll returns every non-deleted material, for the balance projection
// which must include materials with no ledger entries yet.
func (r *MaterialRepository) ListAll(ctx context.Context) ([]domain.Material, error) {
	var out []domain.Material
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *MaterialRepository) Update(ctx context.Context, m *domain.Material) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Material{}, "id = ?", id).Error
}
