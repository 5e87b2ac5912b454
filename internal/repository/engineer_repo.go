package repository

import (
	"context"

	"fieldops/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EngineerRepository struct {
	db *gorm.DB
}

func NewEngineerRepository(db *gorm.DB) *EngineerRepository {
	return &EngineerRepository{db: db}
}

func (r *EngineerRepository) Create(ctx context.Context, e *domain.Engineer) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EngineerRepository) GetByID(ctx context.Context, id string) (*domain.Engineer, error) {
	var e domain.Engineer
	tx := r.db.WithContext(ctx).First(&e, "id = ?", id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &e, nil
}

func (r *EngineerRepository) List(ctx context.Context, f DirectoryFilter) ([]domain.Engineer, int64, error) {
	f.normalize()

	q := r.db.WithContext(ctx).Model(&domain.Engineer{})
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

	var out []domain.Engineer
	err := q.Order("name ASC").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *EngineerRepository) Update(ctx context.Context, e *domain.Engineer) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *EngineerRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Engineer{}, "id = ?", id).Error
}
