package repository

import (
	"context"
	"time"

	"fieldops/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

type TransactionFilter struct {
	Type       string
	MaterialID string
	ClientID   string
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

func (f *TransactionFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

// BalanceRow is the raw fold over the ledger for one material.
type BalanceRow struct {
	MaterialID string `gorm:"column:material_id"`
	TotalIn    int64  `gorm:"column:total_in"`
	TotalOut   int64  `gorm:"column:total_out"`
}

// UsageRow aggregates STOCK_OUT quantity per material over a range.
type UsageRow struct {
	MaterialID string `json:"materialId" gorm:"column:material_id"`
	TotalUsed  int64  `json:"totalUsed" gorm:"column:total_used"`
}

// Create appends one ledger entry. There is no update path by design:
// the transaction log is the audit trail.
func (r *InventoryRepository) Create(ctx context.Context, t *domain.InventoryTransaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *InventoryRepository) GetByID(ctx context.Context, id string) (*domain.InventoryTransaction, error) {
	var t domain.InventoryTransaction
	tx := r.db.WithContext(ctx).
		Preload("Material").
		Preload("Client").
		Preload("CreatedByUser").
		First(&t, "id = ?", id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &t, nil
}

func (r *InventoryRepository) List(ctx context.Context, f TransactionFilter) ([]domain.InventoryTransaction, int64, error) {
	f.normalize()

	q := r.db.WithContext(ctx).Model(&domain.InventoryTransaction{})
	if f.Type != "" {
		q = q.Where("transaction_type = ?", f.Type)
	}
	if f.MaterialID != "" {
		q = q.Where("material_id = ?", f.MaterialID)
	}
	if f.ClientID != "" {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if f.From != nil {
		q = q.Where("transaction_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("transaction_date <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.InventoryTransaction
	err := q.Preload("Material").
		Preload("Client").
		Order("transaction_date DESC").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Balances folds the whole ledger, optionally scoped to one material.
// Always recomputed from the log, never a stored counter.
func (r *InventoryRepository) Balances(ctx context.Context, materialID string) ([]BalanceRow, error) {
	q := `
SELECT material_id,
       COALESCE(SUM(CASE WHEN transaction_type = 'STOCK_IN'  THEN quantity ELSE 0 END), 0) AS total_in,
       COALESCE(SUM(CASE WHEN transaction_type = 'STOCK_OUT' THEN quantity ELSE 0 END), 0) AS total_out
FROM inventory_transactions
`
	args := []any{}
	if materialID != "" {
		q += "WHERE material_id = ?\n"
		args = append(args, materialID)
	}
	q += "GROUP BY material_id"

	var rows []BalanceRow
	tx := r.db.WithContext(ctx).Raw(q, args...).Scan(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return rows, nil
}

func (r *InventoryRepository) Usage(ctx context.Context, from, to time.Time) ([]UsageRow, error) {
	q := `
SELECT material_id,
       COALESCE(SUM(quantity), 0) AS total_used
FROM inventory_transactions
WHERE transaction_type = 'STOCK_OUT'
  AND transaction_date >= ?
  AND transaction_date <= ?
GROUP BY material_id
ORDER BY total_used DESC
`
	var rows []UsageRow
	tx := r.db.WithContext(ctx).Raw(q, from, to).Scan(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return rows, nil
}
