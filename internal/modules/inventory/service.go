package inventory

import (
	"context"
	"errors"
	"time"

	"fieldops/internal/domain"
	"fieldops/internal/modules/notify"
	"fieldops/internal/repository"

	"gorm.io/gorm"
)

// Service fronts the append-only material ledger. Balances are a pure
// fold over the transaction log: there is no stored counter to drift
// out of sync with the entries.
type Service struct {
	ledger    LedgerRepository
	materials MaterialDirectory
	events    EventPublisher
}

func NewService(ledger LedgerRepository, materials MaterialDirectory, events EventPublisher) *Service {
	return &Service{ledger: ledger, materials: materials, events: events}
}

func (s *Service) StockIn(ctx context.Context, actorID string, req StockInRequest) (*domain.InventoryTransaction, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if _, err := s.material(ctx, req.MaterialID); err != nil {
		return nil, err
	}

	t := &domain.InventoryTransaction{
		MaterialID:      req.MaterialID,
		TransactionType: domain.StockIn,
		Quantity:        req.Quantity,
		Remarks:         req.Remarks,
		TransactionDate: req.TransactionDate,
		CreatedBy:       actorID,
	}
	if err := s.ledger.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// StockOut appends a withdrawal. The ledger deliberately accepts
// entries that drive the balance negative; the low-stock alert is the
// corrective signal, not a hard floor.
func (s *Service) StockOut(ctx context.Context, actorID string, req StockOutRequest) (*domain.InventoryTransaction, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	material, err := s.material(ctx, req.MaterialID)
	if err != nil {
		return nil, err
	}

	t := &domain.InventoryTransaction{
		MaterialID:      req.MaterialID,
		TransactionType: domain.StockOut,
		Quantity:        req.Quantity,
		ClientID:        req.ClientID,
		SiteAddress:     req.SiteAddress,
		AppointmentID:   req.AppointmentID,
		Remarks:         req.Remarks,
		TransactionDate: req.TransactionDate,
		CreatedBy:       actorID,
	}
	if err := s.ledger.Create(ctx, t); err != nil {
		return nil, err
	}

	s.alertIfLow(ctx, material)
	return t, nil
}

func (s *Service) GetTransaction(ctx context.Context, id string) (*domain.InventoryTransaction, error) {
	t, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *Service) ListTransactions(ctx context.Context, f repository.TransactionFilter) ([]domain.InventoryTransaction, int64, error) {
	return s.ledger.List(ctx, f)
}

// GetBalance recomputes one material's balance from the log.
func (s *Service) GetBalance(ctx context.Context, materialID string) (*domain.StockBalance, error) {
	material, err := s.material(ctx, materialID)
	if err != nil {
		return nil, err
	}

	rows, err := s.ledger.Balances(ctx, materialID)
	if err != nil {
		return nil, err
	}

	var row repository.BalanceRow
	if len(rows) > 0 {
		row = rows[0]
	}
	b := balanceOf(material, row)
	return &b, nil
}

// ListBalances projects every non-deleted material, including those
// with no ledger entries yet, which report a zero balance.
func (s *Service) ListBalances(ctx context.Context, lowOnly bool) ([]domain.StockBalance, error) {
	materials, err := s.materials.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.ledger.Balances(ctx, "")
	if err != nil {
		return nil, err
	}

	byMaterial := make(map[string]repository.BalanceRow, len(rows))
	for _, r := range rows {
		byMaterial[r.MaterialID] = r
	}

	out := make([]domain.StockBalance, 0, len(materials))
	for i := range materials {
		b := balanceOf(&materials[i], byMaterial[materials[i].ID])
		if lowOnly && !b.IsLowStock {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Service) Usage(ctx context.Context, from, to time.Time) ([]repository.UsageRow, error) {
	return s.ledger.Usage(ctx, from, to)
}

func (s *Service) material(ctx context.Context, id string) (*domain.Material, error) {
	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *Service) alertIfLow(ctx context.Context, material *domain.Material) {
	if s.events == nil || material.ReorderLevel == nil {
		return
	}
	b, err := s.GetBalance(ctx, material.ID)
	if err != nil || !b.IsLowStock {
		return
	}
	s.events.Publish(notify.EventLowStock, map[string]any{
		"materialId":   material.ID,
		"materialName": material.Name,
		"currentStock": b.CurrentStock,
		"reorderLevel": *material.ReorderLevel,
	})
}

func balanceOf(m *domain.Material, row repository.BalanceRow) domain.StockBalance {
	current := row.TotalIn - row.TotalOut
	low := m.ReorderLevel != nil && current < int64(*m.ReorderLevel)
	return domain.StockBalance{
		MaterialID:   m.ID,
		MaterialName: m.Name,
		Unit:         m.Unit,
		TotalIn:      row.TotalIn,
		TotalOut:     row.TotalOut,
		CurrentStock: current,
		ReorderLevel: m.ReorderLevel,
		IsLowStock:   low,
	}
}
