package directory

import (
	"context"
	"errors"

	"fieldops/internal/domain"
	"fieldops/internal/pkg/validator"
	"fieldops/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service is the master-data layer behind the lifecycle managers:
// clients and their types, engineers, and materials. Deletes are soft
// so historical appointments and ledger entries keep their references.
type Service struct {
	clients   *repository.ClientRepository
	engineers *repository.EngineerRepository
	materials *repository.MaterialRepository
	users     *repository.UserRepository
}

func NewService(
	clients *repository.ClientRepository,
	engineers *repository.EngineerRepository,
	materials *repository.MaterialRepository,
	users *repository.UserRepository,
) *Service {
	return &Service{clients: clients, engineers: engineers, materials: materials, users: users}
}

// --- clients ---

func (s *Service) CreateClient(ctx context.Context, req CreateClientRequest) (*domain.Client, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, ErrValidation
	}
	c := &domain.Client{
		Name:             req.Name,
		PrimaryContact:   req.PrimaryContact,
		SecondaryContact: req.SecondaryContact,
		Address:          req.Address,
		ClientTypeID:     req.ClientTypeID,
		IsActive:         true,
	}
	if err := s.clients.Create(ctx, c); err != nil {
		return nil, mapWriteError(err)
	}
	return c, nil
}

func (s *Service) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err)
	}
	return c, nil
}

func (s *Service) ListClients(ctx context.Context, f repository.DirectoryFilter) ([]domain.Client, int64, error) {
	return s.clients.List(ctx, f)
}

func (s *Service) UpdateClient(ctx context.Context, id string, req UpdateClientRequest) (*domain.Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err)
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.PrimaryContact != nil {
		c.PrimaryContact = *req.PrimaryContact
	}
	if req.SecondaryContact != nil {
		c.SecondaryContact = req.SecondaryContact
	}
	if req.Address != nil {
		c.Address = req.Address
	}
	if req.ClientTypeID != nil {
		c.ClientTypeID = req.ClientTypeID
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}

	if err := s.clients.Update(ctx, c); err != nil {
		return nil, mapWriteError(err)
	}
	return c, nil
}

func (s *Service) DeleteClient(ctx context.Context, id string) error {
	if _, err := s.clients.GetByID(ctx, id); err != nil {
		return mapReadError(err)
	}
	return s.clients.Delete(ctx, id)
}

func (s *Service) CreateClientType(ctx context.Context, req CreateClientTypeRequest) (*domain.ClientType, error) {
	t := &domain.ClientType{Name: req.Name}
	if err := s.clients.CreateType(ctx, t); err != nil {
		return nil, mapWriteError(err)
	}
	return t, nil
}

func (s *Service) ListClientTypes(ctx context.Context) ([]domain.ClientType, error) {
	return s.clients.ListTypes(ctx)
}

// --- engineers ---

// CreateEngineer registers the directory entry and, when a password is
// supplied, a matching ENGINEER login so the person can use the app.
func (s *Service) CreateEngineer(ctx context.Context, req CreateEngineerRequest) (*domain.Engineer, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, ErrValidation
	}
	e := &domain.Engineer{
		Name:         req.Name,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		IsActive:     true,
	}
	if err := s.engineers.Create(ctx, e); err != nil {
		return nil, mapWriteError(err)
	}

	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u := &domain.User{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: string(hash),
			Role:         domain.RoleEngineer,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, mapWriteError(err)
		}
	}
	return e, nil
}

func (s *Service) GetEngineer(ctx context.Context, id string) (*domain.Engineer, error) {
	e, err := s.engineers.GetByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err)
	}
	return e, nil
}

func (s *Service) ListEngineers(ctx context.Context, f repository.DirectoryFilter) ([]domain.Engineer, int64, error) {
	return s.engineers.List(ctx, f)
}

func (s *Service) UpdateEngineer(ctx context.Context, id string, req UpdateEngineerRequest) (*domain.Engineer, error) {
	e, err := s.engineers.GetByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err)
	}

	if req.Name != nil {
		e.Name = *req.Name
	}
	if req.MobileNumber != nil {
		e.MobileNumber = *req.MobileNumber
	}
	if req.IsActive != nil {
		e.IsActive = *req.IsActive
	}

	if err := s.engineers.Update(ctx, e); err != nil {
		return nil, mapWriteError(err)
	}
	return e, nil
}

func (s *Service) DeleteEngineer(ctx context.Context, id string) error {
	if _, err := s.engineers.GetByID(ctx, id); err != nil {
		return mapReadError(err)
	}
	return s.engineers.Delete(ctx, id)
}

// --- materials ---

func (s *Service) CreateMaterial(ctx context.Context, req CreateMaterialRequest) (*domain.Material, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, ErrValidation
	}
	m := &domain.Material{
		Name:         req.Name,
		Unit:         req.Unit,
		ReorderLevel: req.ReorderLevel,
		IsActive:     true,
	}
	if err := s.materials.Create(ctx, m); err != nil {
		return nil, mapWriteError(err)
	}
	return m, nil
}

func (s *Service) GetMaterial(ctx context.Context, id string) (*domain.Material, error) {
	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err)
	}
	return m, nil
}

func (s *Service) ListMaterials(ctx context.Context, f repository.DirectoryFilter) ([]domain.Material, int64, error) {
	return s.materials.List(ctx, f)
}

func (s *Service) UpdateMaterial(ctx context.Context, id string, req UpdateMaterialRequest) (*domain.Material, error) {
	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err)
	}

	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Unit != nil {
		m.Unit = *req.Unit
	}
	if req.ReorderLevel != nil {
		m.ReorderLevel = req.ReorderLevel
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}

	if err := s.materials.Update(ctx, m); err != nil {
		return nil, mapWriteError(err)
	}
	return m, nil
}

func (s *Service) DeleteMaterial(ctx context.Context, id string) error {
	if _, err := s.materials.GetByID(ctx, id); err != nil {
		return mapReadError(err)
	}
	return s.materials.Delete(ctx, id)
}

func mapReadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
