package auth

import (
	"context"
	"time"

	"fieldops/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateFields(ctx context.Context, id string, updates map[string]any) error
}

// TokenStore persists opaque refresh tokens; rotation and family-wide
// revocation live in the repository so they run inside one transaction.
type TokenStore interface {
	Create(ctx context.Context, t *domain.RefreshToken) error
	GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error)
	RevokeFamily(ctx context.Context, familyID string, now time.Time) error
	Rotate(ctx context.Context, currentHash string, next *domain.RefreshToken, now time.Time) (*domain.RefreshToken, error)
}
