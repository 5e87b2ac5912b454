package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"fieldops/internal/domain"
	"fieldops/internal/repository"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type memUsers struct {
	mu    sync.Mutex
	items map[string]*domain.User
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) UpdateFields(_ context.Context, id string, updates map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range updates {
		switch k {
		case "failed_login_attempts":
			u.FailedLoginAttempts = v.(int)
		case "locked_until":
			if v == nil {
				u.LockedUntil = nil
			} else {
				t := v.(time.Time)
				u.LockedUntil = &t
			}
		case "password_hash":
			u.PasswordHash = v.(string)
		}
	}
	return nil
}

// memTokens mirrors the SQL store's rotation semantics, including
// family-wide revocation on reuse.
type memTokens struct {
	mu     sync.Mutex
	nextID int64
	items  map[string]*domain.RefreshToken
}

func newMemTokens() *memTokens {
	return &memTokens{items: map[string]*domain.RefreshToken{}}
}

func (m *memTokens) Create(_ context.Context, t *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	t.CreatedAt = time.Now()
	cp := *t
	m.items[t.TokenHash] = &cp
	return nil
}

func (m *memTokens) GetByHash(_ context.Context, hash string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[hash]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTokens) RevokeFamily(_ context.Context, familyID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.items {
		if t.FamilyID == familyID && t.RevokedAt == nil {
			at := now
			t.RevokedAt = &at
		}
	}
	return nil
}

func (m *memTokens) Rotate(_ context.Context, currentHash string, next *domain.RefreshToken, now time.Time) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.items[currentHash]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if !current.ExpiresAt.After(now) {
		return nil, gorm.ErrRecordNotFound
	}
	if current.UsedAt != nil || current.RevokedAt != nil {
		for _, t := range m.items {
			if t.FamilyID == current.FamilyID && t.RevokedAt == nil {
				at := now
				t.RevokedAt = &at
			}
		}
		return nil, repository.ErrTokenReused
	}

	at := now
	current.UsedAt = &at
	current.RevokedAt = &at

	m.nextID++
	next.ID = m.nextID
	next.UserID = current.UserID
	next.FamilyID = current.FamilyID
	next.RotatedFrom = &current.ID
	next.CreatedAt = now
	cp := *next
	m.items[next.TokenHash] = &cp

	ret := *current
	return &ret, nil
}

type stubJWT struct{}

func (stubJWT) GenerateToken(userID, role string) (string, error) {
	return "jwt:" + userID + ":" + role, nil
}

func newAuthService(t *testing.T) (*Service, *memUsers, *memTokens) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	assert.NoError(t, err)

	users := &memUsers{items: map[string]*domain.User{
		"u-1": {
			ID:           "u-1",
			Name:         "Admin",
			Email:        "admin@example.com",
			PasswordHash: string(hash),
			Role:         domain.RoleAdmin,
		},
	}}
	tokens := newMemTokens()
	svc := NewService(users, tokens, stubJWT{}, "test-pepper", 7*24*time.Hour)
	return svc, users, tokens
}

func TestLoginSuccess(t *testing.T) {
	svc, _, _ := newAuthService(t)

	res, err := svc.Login(context.Background(), LoginRequest{
		Email: "Admin@Example.com", Password: "correct-horse",
	}, "go-test", "127.0.0.1")
	assert.NoError(t, err)
	assert.Equal(t, "jwt:u-1:ADMIN", res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "u-1", res.User.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, users, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email: "admin@example.com", Password: "wrong",
	}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	u, _ := users.GetByID(context.Background(), "u-1")
	assert.Equal(t, 1, u.FailedLoginAttempts)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email: "nobody@example.com", Password: "whatever",
	}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginLockoutAfterFiveFailures(t *testing.T) {
	svc, users, _ := newAuthService(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "wrong"}, "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "wrong"}, "", "")
	assert.ErrorIs(t, err, ErrAccountLocked)

	// locked even with the correct password
	_, err = svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "correct-horse"}, "", "")
	assert.ErrorIs(t, err, ErrAccountLocked)

	// lockout expires
	past := time.Now().Add(-time.Minute)
	users.items["u-1"].LockedUntil = &past

	res, err := svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "correct-horse"}, "", "")
	assert.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)

	u, _ := users.GetByID(ctx, "u-1")
	assert.Equal(t, 0, u.FailedLoginAttempts)
	assert.Nil(t, u.LockedUntil)
}

func TestRefreshRotation(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "correct-horse"}, "", "")
	assert.NoError(t, err)

	first, err := svc.Refresh(ctx, login.RefreshToken, "", "")
	assert.NoError(t, err)
	assert.NotEmpty(t, first.AccessToken)
	assert.NotEqual(t, login.RefreshToken, first.RefreshToken)

	// the rotated-out token is dead
	_, err = svc.Refresh(ctx, login.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrTokenReused)

	// reuse detection kills the whole family, including the successor
	_, err = svc.Refresh(ctx, first.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrTokenReused)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, err := svc.Refresh(context.Background(), "no-such-token", "", "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogoutRevokesFamily(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "correct-horse"}, "", "")
	assert.NoError(t, err)

	assert.NoError(t, svc.Logout(ctx, login.RefreshToken))

	_, err = svc.Refresh(ctx, login.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrTokenReused)

	// logging out an unknown token is a no-op
	assert.NoError(t, svc.Logout(ctx, "already-gone"))
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, "u-1", ChangePasswordRequest{
		CurrentPassword: "wrong", NewPassword: "brand-new-secret",
	})
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = svc.ChangePassword(ctx, "u-1", ChangePasswordRequest{
		CurrentPassword: "correct-horse", NewPassword: "brand-new-secret",
	})
	assert.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "correct-horse"}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "brand-new-secret"}, "", "")
	assert.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
}

func TestMe(t *testing.T) {
	svc, _, _ := newAuthService(t)

	u, err := svc.Me(context.Background(), "u-1")
	assert.NoError(t, err)
	assert.Equal(t, "admin@example.com", u.Email)

	_, err = svc.Me(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
