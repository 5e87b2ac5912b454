package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"fieldops/internal/domain"
	"fieldops/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	maxFailedLoginAttempts = 5
	lockoutDuration        = 15 * time.Minute
	refreshTokenBytes      = 32
)

type jwtService interface {
	GenerateToken(userID, role string) (string, error)
}

// Service handles login, rotating refresh tokens and password changes.
// Refresh tokens are opaque random strings stored only as peppered
// hashes; reuse of a rotated token revokes the whole family.
type Service struct {
	users      UserRepository
	tokens     TokenStore
	jwt        jwtService
	pepper     string
	refreshTTL time.Duration
	now        func() time.Time
}

func NewService(users UserRepository, tokens TokenStore, jwt jwtService, pepper string, refreshTTL time.Duration) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		jwt:        jwt,
		pepper:     pepper,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (s *Service) Login(ctx context.Context, req LoginRequest, userAgent, ip string) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		attempts := user.FailedLoginAttempts + 1
		updates := map[string]any{"failed_login_attempts": attempts}
		if attempts >= maxFailedLoginAttempts {
			updates["locked_until"] = now.Add(lockoutDuration)
			updates["failed_login_attempts"] = 0
		}
		if err := s.users.UpdateFields(ctx, user.ID, updates); err != nil {
			return nil, err
		}
		if attempts >= maxFailedLoginAttempts {
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		if err := s.users.UpdateFields(ctx, user.ID, map[string]any{
			"failed_login_attempts": 0,
			"locked_until":          nil,
		}); err != nil {
			return nil, err
		}
	}

	access, err := s.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	plain, err := s.issueRefreshToken(ctx, user.ID, uuid.NewString(), userAgent, ip)
	if err != nil {
		return nil, err
	}

	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	return &LoginResponse{User: user, AccessToken: access, RefreshToken: plain}, nil
}

func (s *Service) Refresh(ctx context.Context, token, userAgent, ip string) (*RefreshResponse, error) {
	plain, err := generateOpaqueToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	next := &domain.RefreshToken{
		TokenHash: s.hash(plain),
		JTI:       uuid.NewString(),
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if userAgent != "" {
		next.UserAgent = &userAgent
	}
	if ip != "" {
		next.IP = &ip
	}

	current, err := s.tokens.Rotate(ctx, s.hash(token), next, now)
	if err != nil {
		if errors.Is(err, repository.ErrTokenReused) {
			return nil, ErrTokenReused
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, current.UserID)
	if err != nil {
		return nil, err
	}

	access, err := s.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{AccessToken: access, RefreshToken: plain}, nil
}

// Logout revokes the token's whole family so every descendant of the
// session dies with it.
func (s *Service) Logout(ctx context.Context, token string) error {
	current, err := s.tokens.GetByHash(ctx, s.hash(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.tokens.RevokeFamily(ctx, current.FamilyID, s.now())
}

func (s *Service) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdateFields(ctx, userID, map[string]any{"password_hash": string(hash)})
}

func (s *Service) issueRefreshToken(ctx context.Context, userID, familyID, userAgent, ip string) (string, error) {
	plain, err := generateOpaqueToken()
	if err != nil {
		return "", err
	}

	t := &domain.RefreshToken{
		UserID:    userID,
		TokenHash: s.hash(plain),
		JTI:       uuid.NewString(),
		FamilyID:  familyID,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	if userAgent != "" {
		t.UserAgent = &userAgent
	}
	if ip != "" {
		t.IP = &ip
	}

	if err := s.tokens.Create(ctx, t); err != nil {
		return "", err
	}
	return plain, nil
}

func (s *Service) hash(token string) string {
	mac := hmac.New(sha256.New, []byte(s.pepper))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func generateOpaqueToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
