// Package otp issues and verifies the one-time codes that gate the
// appointment and worker-visit flows. There is no separate code store:
// the package operates on a State snapshot read from the subject row and
// returns the next State for the caller to persist.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	CodeLength            = 6
	DefaultTTL            = 24 * time.Hour
	DefaultResendCooldown = 60 * time.Second
)

// State is the OTP snapshot carried on a subject row. Code, SentAt and
// ExpiresAt are all nil or all set.
type State struct {
	Code       *string
	SentAt     *time.Time
	ExpiresAt  *time.Time
	Attempts   int
	VerifiedAt *time.Time
}

func (s State) Issued() bool   { return s.Code != nil }
func (s State) Verified() bool { return s.VerifiedAt != nil }

type Issuer struct {
	sender      Sender
	ttl         time.Duration
	cooldown    time.Duration
	maxAttempts int // 0 means no ceiling
	now         func() time.Time
}

type Option func(*Issuer)

func WithTTL(d time.Duration) Option            { return func(i *Issuer) { i.ttl = d } }
func WithResendCooldown(d time.Duration) Option { return func(i *Issuer) { i.cooldown = d } }
func WithMaxAttempts(n int) Option              { return func(i *Issuer) { i.maxAttempts = n } }
func WithClock(now func() time.Time) Option     { return func(i *Issuer) { i.now = now } }

func NewIssuer(sender Sender, opts ...Option) *Issuer {
	i := &Issuer{
		sender:   sender,
		ttl:      DefaultTTL,
		cooldown: DefaultResendCooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue generates a fresh code for the subject and dispatches it to every
// destination. A new code always supersedes the old one entirely: expiry
// and attempts are reset. Delivery failures are logged, never surfaced —
// issuance must not block on the messaging gateway.
func (i *Issuer) Issue(ctx context.Context, subjectID string, cur State, destinations ...string) (State, error) {
	if cur.Verified() {
		return State{}, ErrAlreadyVerified
	}

	code, err := generateCode()
	if err != nil {
		return State{}, err
	}

	now := i.now()
	expiresAt := now.Add(i.ttl)
	next := State{Code: &code, SentAt: &now, ExpiresAt: &expiresAt}

	i.dispatch(ctx, subjectID, code, destinations)
	return next, nil
}

// Resend re-issues a code, rejecting with RateLimitedError while the
// cooldown from the previous send is still running.
func (i *Issuer) Resend(ctx context.Context, subjectID string, cur State, destinations ...string) (State, error) {
	if cur.Verified() {
		return State{}, ErrAlreadyVerified
	}
	if cur.SentAt != nil {
		elapsed := i.now().Sub(*cur.SentAt)
		if elapsed < i.cooldown {
			return State{}, &RateLimitedError{RetryAfter: i.cooldown - elapsed}
		}
	}
	return i.Issue(ctx, subjectID, cur, destinations...)
}

// Verify checks a submitted code against the current state. Expiry is
// evaluated lazily here, not by a timer. On mismatch the returned state
// carries the incremented attempt counter for the caller to persist; on
// success the code is cleared and VerifiedAt stamped. Success happens at
// most once per subject: verifying an already-verified state fails.
func (i *Issuer) Verify(cur State, submitted string) (State, error) {
	if cur.Verified() {
		return cur, ErrAlreadyVerified
	}
	if !cur.Issued() || cur.ExpiresAt == nil {
		return cur, ErrNotIssued
	}

	now := i.now()
	if now.After(*cur.ExpiresAt) {
		return cur, ErrExpired
	}
	if i.maxAttempts > 0 && cur.Attempts >= i.maxAttempts {
		return cur, ErrAttemptsExceeded
	}

	if subtle.ConstantTimeCompare([]byte(*cur.Code), []byte(submitted)) != 1 {
		cur.Attempts++
		if i.maxAttempts > 0 && cur.Attempts >= i.maxAttempts {
			return cur, ErrAttemptsExceeded
		}
		return cur, ErrInvalidCode
	}

	return State{VerifiedAt: &now}, nil
}

func (i *Issuer) dispatch(ctx context.Context, subjectID, code string, destinations []string) {
	for _, dest := range destinations {
		dest := dest
		go func() {
			if err := i.sender.Send(context.WithoutCancel(ctx), dest, code); err != nil {
				log.Warn().Err(err).
					Str("subject_id", subjectID).
					Str("destination", dest).
					Msg("otp dispatch failed")
			}
		}()
	}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
