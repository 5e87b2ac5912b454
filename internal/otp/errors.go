package otp

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrAlreadyVerified  = errors.New("subject already verified")
	ErrNotIssued        = errors.New("no active code for subject")
	ErrExpired          = errors.New("code expired")
	ErrInvalidCode      = errors.New("code mismatch")
	ErrAttemptsExceeded = errors.New("attempt limit reached")
)

// RateLimitedError is returned when a resend is requested before the
// cooldown has elapsed. RetryAfter tells the caller how long to back off.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("resend cooldown active, retry in %ds", e.RetryAfterSeconds())
}

func (e *RateLimitedError) RetryAfterSeconds() int {
	s := int(math.Ceil(e.RetryAfter.Seconds()))
	if s < 1 {
		s = 1
	}
	return s
}
