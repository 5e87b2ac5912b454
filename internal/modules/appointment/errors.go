package appointment

import "errors"

var (
	ErrNotFound         = errors.New("appointment not found")
	ErrClientNotFound   = errors.New("client not found")
	ErrEngineerNotFound = errors.New("engineer not found")
	ErrValidation       = errors.New("validation error")
	ErrInvalidState     = errors.New("transition not allowed from current state")
	ErrConflict         = errors.New("appointment was modified concurrently")
	ErrNoDestination    = errors.New("no mobile number available for otp delivery")
)
