package workervisit

import "errors"

var (
	ErrNotFound         = errors.New("worker visit not found")
	ErrClientNotFound   = errors.New("client not found")
	ErrEngineerNotFound = errors.New("engineer not found")
	ErrValidation       = errors.New("validation error")
	ErrInvalidState     = errors.New("transition not allowed from current state")
	ErrConflict         = errors.New("worker visit was modified concurrently")
	ErrNoDestination    = errors.New("no mobile number available for otp delivery")
)
