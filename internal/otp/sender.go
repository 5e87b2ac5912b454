package otp

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Sender delivers a one-time code to a destination (mobile number). The
// real implementation is an outbound SMS/WhatsApp gateway; delivery is
// fire-and-forget from the issuer's point of view.
type Sender interface {
	Send(ctx context.Context, destination, code string) error
}

// ConsoleSender logs codes instead of delivering them. Used in local
// development and as the default when no gateway is configured.
type ConsoleSender struct{}

func (ConsoleSender) Send(_ context.Context, destination, code string) error {
	log.Info().Str("destination", destination).Str("code", code).Msg("dev otp dispatch")
	return nil
}
