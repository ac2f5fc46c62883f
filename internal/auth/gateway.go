package auth

import (
	"context"
	"fmt"
	"strings"
)

// Gateway validates credentials and yields a session token plus profile.
// Both implementations produce the same Grant shape so callers never need
// to know which one is active.
type Gateway interface {
	Login(ctx context.Context, creds Credentials) (Grant, error)
	Logout(ctx context.Context, token string) error
}

// Mode selects the active Gateway implementation.
type Mode string

const (
	ModeStub Mode = "stub"
	ModeAPI  Mode = "api"
)

// ParseMode accepts "stub" or "api". There is no default on purpose: an
// empty value is an error.
func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeStub, ModeAPI:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownMode, raw, ModeStub, ModeAPI)
	}
}
