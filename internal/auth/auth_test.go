package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIssuerRoundTrip(t *testing.T) {
	issuer, err := NewIssuer("test-secret", WithIssuerName("test-issuer"))
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	token, expires, err := issuer.Issue(Profile{ID: "42", Username: "admin", Email: "a@example.com", Role: "Admin"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expected future expiration, got %v", expires)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := claims.Profile()
	if p.ID != "42" || p.Username != "admin" || p.Role != "admin" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if claims.Issuer != "test-issuer" {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
}

func TestIssuerRejectsForeignAndExpiredTokens(t *testing.T) {
	a, _ := NewIssuer("secret-a")
	b, _ := NewIssuer("secret-b")
	token, _, err := a.Issue(Profile{ID: "1", Username: "admin"}, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}

	past := time.Now().Add(-2 * time.Hour)
	old, _ := NewIssuer("secret-a", WithClock(func() time.Time { return past }))
	stale, _, err := old.Issue(Profile{ID: "1", Username: "admin"}, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := a.Parse(stale); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
	if _, err := a.Parse("  "); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for blank token, got %v", err)
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer(" "); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := ContextWithProfile(context.Background(), Profile{ID: "user-7", Username: "ops", Role: "Admin"})
	id, ok := UserIDFromContext(ctx)
	if !ok || id != "user-7" {
		t.Fatalf("unexpected user id: %s, ok=%v", id, ok)
	}
	if !HasRole(ctx, "admin") || HasRole(ctx, "viewer") {
		t.Fatalf("unexpected roles: %v", RolesFromContext(ctx))
	}
	p, ok := ProfileFromContext(ctx)
	if !ok || p.Username != "ops" {
		t.Fatalf("profile missing: %+v", p)
	}
	if _, ok := TokenFromContext(ctx); ok {
		t.Fatalf("token should be absent")
	}
	ctx = ContextWithToken(ctx, "abc")
	if tok, ok := TokenFromContext(ctx); !ok || tok != "abc" {
		t.Fatalf("token not stored: %q", tok)
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := CheckPassword(hash, "password"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := CheckPassword("", "password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty hash, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	for raw, want := range map[string]Mode{"stub": ModeStub, " API ": ModeAPI} {
		got, err := ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", raw, got, err)
		}
	}
	for _, raw := range []string{"", "mock", "both"} {
		if _, err := ParseMode(raw); !errors.Is(err, ErrUnknownMode) {
			t.Fatalf("ParseMode(%q) should fail, got %v", raw, err)
		}
	}
}
