package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"wordcheck.org/internal/auth"
	"wordcheck.org/internal/obs"
)

// Session is the client-held record of the current identity.
// IsAuthenticated is true exactly when Token is non-empty.
type Session struct {
	Token           string
	User            *auth.Profile
	IsAuthenticated bool
	Loading         bool
	Error           string
}

// Store owns the Session and its durable mirror. Durable storage is read by
// Rehydrate and written only from Login and Logout.
type Store struct {
	mu         sync.Mutex
	kv         KV
	gateway    auth.Gateway
	state      Session
	rehydrated bool
}

// NewStore returns an empty, unauthenticated store. Call Rehydrate once at
// startup to pick up a persisted session.
func NewStore(kv KV, gateway auth.Gateway) *Store {
	return &Store{kv: kv, gateway: gateway}
}

// Rehydrate loads the persisted token and profile. A missing token leaves
// the session unauthenticated and performs no network call. Only the first
// call reads storage.
func (s *Store) Rehydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rehydrated {
		return nil
	}
	s.rehydrated = true

	token, ok, err := s.kv.Get(ctx, KeyToken)
	if err != nil {
		return fmt.Errorf("load session token: %w", err)
	}
	if !ok || token == "" {
		s.state = Session{}
		return nil
	}
	next := Session{Token: token, IsAuthenticated: true}

	raw, ok, err := s.kv.Get(ctx, KeyUser)
	if err != nil {
		return fmt.Errorf("load session user: %w", err)
	}
	if ok && raw != "" {
		var p auth.Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			obs.Warn("session user unreadable", map[string]any{"error": err.Error()})
		} else {
			next.User = &p
		}
	}
	s.state = next
	return nil
}

// Login authenticates through the active gateway. On success the token and
// profile are persisted; on failure the previous session is discarded and
// Error holds the operator-facing message.
func (s *Store) Login(ctx context.Context, creds auth.Credentials) (auth.Profile, error) {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()

	grant, err := s.gateway.Login(ctx, creds)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fail(ctx, auth.UserMessage(err))
		return auth.Profile{}, err
	}

	user := grant.User
	s.state = Session{Token: grant.Token, User: &user, IsAuthenticated: true}
	if err := s.sync(ctx); err != nil {
		s.fail(ctx, auth.MsgLoginFailed)
		return auth.Profile{}, fmt.Errorf("persist session: %w", err)
	}
	return user, nil
}

func (s *Store) fail(ctx context.Context, msg string) {
	s.state = Session{Error: msg}
	if err := s.sync(ctx); err != nil {
		obs.Error("evict session after failed login", err, nil)
	}
}

// Logout clears the session and evicts durable storage regardless of the
// current state. The gateway is told about the logout afterwards; its
// failure is logged and never restores the session.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	token := s.state.Token
	s.state = Session{}
	err := s.sync(ctx)
	s.mu.Unlock()

	if token != "" && s.gateway != nil {
		if gerr := s.gateway.Logout(ctx, token); gerr != nil {
			obs.Warn("remote logout failed", map[string]any{"error": gerr.Error()})
		}
	}
	if err != nil {
		return fmt.Errorf("evict session: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state
	if s.state.User != nil {
		u := *s.state.User
		out.User = &u
	}
	return out
}

// Token returns the bearer token, empty when signed out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// IsAuthenticated reports whether a token is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsAuthenticated
}

// sync mirrors the in-memory state to durable storage. Caller holds s.mu.
func (s *Store) sync(ctx context.Context) error {
	if !s.state.IsAuthenticated {
		return s.kv.Delete(ctx, KeyToken, KeyUser)
	}
	if s.state.User == nil {
		return errors.New("authenticated session without user")
	}
	user, err := json.Marshal(s.state.User)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KeyToken, s.state.Token); err != nil {
		return err
	}
	return s.kv.Set(ctx, KeyUser, string(user))
}
