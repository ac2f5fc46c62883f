package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wordcheck.org/internal/audit"
	"wordcheck.org/internal/auth"
	"wordcheck.org/internal/obs"
	"wordcheck.org/internal/records"
)

// userRecord is a row of the users collection. Password is the plaintext
// field older db.json files carry; new users only get PasswordHash.
type userRecord struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	PasswordHash string `json:"passwordHash,omitempty"`
	Password     string `json:"password,omitempty"`
}

func (u userRecord) profile() auth.Profile {
	return auth.Profile{
		ID:       strconv.FormatInt(u.ID, 10),
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

func (u userRecord) checkPassword(password string) error {
	if u.PasswordHash != "" {
		return auth.CheckPassword(u.PasswordHash, password)
	}
	if u.Password != "" && subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1 {
		return nil
	}
	return auth.ErrInvalidCredentials
}

// wireUser matches the login response of the console's v1 adapter, which
// expects a numeric id.
type wireUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  wireUser `json:"user"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.findUser(r.Context(), creds.Username)
	if err == nil {
		err = user.checkPassword(creds.Password)
	}
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			storeError(w, r, err, auth.MsgInvalidCredentials)
			return
		}
		obs.ObserveLogin("failure")
		_ = audit.LogEvent(r.Context(), audit.EventLoginFailed, map[string]any{"username": creds.Username})
		writeError(w, r, http.StatusUnauthorized, auth.MsgInvalidCredentials)
		return
	}

	token, expires, err := a.issuer.Issue(user.profile(), a.tokenTTL)
	if err != nil {
		obs.Error("token issue failed", err, map[string]any{"username": user.Username})
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	obs.ObserveLogin("success")
	ctx := auth.ContextWithProfile(r.Context(), user.profile())
	_ = audit.LogEvent(ctx, audit.EventLogin, map[string]any{"expires_at": expires.Format(time.RFC3339)})

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  wireUser{ID: user.ID, Username: user.Username, Email: user.Email, Role: user.Role},
	})
}

// logout is stateless: tokens are not revoked, the call is only audited.
func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if token, err := extractBearerToken(r.Header.Get(authHeader)); err == nil {
		if claims, err := a.issuer.Parse(token); err == nil {
			ctx = auth.ContextWithProfile(ctx, claims.Profile())
		}
	}
	_ = audit.LogEvent(ctx, audit.EventLogout, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.ProfileFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := strconv.ParseInt(p.ID, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusOK, p)
		return
	}
	rec, err := a.records.Get(r.Context(), collUsers, id)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			writeError(w, r, http.StatusUnauthorized, "user no longer exists")
			return
		}
		storeError(w, r, err, "user not found")
		return
	}
	u, err := records.Decode[userRecord](rec)
	if err != nil {
		storeError(w, r, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u.profile())
}

func (a *API) findUser(ctx context.Context, username string) (userRecord, error) {
	if username == "" {
		return userRecord{}, auth.ErrInvalidCredentials
	}
	recs, err := a.records.List(ctx, collUsers)
	if err != nil {
		return userRecord{}, err
	}
	users, err := records.DecodeAll[userRecord](recs)
	if err != nil {
		return userRecord{}, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return userRecord{}, auth.ErrInvalidCredentials
}

// SeedAdmin creates the admin user when the users collection is empty. It
// reports whether a user was created.
func SeedAdmin(ctx context.Context, store records.Store, username, password, email string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, errors.New("seed admin: username and password are required")
	}
	existing, err := store.List(ctx, collUsers)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	rec, err := records.Encode(userRecord{Username: username, Email: email, Role: "admin", PasswordHash: hash})
	if err != nil {
		return false, err
	}
	if _, err := store.Create(ctx, collUsers, rec); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return true, nil
}
