package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SchemaVersion identifies a known login response layout.
type SchemaVersion string

const (
	// SchemaV1 is {"token": "...", "user": {...}}.
	SchemaV1 SchemaVersion = "v1"
	// SchemaV2 is {"access_token": "...", "token_type": "Bearer", "user": {...}}.
	SchemaV2 SchemaVersion = "v2"
)

type wireProfile struct {
	ID       profileID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
}

type loginResponseV1 struct {
	Token string       `json:"token"`
	User  *wireProfile `json:"user"`
}

type loginResponseV2 struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *wireProfile `json:"user"`
}

// profileID accepts a JSON string or integer. Anything else is rejected.
type profileID string

func (p *profileID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("user id is missing")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = profileID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("user id must be a string or integer, got %s", data)
	}
	*p = profileID(strconv.FormatInt(n, 10))
	return nil
}

// DecodeLoginResponse maps a login response body onto a Grant. The layout is
// detected from its token key; unknown or ambiguous layouts fail with
// ErrUnrecognizedResponse instead of falling back to defaults.
func DecodeLoginResponse(body []byte) (Grant, SchemaVersion, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return Grant{}, "", fmt.Errorf("%w: %v", ErrUnrecognizedResponse, err)
	}
	_, hasToken := keys["token"]
	_, hasAccess := keys["access_token"]

	switch {
	case hasToken && hasAccess:
		return Grant{}, "", fmt.Errorf("%w: both token and access_token present", ErrUnrecognizedResponse)
	case hasToken:
		var resp loginResponseV1
		if err := json.Unmarshal(body, &resp); err != nil {
			return Grant{}, "", fmt.Errorf("%w: %v", ErrUnrecognizedResponse, err)
		}
		g, err := buildGrant(resp.Token, resp.User)
		return g, SchemaV1, err
	case hasAccess:
		var resp loginResponseV2
		if err := json.Unmarshal(body, &resp); err != nil {
			return Grant{}, "", fmt.Errorf("%w: %v", ErrUnrecognizedResponse, err)
		}
		if !strings.EqualFold(resp.TokenType, "bearer") {
			return Grant{}, "", fmt.Errorf("%w: token_type %q", ErrUnrecognizedResponse, resp.TokenType)
		}
		g, err := buildGrant(resp.AccessToken, resp.User)
		return g, SchemaV2, err
	default:
		return Grant{}, "", fmt.Errorf("%w: no token field", ErrUnrecognizedResponse)
	}
}

func buildGrant(token string, user *wireProfile) (Grant, error) {
	if strings.TrimSpace(token) == "" {
		return Grant{}, fmt.Errorf("%w: empty token", ErrUnrecognizedResponse)
	}
	if user == nil {
		return Grant{}, fmt.Errorf("%w: user missing", ErrUnrecognizedResponse)
	}
	if strings.TrimSpace(user.Username) == "" || user.ID == "" {
		return Grant{}, fmt.Errorf("%w: user id/username missing", ErrUnrecognizedResponse)
	}
	return Grant{
		Token: token,
		User: Profile{
			ID:       string(user.ID),
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		},
	}, nil
}
