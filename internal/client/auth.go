package client

import (
	"context"
	"net/http"

	"wordcheck.org/internal/auth"
)

var _ auth.LoginEndpoint = (*Client)(nil)

// PostLogin submits credentials and returns the raw response body; decoding
// is left to the versioned login adapter.
func (c *Client) PostLogin(ctx context.Context, creds auth.Credentials) ([]byte, error) {
	req, err := c.jsonRequest(http.MethodPost, "/auth/login", creds)
	if err != nil {
		return nil, err
	}
	return c.raw(ctx, req)
}

// PostLogout revokes token on the server.
func (c *Client) PostLogout(ctx context.Context, token string) error {
	req, _ := c.jsonRequest(http.MethodPost, "/auth/logout", nil)
	req.token = token
	return c.do(ctx, req, nil)
}

// Me returns the profile the server associates with the current token.
func (c *Client) Me(ctx context.Context) (auth.Profile, error) {
	req, _ := c.jsonRequest(http.MethodGet, "/auth/me", nil)
	var p auth.Profile
	if err := c.do(ctx, req, &p); err != nil {
		return auth.Profile{}, err
	}
	return p, nil
}
