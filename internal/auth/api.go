package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// LoginEndpoint is the transport used by APIGateway. The resource client
// implements it; non-2xx responses must come back as errors implementing
// HTTPStatus() and ServerMessage().
type LoginEndpoint interface {
	PostLogin(ctx context.Context, creds Credentials) ([]byte, error)
	PostLogout(ctx context.Context, token string) error
}

type statusError interface {
	error
	HTTPStatus() int
	ServerMessage() string
}

// APIGateway forwards credentials to the external login endpoint.
type APIGateway struct {
	endpoint LoginEndpoint
}

var _ Gateway = (*APIGateway)(nil)

func NewAPIGateway(endpoint LoginEndpoint) *APIGateway {
	return &APIGateway{endpoint: endpoint}
}

func (g *APIGateway) Login(ctx context.Context, creds Credentials) (Grant, error) {
	body, err := g.endpoint.PostLogin(ctx, creds)
	if err != nil {
		return Grant{}, mapRejection(err)
	}
	grant, _, err := DecodeLoginResponse(body)
	if err != nil {
		return Grant{}, err
	}
	return grant, nil
}

func (g *APIGateway) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return g.endpoint.PostLogout(ctx, token)
}

func mapRejection(err error) error {
	var se statusError
	if !errors.As(err, &se) {
		return fmt.Errorf("login request: %w", err)
	}
	cause := err
	if se.HTTPStatus() == http.StatusUnauthorized {
		cause = fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return &LoginError{Message: se.ServerMessage(), Err: cause}
}
