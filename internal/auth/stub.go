package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"
)

const stubTokenTTL = 24 * time.Hour

// StubConfig holds the single credential pair accepted by StubGateway.
type StubConfig struct {
	Username string
	Password string
	Email    string
	Secret   string
}

// StubGateway accepts exactly one configured username/password pair and
// synthesizes a signed bearer token locally, without any network call.
type StubGateway struct {
	cfg     StubConfig
	issuer  *Issuer
	profile Profile
}

var _ Gateway = (*StubGateway)(nil)

// NewStubGateway validates the configuration and prepares the token issuer.
func NewStubGateway(cfg StubConfig, opts ...IssuerOption) (*StubGateway, error) {
	issuer, err := NewIssuer(cfg.Secret, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("auth: stub username and password are required")
	}
	return &StubGateway{
		cfg:    cfg,
		issuer: issuer,
		profile: Profile{
			ID:       "1",
			Username: cfg.Username,
			Email:    cfg.Email,
			Role:     "admin",
		},
	}, nil
}

func (g *StubGateway) Login(ctx context.Context, creds Credentials) (Grant, error) {
	if err := ctx.Err(); err != nil {
		return Grant{}, err
	}
	userOK := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(g.cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(g.cfg.Password)) == 1
	if !userOK || !passOK {
		return Grant{}, &LoginError{Message: MsgInvalidCredentials, Err: ErrInvalidCredentials}
	}
	token, _, err := g.issuer.Issue(g.profile, stubTokenTTL)
	if err != nil {
		return Grant{}, err
	}
	return Grant{Token: token, User: g.profile}, nil
}

// Logout has nothing to revoke for locally minted tokens.
func (g *StubGateway) Logout(ctx context.Context, token string) error {
	return nil
}
