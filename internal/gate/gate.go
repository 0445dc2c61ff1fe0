// Package gate implements the request-time access decision: accept a valid
// access token, rotate a merely-expired one, reject everything else.
package gate

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"authplane/internal/auth"
	"authplane/internal/security"
)

// Verifier validates an access token and returns its claims.
type Verifier interface {
	Verify(token string) (*security.Claims, error)
}

// Rotator exchanges an expired access token for a fresh one.
type Rotator interface {
	Rotate(ctx context.Context, expiredAccessToken string) (*auth.Result, error)
}

// Grant is a successful access decision. When the presented token was expired
// and rotation succeeded, RefreshedToken carries the replacement for the
// transport layer to hand back to the client.
type Grant struct {
	Claims          *security.Claims
	RefreshedToken  string
	RefreshedExpiry time.Time
}

// Refreshed reports whether this grant carries a replacement access token.
func (g *Grant) Refreshed() bool { return g.RefreshedToken != "" }

// Gate decides whether a presented access token grants the call.
type Gate struct {
	verifier Verifier
	rotator  Rotator
}

// New returns a Gate using the given verifier and rotator.
func New(verifier Verifier, rotator Rotator) *Gate {
	return &Gate{verifier: verifier, rotator: rotator}
}

// Check evaluates the presented token. An empty or invalid token is rejected
// without a rotation attempt. An expired token triggers one rotation attempt;
// if rotation is denied, the original expiry error is returned so the caller
// cannot tell why rotation failed.
func (g *Gate) Check(ctx context.Context, token string) (*Grant, error) {
	if token == "" {
		return nil, security.ErrTokenInvalid
	}

	claims, verifyErr := g.verifier.Verify(token)
	if verifyErr == nil {
		return &Grant{Claims: claims}, nil
	}
	if !errors.Is(verifyErr, security.ErrTokenExpired) {
		return nil, verifyErr
	}

	res, err := g.rotator.Rotate(ctx, token)
	if err != nil {
		return nil, verifyErr
	}
	return &Grant{
		Claims: &security.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: res.User.ID},
			Email:            res.User.Email,
			Role:             res.User.Role,
		},
		RefreshedToken:  res.AccessToken,
		RefreshedExpiry: res.AccessExpiresAt,
	}, nil
}
