// Package security provides token signing/verification and password hashing.
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned by Verify when the signature is good but the token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned by Verify for every other failure: bad signature, malformed token, wrong algorithm.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the payload carried in every signed token: subject (principal id), email,
// and an optional role, plus issued-at and expiry.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// TokenSigner issues and verifies HS256-signed tokens with a shared secret.
// Issuance and verification are pure computation; the signer holds no state beyond the key.
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner returns a TokenSigner using the given shared secret.
func NewTokenSigner(secret []byte) *TokenSigner {
	return &TokenSigner{secret: secret}
}

// Issue signs a token for the given principal with an absolute expiry of now+ttl.
// Returns the token string and its expiry time.
func (s *TokenSigner) Issue(userID, email, role string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
		Role:  role,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify validates the token's signature and expiry and returns its claims.
// A token whose only defect is being past expiry yields ErrTokenExpired; callers
// use that distinction to decide whether rotation may be attempted. Any signature
// or structural defect yields ErrTokenInvalid, even if the token is also expired.
func (s *TokenSigner) Verify(tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrTokenInvalid
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}

// DecodeUnsafe extracts claims without validating the signature or expiry. It exists
// only so rotation can recover the subject of an already-expired access token; the
// result must never be used to authorize anything. Returns nil if the token cannot
// be structurally decoded.
func (s *TokenSigner) DecodeUnsafe(tokenString string) *Claims {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, &claims); err != nil {
		return nil
	}
	return &claims
}
