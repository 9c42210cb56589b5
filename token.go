package main

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType names the two token kinds issued by the service. The name is
// embedded as the JWT subject so a refresh token can never stand in for an
// access token (and vice versa).
type TokenType string

const (
	AccessToken  TokenType = "ACCESS"
	RefreshToken TokenType = "REFRESH"
)

// TokenPolicy carries the signing material and validity window for one token
// type. Built once from config at startup and never mutated.
type TokenPolicy struct {
	Secret   []byte
	Validity time.Duration
}

// TokenCodec signs and verifies compact HS256 tokens. It holds only the
// immutable per-type policies; Sign and Verify are safe for concurrent use.
type TokenCodec struct {
	policies map[TokenType]TokenPolicy
}

func NewTokenCodec(access, refresh TokenPolicy) *TokenCodec {
	return &TokenCodec{policies: map[TokenType]TokenPolicy{
		AccessToken:  access,
		RefreshToken: refresh,
	}}
}

type tokenClaims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Sign builds and signs a token of the given type for userID. The expiry is
// issuedAt plus the type's validity window.
func (c *TokenCodec) Sign(tokenType TokenType, userID int64, issuedAt time.Time) (string, error) {
	policy, ok := c.policies[tokenType]
	if !ok {
		return "", errInvalidToken
	}
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(tokenType),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(policy.Validity)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(policy.Secret)
}

// Verify parses the token with the stated type's secret and returns the
// embedded user id. It fails with errInvalidToken for malformed or tampered
// input, errTokenExpired when the signature is fine but exp has passed, and
// errUnauthorizedToken when the subject does not match the expected type.
func (c *TokenCodec) Verify(tokenType TokenType, tokenString string) (int64, error) {
	policy, ok := c.policies[tokenType]
	if !ok || tokenString == "" {
		return 0, errInvalidToken
	}
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return policy.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, errTokenExpired
		}
		// The types sign with different secrets, so a token of the other
		// type fails the signature check here. Report it as a type
		// mismatch, not a forgery.
		if c.signedForOtherType(tokenType, tokenString) {
			return 0, errUnauthorizedToken
		}
		return 0, errInvalidToken
	}
	if !token.Valid {
		return 0, errInvalidToken
	}
	if claims.Subject != string(tokenType) {
		return 0, errUnauthorizedToken
	}
	return claims.UserID, nil
}

// signedForOtherType reports whether the token carries a valid signature and
// matching subject under some other token type's policy. Expiry is ignored;
// only the provenance of the token matters here.
func (c *TokenCodec) signedForOtherType(tokenType TokenType, tokenString string) bool {
	for other, policy := range c.policies {
		if other == tokenType {
			continue
		}
		claims := &tokenClaims{}
		_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return policy.Secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
		if err == nil && claims.Subject == string(other) {
			return true
		}
	}
	return false
}
