// Package session issues the bearer tokens that identify a logged-in user.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

const issuer = "place-archive"

// Tokens signs HS256 tokens whose subject is the user id. Tokens carry no
// expiry; a session lasts until the client discards it.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	return &Tokens{secret: []byte(secret), now: time.Now}, nil
}

func (t *Tokens) Issue(userID string) (string, error) {
	if userID == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "issue session", errors.New("user id is required"))
	}
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": issuer,
		"iat": t.now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify returns the user id carried by a valid token.
func (t *Tokens) Verify(raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil || !tok.Valid {
		return "", domain.WrapError(domain.ErrUnauthorized, "verify session", fmt.Errorf("invalid token: %w", err))
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", domain.WrapError(domain.ErrUnauthorized, "verify session", errors.New("token has no subject"))
	}
	return sub, nil
}
