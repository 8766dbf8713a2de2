package helpers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionIssuer = "festora"

var ErrInvalidSession = errors.New("invalid or expired session")

// IssueSessionToken signs an HS256 token binding the wallet address until expiresAt.
func IssueSessionToken(secret []byte, address string, issuedAt, expiresAt time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("session secret not set")
	}
	claims := SessionClaims{
		Address: strings.ToLower(address),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    sessionIssuer,
			Subject:   strings.ToLower(address),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

func ValidateSessionToken(secret []byte, tokenStr string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Address == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

func StringTrim(s string) string {
	return strings.TrimSpace(s)
}

// ParseEventID parses a positive ledger event id from a path segment.
func ParseEventID(raw string) (int64, error) {
	id, err := strconv.ParseInt(StringTrim(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid event id %q", raw)
	}
	return id, nil
}
