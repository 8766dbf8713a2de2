package helpers

import "github.com/golang-jwt/jwt/v5"

// SessionClaims identify the wallet a session token was issued for.
type SessionClaims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// GetSafeAddress returns the session address, or "" for a nil session.
func (sc *SessionClaims) GetSafeAddress() string {
	if sc == nil {
		return ""
	}
	return sc.Address
}
