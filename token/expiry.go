package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// ExpiresAt reads the "exp" claim of a JWT access token without verifying
// its signature. Tokens are opaque to the client, so the result is only a
// hint; false means the token is not a JWT or carries no expiry.
func ExpiresAt(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// ExpiresWithin reports whether the token is known to expire within d.
// Tokens without a readable expiry never do.
func ExpiresWithin(raw string, d time.Duration) bool {
	exp, ok := ExpiresAt(raw)
	if !ok {
		return false
	}
	return !NowTimeFunc().Add(d).Before(exp)
}
