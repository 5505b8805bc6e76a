package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryLookahead is how close to its exp claim an access token may get
// before the SDK treats it as due for renewal.
const ExpiryLookahead = 2 * time.Minute

// Claims holds the unverified payload of an access token.
//
// The payload is decoded without signature verification; the server remains
// the authority. These values must never be trusted for authorization
// decisions, only for UI display and expiry heuristics.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`

	jwt.RegisteredClaims
}

var parser = jwt.NewParser()

// Decode extracts the claims from the payload segment of a compact JWT.
// Any malformed input (wrong segment count, invalid base64, invalid JSON)
// yields (nil, false), never a partial result.
func Decode(token string) (*Claims, bool) {
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// IsExpired reports whether the token's exp claim is at or before now.
// Tokens that cannot be decoded or carry no exp claim count as expired.
func IsExpired(token string) bool {
	claims, ok := Decode(token)
	if !ok || claims.ExpiresAt == nil {
		return true
	}
	return !claims.ExpiresAt.After(time.Now())
}

// IsExpiringSoon reports whether the token expires within ExpiryLookahead.
// Undecodable tokens and tokens without an exp claim count as expiring.
func IsExpiringSoon(token string) bool {
	claims, ok := Decode(token)
	if !ok || claims.ExpiresAt == nil {
		return true
	}
	return time.Until(claims.ExpiresAt.Time) < ExpiryLookahead
}
