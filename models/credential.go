package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthSig is a wallet-signed authentication message binding the viewer's
// identity to a specific chain. The signature itself is opaque to this SDK;
// its validity window is controlled entirely by the signer.
type AuthSig struct {
	Sig           string `json:"sig" validate:"required"`
	DerivedVia    string `json:"derivedVia"`
	SignedMessage string `json:"signedMessage" validate:"required"`
	Address       string `json:"address" validate:"required"`
}

// AuthSigs maps a chain name to the credential signed for that chain. A
// viewer may hold several concurrently when a policy spans multiple chains.
type AuthSigs map[string]*AuthSig

// AccessToken is the short-lived bearer token issued by the access-control
// network after a successful condition evaluation. It is consumed exactly
// once by origin verification and never cached.
type AccessToken string

// Claims decodes the token's JWT claims without verifying the signature.
// Signature validation is the origin's job; the claims are only used locally
// for logging and expiry sanity checks.
func (t AccessToken) Claims() (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(string(t), claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ExpiresAt returns the token's expiry, if it carries one.
func (t AccessToken) ExpiresAt() (time.Time, bool) {
	claims, err := t.Claims()
	if err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
