package header

import (
	"github.com/golang-jwt/jwt/v5"
)

// BearerClaims structurally decodes a over a Bearer token's claims without
// verifying its signature — Relic's core never makes authentication
// decisions (spec Non-goals exclude auth schemes beyond header parsing);
// this only lets middleware built on top of the header layer inspect
// "exp"/"sub"/etc. for logging or routing hints before handing the token
// to a real verifier.
func (a Authorization) BearerClaims() (jwt.MapClaims, error) {
	if a.Scheme != "Bearer" {
		return nil, errFn("Authorization", "not a Bearer credential")
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(a.Token, claims); err != nil {
		return nil, errFn("Authorization", "malformed bearer JWT: "+err.Error())
	}
	return claims, nil
}
