package api

import (
	"net/http"

	"github.com/go-chi/jwtauth"
)

// Auth guards the API with JWT verification when a secret is configured.
// With an empty secret the handler chain passes through untouched.
func Auth(secret string) func(http.Handler) http.Handler {
	if secret == "" {
		return func(next http.Handler) http.Handler { return next }
	}

	tokenAuth := jwtauth.New("HS256", []byte(secret), nil)
	verifier := jwtauth.Verifier(tokenAuth)

	return func(next http.Handler) http.Handler {
		return verifier(jwtauth.Authenticator(next))
	}
}
