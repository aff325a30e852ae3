package auth

import (
	"net/http"
	"strings"
)

// CookieName is the cookie signin sets and the middleware falls back to.
const CookieName = "token"

// TokenFromRequest extracts the bearer token from the Authorization header,
// with or without the "Bearer " prefix, falling back to the token cookie.
func TokenFromRequest(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return h
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Middleware rejects requests without a valid token and passes the actor id
// down via the request context. onReject writes the failure response.
func (t *TokenIssuer) Middleware(onReject func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := t.Verify(TokenFromRequest(r))
			if err != nil {
				onReject(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), userID)))
		})
	}
}
