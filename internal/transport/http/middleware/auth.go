package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/civicworks/civicconnect/internal/domain"
	"github.com/civicworks/civicconnect/internal/service"
)

type contextKey string

const userKey contextKey = "user"

// CookieName is the session cookie the gate reads alongside bearer headers.
const CookieName = "token"

// ExtractToken pulls the session token from the cookie or the
// Authorization: Bearer header. Empty string when neither is present.
func ExtractToken(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// Auth is the gate in front of every protected route: token present, not
// revoked, signature and expiry valid, subject still exists. The client gets
// the same generic 401 for every rejection; the reason only goes to the log.
func Auth(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if isAuthRejection(err) {
					log.Printf("auth rejected %s %s: %v", r.Method, r.URL.Path, err)
					unauthorized(w)
					return
				}
				log.Printf("ERROR auth gate: %v", err)
				writeRaw(w, http.StatusInternalServerError, `{"error":{"code":"INTERNAL","message":"Something went wrong"}}`)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth binds the user when a valid token is supplied but lets
// anonymous requests through. A token that is supplied and bad is still
// rejected.
func OptionalAuth(auth *service.AuthService) func(http.Handler) http.Handler {
	gate := Auth(auth)
	return func(next http.Handler) http.Handler {
		gated := gate(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ExtractToken(r) == "" {
				next.ServeHTTP(w, r)
				return
			}
			gated.ServeHTTP(w, r)
		})
	}
}

// GetUser returns the acting identity, or nil on anonymous requests.
func GetUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}

func isAuthRejection(err error) bool {
	return errors.Is(err, service.ErrTokenRevoked) ||
		errors.Is(err, service.ErrTokenInvalid) ||
		errors.Is(err, service.ErrUserGone)
}

func unauthorized(w http.ResponseWriter) {
	writeRaw(w, http.StatusUnauthorized, `{"error":{"code":"UNAUTHORIZED","message":"Please login again"}}`)
}

func writeRaw(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
