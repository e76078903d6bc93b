package api

import (
	"context"
	"net/http"
	"strings"

	"resort/internal/models"

	"github.com/rs/zerolog"
)

const apiKeyHeaderDefault = "x-api-key"

// Authenticator resolves an API key to the calling user.
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey string) (models.Principal, error)
}

// HTTPAuth authenticates requests by API key and throttles each key.
type HTTPAuth struct {
	header  string
	users   Authenticator
	limiter *keyLimiter
	logger  *zerolog.Logger
}

func NewHTTPAuth(header string, users Authenticator, limiter *keyLimiter, logger *zerolog.Logger) *HTTPAuth {
	header = strings.TrimSpace(header)
	if header == "" {
		header = apiKeyHeaderDefault
	}
	return &HTTPAuth{header: header, users: users, limiter: limiter, logger: logger}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := strings.TrimSpace(r.Header.Get(a.header))
		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "missing api key")
			return
		}

		if !a.limiter.Allow(apiKey) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		principal, err := a.users.Authenticate(r.Context(), apiKey)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func principalFrom(ctx context.Context) models.Principal {
	p, _ := ctx.Value(principalKey).(models.Principal)
	return p
}

// requireAdmin rejects callers without the admin role.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !principalFrom(r.Context()).IsAdmin {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
