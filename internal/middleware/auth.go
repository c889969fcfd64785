package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/castlepay/payments/internal/auth"
	"github.com/castlepay/payments/internal/domain"
	"github.com/castlepay/payments/internal/handler"
	"github.com/castlepay/payments/internal/logging"
)

type keyVerifier interface {
	VerifyHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
}

// Auth gates every route except health, bootstrap, and the docs surface.
// The raw key is hashed and looked up; only its hash ever touches storage
// or logs.
func Auth(keys keyVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypassAuth(r) {
				next.ServeHTTP(w, r)
				return
			}

			raw := bearerKey(r.Header.Get("Authorization"))
			if raw == "" {
				handler.RespondAppError(w, handler.ErrMissingAuthHeader)
				return
			}

			key, err := keys.VerifyHash(r.Context(), auth.HashKey(raw))
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					logging.FromContext(r.Context()).Error("api key verification failed", "error", err)
				}
				handler.RespondAppError(w, handler.ErrInvalidAPIKey)
				return
			}

			ctx := auth.ContextWithAPIKey(r.Context(), key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerKey accepts both "Bearer <key>" and a bare key, for CLI
// convenience.
func bearerKey(header string) string {
	if key, found := strings.CutPrefix(header, "Bearer "); found {
		return strings.TrimSpace(key)
	}
	return strings.TrimSpace(header)
}

func bypassAuth(r *http.Request) bool {
	switch r.URL.Path {
	case "/health", "/docs", "/docs/openapi.yaml":
		return r.Method == http.MethodGet
	case "/api/bootstrap":
		return r.Method == http.MethodPost
	}
	return false
}
