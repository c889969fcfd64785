package auth

import (
	"context"

	"github.com/castlepay/payments/internal/domain"
)

type apiKeyKey struct{}

func ContextWithAPIKey(ctx context.Context, key *domain.APIKey) context.Context {
	return context.WithValue(ctx, apiKeyKey{}, key)
}

func APIKeyFromContext(ctx context.Context) (*domain.APIKey, bool) {
	key, ok := ctx.Value(apiKeyKey{}).(*domain.APIKey)
	return key, ok
}
