package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/castlepay/payments/internal/domain"
	"github.com/castlepay/payments/internal/logging"
)

type apiKeyRepo interface {
	Create(ctx context.Context, name string, accountID *uuid.UUID) (*domain.APIKey, string, error)
	CountActive(ctx context.Context) (int64, error)
	ListActive(ctx context.Context) ([]domain.APIKey, error)
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
}

type APIKeyService struct {
	keys apiKeyRepo
}

func NewAPIKeyService(keys apiKeyRepo) *APIKeyService {
	return &APIKeyService{keys: keys}
}

// Bootstrap creates the very first admin key. It is only open while no
// active key exists; afterwards keys are minted through CreateKey by an
// authenticated caller.
func (s *APIKeyService) Bootstrap(ctx context.Context, name string) (string, error) {
	count, err := s.keys.CountActive(ctx)
	if err != nil {
		return "", fmt.Errorf("Bootstrap: %w", err)
	}
	if count > 0 {
		return "", fmt.Errorf("Bootstrap: %w", domain.ErrBootstrapClosed)
	}

	key, raw, err := s.keys.Create(ctx, name, nil)
	if err != nil {
		return "", fmt.Errorf("Bootstrap: %w", err)
	}

	logging.FromContext(ctx).Info("bootstrap key created", "key_id", key.ID, "name", key.Name)
	return raw, nil
}

func (s *APIKeyService) CreateKey(ctx context.Context, name string) (string, error) {
	key, raw, err := s.keys.Create(ctx, name, nil)
	if err != nil {
		return "", fmt.Errorf("CreateKey: %w", err)
	}

	logging.FromContext(ctx).Info("api key created", "key_id", key.ID, "name", key.Name)
	return raw, nil
}

func (s *APIKeyService) ListKeys(ctx context.Context) ([]domain.APIKey, error) {
	keys, err := s.keys.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListKeys: %w", err)
	}
	return keys, nil
}

// DeleteKey deactivates a key. Returns domain.ErrNotFound when no active
// key with that id exists.
func (s *APIKeyService) DeleteKey(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.keys.Deactivate(ctx, id)
	if err != nil {
		return fmt.Errorf("DeleteKey: %w", err)
	}
	if !deleted {
		return fmt.Errorf("DeleteKey: %w", domain.ErrNotFound)
	}

	logging.FromContext(ctx).Info("api key deactivated", "key_id", id)
	return nil
}
