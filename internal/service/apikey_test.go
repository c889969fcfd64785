package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlepay/payments/internal/domain"
)

type fakeAPIKeyRepo struct {
	countActive   int64
	deactivated   bool
	created       []string
	createdScopes []*uuid.UUID
}

func (f *fakeAPIKeyRepo) Create(_ context.Context, name string, accountID *uuid.UUID) (*domain.APIKey, string, error) {
	f.created = append(f.created, name)
	f.createdScopes = append(f.createdScopes, accountID)
	return domain.NewAPIKey(name, "hash", accountID), "sk_raw_key", nil
}

func (f *fakeAPIKeyRepo) CountActive(_ context.Context) (int64, error) {
	return f.countActive, nil
}

func (f *fakeAPIKeyRepo) ListActive(_ context.Context) ([]domain.APIKey, error) {
	return nil, nil
}

func (f *fakeAPIKeyRepo) Deactivate(_ context.Context, _ uuid.UUID) (bool, error) {
	return f.deactivated, nil
}

func TestAPIKeyService_Bootstrap(t *testing.T) {
	repo := &fakeAPIKeyRepo{countActive: 0}
	svc := NewAPIKeyService(repo)

	raw, err := svc.Bootstrap(context.Background(), "first-key")
	require.NoError(t, err)
	assert.Equal(t, "sk_raw_key", raw)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "first-key", repo.created[0])
	assert.Nil(t, repo.createdScopes[0], "bootstrap key is admin-scoped")
}

func TestAPIKeyService_Bootstrap_ClosedOnceKeysExist(t *testing.T) {
	repo := &fakeAPIKeyRepo{countActive: 1}
	svc := NewAPIKeyService(repo)

	_, err := svc.Bootstrap(context.Background(), "second-key")

	require.ErrorIs(t, err, domain.ErrBootstrapClosed)
	assert.Empty(t, repo.created)
}

func TestAPIKeyService_DeleteKey(t *testing.T) {
	repo := &fakeAPIKeyRepo{deactivated: true}
	svc := NewAPIKeyService(repo)
	require.NoError(t, svc.DeleteKey(context.Background(), uuid.New()))

	repo.deactivated = false
	err := svc.DeleteKey(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
