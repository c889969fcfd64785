package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAPIKey_Scope(t *testing.T) {
	accountA := uuid.New()
	accountB := uuid.New()

	admin := NewAPIKey("ops", "hash-1", nil)
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.CanAccess(accountA))
	assert.True(t, admin.CanAccess(accountB))

	scoped := NewAPIKey("alice-app", "hash-2", &accountA)
	assert.False(t, scoped.IsAdmin())
	assert.True(t, scoped.CanAccess(accountA))
	assert.False(t, scoped.CanAccess(accountB))
}

func TestNewAPIKey_Defaults(t *testing.T) {
	key := NewAPIKey("ops", "hash-1", nil)
	assert.True(t, key.IsActive)
	assert.Nil(t, key.LastUsedAt)
	assert.Equal(t, "ops", key.Name)
	assert.Equal(t, "hash-1", key.KeyHash)
}
