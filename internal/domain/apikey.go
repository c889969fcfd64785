package domain

import (
	"time"

	"github.com/google/uuid"
)

// APIKey stores only the SHA-256 hash of the raw key. A nil AccountID is
// an admin-scope key; otherwise the key is confined to that one account.
type APIKey struct {
	ID         uuid.UUID
	Name       string
	KeyHash    string
	AccountID  *uuid.UUID
	IsActive   bool
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

func NewAPIKey(name, keyHash string, accountID *uuid.UUID) *APIKey {
	return &APIKey{
		ID:        uuid.New(),
		Name:      name,
		KeyHash:   keyHash,
		AccountID: accountID,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
}

func (k *APIKey) IsAdmin() bool { return k.AccountID == nil }

func (k *APIKey) CanAccess(accountID uuid.UUID) bool {
	return k.AccountID == nil || *k.AccountID == accountID
}
