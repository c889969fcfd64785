package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/castlepay/payments/internal/auth"
	"github.com/castlepay/payments/internal/domain"
	"github.com/google/uuid"
)

const apiKeyColumns = `id, name, key_hash, account_id, is_active, created_at, last_used_at`

type APIKeyRepository struct {
	db *sql.DB
}

func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create generates a fresh secret, stores only its hash, and returns the raw
// key alongside the record. The raw key is never persisted and cannot be
// recovered later.
func (r *APIKeyRepository) Create(ctx context.Context, name string, accountID *uuid.UUID) (*domain.APIKey, string, error) {
	rawKey, err := auth.NewKeySecret()
	if err != nil {
		return nil, "", fmt.Errorf("Create: %w", err)
	}

	key := domain.NewAPIKey(name, auth.HashKey(rawKey), accountID)
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, name, key_hash, account_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, $5)`,
		key.ID, key.Name, key.KeyHash, key.AccountID, key.CreatedAt,
	)
	if err != nil {
		return nil, "", fmt.Errorf("Create: %w", err)
	}
	return key, rawKey, nil
}

// VerifyHash resolves a key hash to its active record and stamps
// last_used_at in the same statement. Inactive and unknown hashes both
// come back as ErrNotFound.
func (r *APIKeyRepository) VerifyHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE api_keys SET last_used_at = now()
		WHERE key_hash = $1 AND is_active = TRUE
		RETURNING `+apiKeyColumns,
		keyHash,
	)
	k, err := scanAPIKey(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("VerifyHash: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("VerifyHash: %w", err)
	}
	return k, nil
}

func (r *APIKeyRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM api_keys WHERE is_active = TRUE`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountActive: %w", err)
	}
	return count, nil
}

func (r *APIKeyRepository) ListActive(ctx context.Context) ([]domain.APIKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE is_active = TRUE ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer rows.Close()

	var keys []domain.APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActive: scan: %w", err)
		}
		keys = append(keys, *k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActive: rows: %w", err)
	}
	return keys, nil
}

// Deactivate soft-deletes a key. It reports true only when an active row
// transitioned to inactive; deleting twice reports false the second time.
func (r *APIKeyRepository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET is_active = FALSE WHERE id = $1 AND is_active = TRUE`, id,
	)
	if err != nil {
		return false, fmt.Errorf("Deactivate: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Deactivate: rows affected: %w", err)
	}
	return rows > 0, nil
}

func scanAPIKey(s scanner) (*domain.APIKey, error) {
	var k domain.APIKey
	var accountID uuid.NullUUID
	var lastUsedAt sql.NullTime
	err := s.Scan(&k.ID, &k.Name, &k.KeyHash, &accountID, &k.IsActive, &k.CreatedAt, &lastUsedAt)
	if err != nil {
		return nil, err
	}
	if accountID.Valid {
		k.AccountID = &accountID.UUID
	}
	if lastUsedAt.Valid {
		k.LastUsedAt = &lastUsedAt.Time
	}
	return &k, nil
}
