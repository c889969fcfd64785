package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/castlepay/payments/internal/domain"
	"github.com/google/uuid"
)

const accountColumns = `id, name, balance, currency, created_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create validates the name through the domain constructor and inserts the
// account with a zero balance.
func (r *AccountRepository) Create(ctx context.Context, name string, currency domain.Currency) (*domain.Account, error) {
	account, err := domain.NewAccount(name, currency)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, balance, currency, created_at)
		VALUES ($1, $2, 0, $3, $4)`,
		account.ID, account.Name, account.Currency().Code(), account.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return accounts, nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	var currency string
	err := s.Scan(&a.ID, &a.Name, &a.Balance.Amount, &currency, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Balance.Currency = domain.Currency(currency)
	return &a, nil
}
