package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/castlepay/payments/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const transactionColumns = `id, direction, amount, currency, source_account_id,
	destination_account_id, idempotency_key, reference, created_at`

// LedgerRepository owns every balance-moving write. Each operation runs in a
// single database transaction: the balance update and the journal row commit
// together or not at all.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Deposit credits an account and records a DEPOSIT row. With an idempotency
// key, a repeated call returns the previously persisted transaction without
// touching the balance again. The bool reports whether this call wrote a new
// row, so callers can skip replay side effects.
func (r *LedgerRepository) Deposit(ctx context.Context, req domain.DepositRequest) (*domain.Transaction, bool, error) {
	if req.IdempotencyKey != nil {
		if prior, err := r.findPrior(ctx, *req.IdempotencyKey); err != nil {
			return nil, false, fmt.Errorf("Deposit: %w", err)
		} else if prior != nil {
			return prior, false, nil
		}
	}

	money, err := domain.NewMoney(req.Amount, req.Currency)
	if err != nil {
		return nil, false, fmt.Errorf("Deposit: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("Deposit: begin tx: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	var currency string
	err = tx.QueryRowContext(ctx,
		`UPDATE accounts SET balance = balance + $1 WHERE id = $2 RETURNING balance, currency`,
		money.Amount, req.AccountID,
	).Scan(&balance, &currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("Deposit: %w", domain.ErrNotFound)
		}
		return nil, false, fmt.Errorf("Deposit: %w", err)
	}
	if domain.Currency(currency) != money.Currency {
		return nil, false, fmt.Errorf("Deposit: %w", &domain.CurrencyMismatchError{
			Expected: domain.Currency(currency), Got: money.Currency,
		})
	}

	txn := domain.NewDeposit(req.AccountID, money, req.IdempotencyKey, req.Reference)
	if err := insertTransaction(ctx, tx, txn); err != nil {
		if winner, ok := r.resolveIdempotencyRace(ctx, tx, req.IdempotencyKey, err); ok {
			return winner, false, nil
		}
		if req.IdempotencyKey != nil && isUniqueViolation(err) {
			return nil, false, fmt.Errorf("Deposit: %w", domain.ErrDuplicateIdempotencyKey)
		}
		return nil, false, fmt.Errorf("Deposit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("Deposit: commit: %w", err)
	}
	return txn, true, nil
}

// Withdraw debits an account under a row lock so the funds check and the
// balance update see the same value.
func (r *LedgerRepository) Withdraw(ctx context.Context, req domain.WithdrawRequest) (*domain.Transaction, bool, error) {
	if req.IdempotencyKey != nil {
		if prior, err := r.findPrior(ctx, *req.IdempotencyKey); err != nil {
			return nil, false, fmt.Errorf("Withdraw: %w", err)
		} else if prior != nil {
			return prior, false, nil
		}
	}

	money, err := domain.NewMoney(req.Amount, req.Currency)
	if err != nil {
		return nil, false, fmt.Errorf("Withdraw: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("Withdraw: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := lockAccount(ctx, tx, req.AccountID)
	if err != nil {
		return nil, false, fmt.Errorf("Withdraw: %w", err)
	}
	if locked == nil {
		return nil, false, fmt.Errorf("Withdraw: %w", domain.ErrNotFound)
	}
	if locked.currency != money.Currency {
		return nil, false, fmt.Errorf("Withdraw: %w", &domain.CurrencyMismatchError{
			Expected: locked.currency, Got: money.Currency,
		})
	}
	if locked.balance < money.Amount {
		return nil, false, fmt.Errorf("Withdraw: %w", &domain.InsufficientFundsError{
			Available: locked.balance, Requested: money.Amount,
		})
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance - $1 WHERE id = $2`,
		money.Amount, req.AccountID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("Withdraw: %w", err)
	}

	txn := domain.NewWithdrawal(req.AccountID, money, req.IdempotencyKey, req.Reference)
	if err := insertTransaction(ctx, tx, txn); err != nil {
		if winner, ok := r.resolveIdempotencyRace(ctx, tx, req.IdempotencyKey, err); ok {
			return winner, false, nil
		}
		if req.IdempotencyKey != nil && isUniqueViolation(err) {
			return nil, false, fmt.Errorf("Withdraw: %w", domain.ErrDuplicateIdempotencyKey)
		}
		return nil, false, fmt.Errorf("Withdraw: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("Withdraw: commit: %w", err)
	}
	return txn, true, nil
}

// Transfer moves money between two same-currency accounts. Rows are locked
// in UUID-ascending order so two concurrent transfers over the same pair
// cannot deadlock.
func (r *LedgerRepository) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.Transaction, bool, error) {
	if req.IdempotencyKey != nil {
		if prior, err := r.findPrior(ctx, *req.IdempotencyKey); err != nil {
			return nil, false, fmt.Errorf("Transfer: %w", err)
		} else if prior != nil {
			return prior, false, nil
		}
	}

	money, err := domain.NewMoney(req.Amount, req.Currency)
	if err != nil {
		return nil, false, fmt.Errorf("Transfer: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("Transfer: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := lockAccountsInOrder(ctx, tx, req.FromAccountID, req.ToAccountID)
	if err != nil {
		return nil, false, fmt.Errorf("Transfer: %w", err)
	}

	source, dest := locked[req.FromAccountID], locked[req.ToAccountID]
	if source == nil {
		return nil, false, fmt.Errorf("Transfer: source: %w", domain.ErrNotFound)
	}
	if dest == nil {
		return nil, false, fmt.Errorf("Transfer: destination: %w", domain.ErrNotFound)
	}
	if source.currency != dest.currency {
		return nil, false, fmt.Errorf("Transfer: %w", domain.ErrCrossCurrencyTransfer)
	}
	if source.currency != money.Currency {
		return nil, false, fmt.Errorf("Transfer: %w", &domain.CurrencyMismatchError{
			Expected: source.currency, Got: money.Currency,
		})
	}
	if source.balance < money.Amount {
		return nil, false, fmt.Errorf("Transfer: %w", &domain.InsufficientFundsError{
			Available: source.balance, Requested: money.Amount,
		})
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance - $1 WHERE id = $2`,
		money.Amount, req.FromAccountID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("Transfer: debit source: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + $1 WHERE id = $2`,
		money.Amount, req.ToAccountID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("Transfer: credit destination: %w", err)
	}

	txn, err := domain.NewTransfer(req.FromAccountID, req.ToAccountID, money, req.IdempotencyKey, req.Reference)
	if err != nil {
		return nil, false, fmt.Errorf("Transfer: %w", err)
	}
	if err := insertTransaction(ctx, tx, txn); err != nil {
		if winner, ok := r.resolveIdempotencyRace(ctx, tx, req.IdempotencyKey, err); ok {
			return winner, false, nil
		}
		if req.IdempotencyKey != nil && isUniqueViolation(err) {
			return nil, false, fmt.Errorf("Transfer: %w", domain.ErrDuplicateIdempotencyKey)
		}
		return nil, false, fmt.Errorf("Transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("Transfer: commit: %w", err)
	}
	return txn, true, nil
}

func (r *LedgerRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE idempotency_key = $1`, key,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("FindByIdempotencyKey: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("FindByIdempotencyKey: %w", err)
	}
	return t, nil
}

func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

// ListForAccount returns every transaction where the account appears as
// source or destination, newest first.
func (r *LedgerRepository) ListForAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE source_account_id = $1 OR destination_account_id = $1
		ORDER BY created_at DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListForAccount: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ListForAccount: scan: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListForAccount: rows: %w", err)
	}
	return txns, nil
}

// findPrior is the advisory idempotency pre-check: nil, nil when no prior
// transaction carries the key.
func (r *LedgerRepository) findPrior(ctx context.Context, key string) (*domain.Transaction, error) {
	prior, err := r.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return prior, nil
}

// resolveIdempotencyRace handles two callers racing the same idempotency key
// past the advisory pre-check. The loser's INSERT hits the unique index with
// a 23505 only after the winner committed, so rolling back and re-reading
// always finds the winner's row.
func (r *LedgerRepository) resolveIdempotencyRace(ctx context.Context, tx *sql.Tx, key *string, insertErr error) (*domain.Transaction, bool) {
	if key == nil || !isUniqueViolation(insertErr) {
		return nil, false
	}
	tx.Rollback()
	winner, err := r.FindByIdempotencyKey(ctx, *key)
	if err != nil {
		return nil, false
	}
	return winner, true
}

type lockedAccount struct {
	balance  int64
	currency domain.Currency
}

func lockAccount(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*lockedAccount, error) {
	var l lockedAccount
	var currency string
	err := tx.QueryRowContext(ctx,
		`SELECT balance, currency FROM accounts WHERE id = $1 FOR UPDATE`, id,
	).Scan(&l.balance, &currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lockAccount: %w", err)
	}
	l.currency = domain.Currency(currency)
	return &l, nil
}

// lockAccountsInOrder acquires FOR UPDATE locks in UUID-ascending order.
// Missing accounts appear as nil entries; callers decide how to report them.
func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, ids ...uuid.UUID) (map[uuid.UUID]*lockedAccount, error) {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	result := make(map[uuid.UUID]*lockedAccount, len(ids))
	for _, id := range sorted {
		l, err := lockAccount(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockAccountsInOrder: %w", err)
		}
		result[id] = l
	}
	return result, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, direction, amount, currency, source_account_id,
			destination_account_id, idempotency_key, reference, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Direction, t.Amount.Amount, t.Amount.Currency.Code(),
		t.SourceAccountID, t.DestinationAccountID, t.IdempotencyKey, t.Reference,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insertTransaction: %w", err)
	}
	return nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var currency string
	var source, dest uuid.NullUUID
	err := s.Scan(
		&t.ID, &t.Direction, &t.Amount.Amount, &currency,
		&source, &dest, &t.IdempotencyKey, &t.Reference, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Amount.Currency = domain.Currency(currency)
	if source.Valid {
		t.SourceAccountID = &source.UUID
	}
	if dest.Valid {
		t.DestinationAccountID = &dest.UUID
	}
	return &t, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
