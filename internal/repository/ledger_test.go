package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlepay/payments/internal/domain"
	"github.com/castlepay/payments/internal/repository"
)

var transactionTestColumns = []string{
	"id", "direction", "amount", "currency", "source_account_id",
	"destination_account_id", "idempotency_key", "reference", "created_at",
}

// Two callers race the same idempotency key past the pre-check; the loser's
// INSERT hits the unique index. The repository must roll back its balance
// update and hand back the winner's row instead of an error.
func TestLedgerRepository_Deposit_IdempotencyRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewLedgerRepository(db)
	accountID := uuid.New()
	key := "race-key"
	winnerID := uuid.New()
	now := time.Now().UTC()

	// Pre-check sees nothing: the winner has not committed yet.
	mock.ExpectQuery(`SELECT (.+) FROM transactions WHERE idempotency_key = \$1`).
		WithArgs(key).
		WillReturnRows(sqlmock.NewRows(transactionTestColumns))

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE accounts SET balance = balance \+ \$1 WHERE id = \$2 RETURNING balance, currency`).
		WithArgs(int64(1000), accountID).
		WillReturnRows(sqlmock.NewRows([]string{"balance", "currency"}).AddRow(int64(1000), "USD"))
	mock.ExpectExec(`INSERT INTO transactions`).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	// Re-read after rollback finds the committed winner.
	mock.ExpectQuery(`SELECT (.+) FROM transactions WHERE idempotency_key = \$1`).
		WithArgs(key).
		WillReturnRows(sqlmock.NewRows(transactionTestColumns).
			AddRow(winnerID.String(), "DEPOSIT", int64(1000), "USD", nil, accountID.String(), key, nil, now))

	txn, created, err := repo.Deposit(context.Background(), domain.DepositRequest{
		AccountID:      accountID,
		Amount:         1000,
		Currency:       domain.CurrencyUSD,
		IdempotencyKey: &key,
	})

	require.NoError(t, err)
	assert.False(t, created, "loser reuses the winner's row")
	assert.Equal(t, winnerID, txn.ID)
	assert.Equal(t, domain.DirectionDeposit, txn.Direction)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_Deposit_AccountMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewLedgerRepository(db)
	accountID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE accounts SET balance = balance \+ \$1 WHERE id = \$2 RETURNING balance, currency`).
		WithArgs(int64(500), accountID).
		WillReturnRows(sqlmock.NewRows([]string{"balance", "currency"}))
	mock.ExpectRollback()

	_, _, err = repo.Deposit(context.Background(), domain.DepositRequest{
		AccountID: accountID,
		Amount:    500,
		Currency:  domain.CurrencyUSD,
	})

	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_Deposit_DriverFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewLedgerRepository(db)
	accountID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE accounts SET balance = balance \+ \$1 WHERE id = \$2 RETURNING balance, currency`).
		WithArgs(int64(500), accountID).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, _, err = repo.Deposit(context.Background(), domain.DepositRequest{
		AccountID: accountID,
		Amount:    500,
		Currency:  domain.CurrencyUSD,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Deposit")
	require.NoError(t, mock.ExpectationsWereMet())
}

// A unique violation without an idempotency key in play is a real conflict,
// not a race to resolve.
func TestLedgerRepository_Deposit_UniqueViolationWithoutKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewLedgerRepository(db)
	accountID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE accounts SET balance = balance \+ \$1 WHERE id = \$2 RETURNING balance, currency`).
		WithArgs(int64(500), accountID).
		WillReturnRows(sqlmock.NewRows([]string{"balance", "currency"}).AddRow(int64(500), "USD"))
	mock.ExpectExec(`INSERT INTO transactions`).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, _, err = repo.Deposit(context.Background(), domain.DepositRequest{
		AccountID: accountID,
		Amount:    500,
		Currency:  domain.CurrencyUSD,
	})

	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_Withdraw_IdempotencyRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewLedgerRepository(db)
	accountID := uuid.New()
	key := "race-key"
	winnerID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT (.+) FROM transactions WHERE idempotency_key = \$1`).
		WithArgs(key).
		WillReturnRows(sqlmock.NewRows(transactionTestColumns))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT balance, currency FROM accounts WHERE id = \$1 FOR UPDATE`).
		WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows([]string{"balance", "currency"}).AddRow(int64(5000), "USD"))
	mock.ExpectExec(`UPDATE accounts SET balance = balance - \$1 WHERE id = \$2`).
		WithArgs(int64(1000), accountID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO transactions`).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	mock.ExpectQuery(`SELECT (.+) FROM transactions WHERE idempotency_key = \$1`).
		WithArgs(key).
		WillReturnRows(sqlmock.NewRows(transactionTestColumns).
			AddRow(winnerID.String(), "WITHDRAWAL", int64(1000), "USD", accountID.String(), nil, key, nil, now))

	txn, created, err := repo.Withdraw(context.Background(), domain.WithdrawRequest{
		AccountID:      accountID,
		Amount:         1000,
		Currency:       domain.CurrencyUSD,
		IdempotencyKey: &key,
	})

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winnerID, txn.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAPIKeyRepository_VerifyHash_Unknown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewAPIKeyRepository(db)

	mock.ExpectQuery(`UPDATE api_keys SET last_used_at = now\(\)`).
		WithArgs("no-such-hash").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "key_hash", "account_id", "is_active", "created_at", "last_used_at",
		}))

	_, err = repo.VerifyHash(context.Background(), "no-such-hash")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRepository_UpdateStatus_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewWebhookRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE webhook_events`).
		WithArgs(string(domain.WebhookEventStatusCompleted), nil, id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), id, domain.WebhookEventStatusCompleted, nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
