package testutil

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/castlepay/payments/internal/auth"
	"github.com/castlepay/payments/internal/domain"
	"github.com/google/uuid"
)

func SeedAccount(t *testing.T, db *sql.DB, name, currency string, balance int64) *domain.Account {
	t.Helper()

	a := &domain.Account{
		ID:        uuid.New(),
		Name:      name,
		Balance:   domain.Money{Amount: balance, Currency: domain.Currency(currency)},
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO accounts (id, name, balance, currency, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Name, a.Balance.Amount, currency, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed account %s/%s: %v", name, currency, err)
	}
	return a
}

// SeedAPIKey inserts an active key and returns the record together with the
// raw secret, which is never stored.
func SeedAPIKey(t *testing.T, db *sql.DB, name string, accountID *uuid.UUID) (*domain.APIKey, string) {
	t.Helper()

	rawKey, err := auth.NewKeySecret()
	if err != nil {
		t.Fatalf("generate api key: %v", err)
	}
	k := domain.NewAPIKey(name, auth.HashKey(rawKey), accountID)

	_, err = db.Exec(
		`INSERT INTO api_keys (id, name, key_hash, account_id, is_active, created_at)
		 VALUES ($1, $2, $3, $4, TRUE, $5)`,
		k.ID, k.Name, k.KeyHash, k.AccountID, k.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed api key %s: %v", name, err)
	}
	return k, rawKey
}

func SeedWebhookEndpoint(t *testing.T, db *sql.DB, url string, events []string) *domain.WebhookEndpoint {
	t.Helper()

	secret, err := auth.NewWebhookSecret()
	if err != nil {
		t.Fatalf("generate webhook secret: %v", err)
	}
	e, err := domain.NewWebhookEndpoint(url, secret, events)
	if err != nil {
		t.Fatalf("build webhook endpoint %s: %v", url, err)
	}
	eventsJSON, err := json.Marshal(e.Events)
	if err != nil {
		t.Fatalf("marshal events: %v", err)
	}

	_, err = db.Exec(
		`INSERT INTO webhook_endpoints (id, url, secret, events, is_active, created_at)
		 VALUES ($1, $2, $3, $4, TRUE, $5)`,
		e.ID, e.URL, e.Secret, eventsJSON, e.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed webhook endpoint %s: %v", url, err)
	}
	return e
}

func SeedWebhookEvent(t *testing.T, db *sql.DB, endpointID uuid.UUID, eventType, payload string) *domain.WebhookEvent {
	t.Helper()

	e := domain.NewWebhookEvent(endpointID, eventType, []byte(payload))
	_, err := db.Exec(
		`INSERT INTO webhook_events (id, endpoint_id, event_type, payload, status, attempts, created_at)
		 VALUES ($1, $2, $3, $4, $5, 0, $6)`,
		e.ID, e.EndpointID, e.EventType, []byte(e.Payload), e.Status, e.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed webhook event %s: %v", eventType, err)
	}
	return e
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", accountID, err)
	}
	return balance
}

func CountTransactionsWithKey(t *testing.T, db *sql.DB, idempotencyKey string) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM transactions WHERE idempotency_key = $1`, idempotencyKey,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions with key %s: %v", idempotencyKey, err)
	}
	return count
}

func GetWebhookEventState(t *testing.T, db *sql.DB, eventID uuid.UUID) (status string, attempts int, lastError *string) {
	t.Helper()

	err := db.QueryRow(
		`SELECT status, attempts, last_error FROM webhook_events WHERE id = $1`, eventID,
	).Scan(&status, &attempts, &lastError)
	if err != nil {
		t.Fatalf("get webhook event %s: %v", eventID, err)
	}
	return status, attempts, lastError
}
