package client

import (
	"time"

	"github.com/google/uuid"
)

type Health struct {
	Status string `json:"status"`
}

type Account struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Balance  int64     `json:"balance"`
	Currency string    `json:"currency"`
}

// TransactionRequest covers deposits and withdrawals.
type TransactionRequest struct {
	AccountID      uuid.UUID `json:"account_id"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	IdempotencyKey *string   `json:"idempotency_key,omitempty"`
	Reference      *string   `json:"reference,omitempty"`
}

type TransferRequest struct {
	FromAccountID  uuid.UUID `json:"from_account_id"`
	ToAccountID    uuid.UUID `json:"to_account_id"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	IdempotencyKey *string   `json:"idempotency_key,omitempty"`
	Reference      *string   `json:"reference,omitempty"`
}

type Transaction struct {
	ID                   uuid.UUID  `json:"id"`
	Direction            string     `json:"direction"`
	Amount               int64      `json:"amount"`
	Currency             string     `json:"currency"`
	SourceAccountID      *uuid.UUID `json:"source_account_id,omitempty"`
	DestinationAccountID *uuid.UUID `json:"destination_account_id,omitempty"`
	IdempotencyKey       *string    `json:"idempotency_key,omitempty"`
	Reference            *string    `json:"reference,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// CreatedKey is the one-time reply from bootstrap and key creation; the
// raw key in it is never retrievable again.
type CreatedKey struct {
	APIKey  string `json:"api_key"`
	Message string `json:"message"`
}

type APIKey struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

// Webhook's Secret is populated only in the registration reply.
type Webhook struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	Secret   string    `json:"secret,omitempty"`
	Events   []string  `json:"events"`
	IsActive bool      `json:"is_active"`
}

type Rates struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

type Conversion struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    int64   `json:"amount"`
	Converted int64   `json:"converted"`
	Rate      float64 `json:"rate"`
}

type createAccountRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency,omitempty"`
}

type createKeyRequest struct {
	Name string `json:"name"`
}

type registerWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

type convertRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}
