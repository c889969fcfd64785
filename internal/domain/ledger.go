package domain

import (
	"github.com/google/uuid"
)

// Ledger mutation requests. Amounts are minor units; the ledger rejects
// non-positive amounts before they reach here, negative amounts are caught
// again by Money construction.

type DepositRequest struct {
	AccountID      uuid.UUID
	Amount         int64
	Currency       Currency
	IdempotencyKey *string
	Reference      *string
}

type WithdrawRequest struct {
	AccountID      uuid.UUID
	Amount         int64
	Currency       Currency
	IdempotencyKey *string
	Reference      *string
}

type TransferRequest struct {
	FromAccountID  uuid.UUID
	ToAccountID    uuid.UUID
	Amount         int64
	Currency       Currency
	IdempotencyKey *string
	Reference      *string
}
