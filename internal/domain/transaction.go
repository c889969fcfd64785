package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TransactionDirection string

const (
	DirectionDeposit    TransactionDirection = "DEPOSIT"
	DirectionWithdrawal TransactionDirection = "WITHDRAWAL"
	DirectionTransfer   TransactionDirection = "TRANSFER"
)

// Transaction is one row of the journal. Deposits carry a destination
// only, withdrawals a source only, transfers both.
type Transaction struct {
	ID                   uuid.UUID
	Direction            TransactionDirection
	Amount               Money
	SourceAccountID      *uuid.UUID
	DestinationAccountID *uuid.UUID
	IdempotencyKey       *string
	Reference            *string
	CreatedAt            time.Time
}

func NewDeposit(destination uuid.UUID, amount Money, idempotencyKey, reference *string) *Transaction {
	return &Transaction{
		ID:                   uuid.New(),
		Direction:            DirectionDeposit,
		Amount:               amount,
		DestinationAccountID: &destination,
		IdempotencyKey:       idempotencyKey,
		Reference:            reference,
		CreatedAt:            time.Now().UTC(),
	}
}

func NewWithdrawal(source uuid.UUID, amount Money, idempotencyKey, reference *string) *Transaction {
	return &Transaction{
		ID:              uuid.New(),
		Direction:       DirectionWithdrawal,
		Amount:          amount,
		SourceAccountID: &source,
		IdempotencyKey:  idempotencyKey,
		Reference:       reference,
		CreatedAt:       time.Now().UTC(),
	}
}

func NewTransfer(source, destination uuid.UUID, amount Money, idempotencyKey, reference *string) (*Transaction, error) {
	if source == destination {
		return nil, fmt.Errorf("NewTransfer: %w", ErrSelfTransfer)
	}
	return &Transaction{
		ID:                   uuid.New(),
		Direction:            DirectionTransfer,
		Amount:               amount,
		SourceAccountID:      &source,
		DestinationAccountID: &destination,
		IdempotencyKey:       idempotencyKey,
		Reference:            reference,
		CreatedAt:            time.Now().UTC(),
	}, nil
}
