package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/castlepay/payments/internal/domain"
	"github.com/castlepay/payments/internal/logging"
)

// Event types emitted after successful ledger mutations.
const (
	EventDepositSuccess  = "deposit.success"
	EventWithdrawSuccess = "withdraw.success"
	EventTransferSuccess = "transfer.success"
)

// ledgerRepo's mutating calls report whether they wrote a new row; replays
// served from a prior idempotency key come back false.
type ledgerRepo interface {
	Deposit(ctx context.Context, req domain.DepositRequest) (*domain.Transaction, bool, error)
	Withdraw(ctx context.Context, req domain.WithdrawRequest) (*domain.Transaction, bool, error)
	Transfer(ctx context.Context, req domain.TransferRequest) (*domain.Transaction, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListForAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error)
}

type accountChecker interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

type eventSink interface {
	ListEndpoints(ctx context.Context) ([]domain.WebhookEndpoint, error)
	CreateEvent(ctx context.Context, endpointID uuid.UUID, eventType string, payload json.RawMessage) (*domain.WebhookEvent, error)
}

type LedgerService struct {
	ledger   ledgerRepo
	accounts accountChecker
	events   eventSink
}

func NewLedgerService(ledger ledgerRepo, accounts accountChecker, events eventSink) *LedgerService {
	return &LedgerService{ledger: ledger, accounts: accounts, events: events}
}

type accountEventPayload struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	AccountID     uuid.UUID `json:"account_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Reference     *string   `json:"reference"`
}

type transferEventPayload struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	FromAccountID uuid.UUID `json:"from_account_id"`
	ToAccountID   uuid.UUID `json:"to_account_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Reference     *string   `json:"reference"`
}

func (s *LedgerService) Deposit(ctx context.Context, req domain.DepositRequest) (*domain.Transaction, error) {
	if err := validateMoney(req.Amount, req.Currency); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	tx, created, err := s.ledger.Deposit(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}
	if !created {
		logging.FromContext(ctx).Info("deposit replayed",
			"transaction_id", tx.ID,
			"account_id", req.AccountID,
		)
		return tx, nil
	}

	logging.FromContext(ctx).Info("deposit completed",
		"transaction_id", tx.ID,
		"account_id", req.AccountID,
		"amount", tx.Amount.Amount,
		"currency", tx.Amount.Currency,
	)

	s.emit(ctx, EventDepositSuccess, accountEventPayload{
		TransactionID: tx.ID,
		AccountID:     req.AccountID,
		Amount:        tx.Amount.Amount,
		Currency:      tx.Amount.Currency.Code(),
		Reference:     tx.Reference,
	})

	return tx, nil
}

func (s *LedgerService) Withdraw(ctx context.Context, req domain.WithdrawRequest) (*domain.Transaction, error) {
	if err := validateMoney(req.Amount, req.Currency); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	tx, created, err := s.ledger.Withdraw(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	if !created {
		logging.FromContext(ctx).Info("withdrawal replayed",
			"transaction_id", tx.ID,
			"account_id", req.AccountID,
		)
		return tx, nil
	}

	logging.FromContext(ctx).Info("withdrawal completed",
		"transaction_id", tx.ID,
		"account_id", req.AccountID,
		"amount", tx.Amount.Amount,
		"currency", tx.Amount.Currency,
	)

	s.emit(ctx, EventWithdrawSuccess, accountEventPayload{
		TransactionID: tx.ID,
		AccountID:     req.AccountID,
		Amount:        tx.Amount.Amount,
		Currency:      tx.Amount.Currency.Code(),
		Reference:     tx.Reference,
	})

	return tx, nil
}

func (s *LedgerService) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.Transaction, error) {
	if err := validateMoney(req.Amount, req.Currency); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	if req.FromAccountID == req.ToAccountID {
		return nil, fmt.Errorf("Transfer: %w", domain.ErrSelfTransfer)
	}

	tx, created, err := s.ledger.Transfer(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	if !created {
		logging.FromContext(ctx).Info("transfer replayed",
			"transaction_id", tx.ID,
			"from_account_id", req.FromAccountID,
			"to_account_id", req.ToAccountID,
		)
		return tx, nil
	}

	logging.FromContext(ctx).Info("transfer completed",
		"transaction_id", tx.ID,
		"from_account_id", req.FromAccountID,
		"to_account_id", req.ToAccountID,
		"amount", tx.Amount.Amount,
		"currency", tx.Amount.Currency,
	)

	s.emit(ctx, EventTransferSuccess, transferEventPayload{
		TransactionID: tx.ID,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        tx.Amount.Amount,
		Currency:      tx.Amount.Currency.Code(),
		Reference:     tx.Reference,
	})

	return tx, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return tx, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}

	txs, err := s.ledger.ListForAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return txs, nil
}

// emit persists one webhook event per active endpoint subscribed to the
// event type. The ledger mutation has already committed, so failures here
// are logged and swallowed; notifications are advisory.
func (s *LedgerService) emit(ctx context.Context, eventType string, payload any) {
	log := logging.FromContext(ctx)

	endpoints, err := s.events.ListEndpoints(ctx)
	if err != nil {
		log.Error("failed to list webhook endpoints", "event_type", eventType, "error", err)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to encode webhook payload", "event_type", eventType, "error", err)
		return
	}

	for _, endpoint := range endpoints {
		if !endpoint.SubscribesTo(eventType) {
			continue
		}
		if _, err := s.events.CreateEvent(ctx, endpoint.ID, eventType, body); err != nil {
			log.Error("failed to enqueue webhook event",
				"endpoint_id", endpoint.ID,
				"event_type", eventType,
				"error", err,
			)
		}
	}
}

func validateMoney(amount int64, currency domain.Currency) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if !currency.IsValid() {
		return fmt.Errorf("%q: %w", currency, domain.ErrInvalidCurrency)
	}
	return nil
}
