package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/castlepay/payments/internal/domain"
	"github.com/castlepay/payments/internal/logging"
)

type ledgerService interface {
	Deposit(ctx context.Context, req domain.DepositRequest) (*domain.Transaction, error)
	Withdraw(ctx context.Context, req domain.WithdrawRequest) (*domain.Transaction, error)
	Transfer(ctx context.Context, req domain.TransferRequest) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error)
}

type TransactionHandler struct {
	ledger ledgerService
}

func NewTransactionHandler(ledger ledgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

type accountTransactionRequest struct {
	AccountID      string  `json:"account_id"`
	Amount         int64   `json:"amount"`
	Currency       string  `json:"currency"`
	IdempotencyKey *string `json:"idempotency_key"`
	Reference      *string `json:"reference"`
}

func (r accountTransactionRequest) Validate() []FieldError {
	var errs []FieldError

	if r.AccountID == "" {
		errs = append(errs, FieldError{Field: "account_id", Message: "required"})
	} else if _, err := uuid.Parse(r.AccountID); err != nil {
		errs = append(errs, FieldError{Field: "account_id", Message: "must be a valid UUID"})
	}

	errs = append(errs, validateMoneyFields(r.Amount, r.Currency)...)

	return errs
}

type transferRequest struct {
	FromAccountID  string  `json:"from_account_id"`
	ToAccountID    string  `json:"to_account_id"`
	Amount         int64   `json:"amount"`
	Currency       string  `json:"currency"`
	IdempotencyKey *string `json:"idempotency_key"`
	Reference      *string `json:"reference"`
}

func (r transferRequest) Validate() []FieldError {
	var errs []FieldError

	if r.FromAccountID == "" {
		errs = append(errs, FieldError{Field: "from_account_id", Message: "required"})
	} else if _, err := uuid.Parse(r.FromAccountID); err != nil {
		errs = append(errs, FieldError{Field: "from_account_id", Message: "must be a valid UUID"})
	}

	if r.ToAccountID == "" {
		errs = append(errs, FieldError{Field: "to_account_id", Message: "required"})
	} else if _, err := uuid.Parse(r.ToAccountID); err != nil {
		errs = append(errs, FieldError{Field: "to_account_id", Message: "must be a valid UUID"})
	}

	errs = append(errs, validateMoneyFields(r.Amount, r.Currency)...)

	return errs
}

func validateMoneyFields(amount int64, currency string) []FieldError {
	var errs []FieldError

	if amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}

	if currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	} else if _, err := domain.ParseCurrency(currency); err != nil {
		errs = append(errs, FieldError{Field: "currency", Message: "must be USD, EUR, GBP, or INR"})
	}

	return errs
}

type transactionDTO struct {
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

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:                   t.ID,
		Direction:            string(t.Direction),
		Amount:               t.Amount.Amount,
		Currency:             t.Amount.Currency.Code(),
		SourceAccountID:      t.SourceAccountID,
		DestinationAccountID: t.DestinationAccountID,
		IdempotencyKey:       t.IdempotencyKey,
		Reference:            t.Reference,
		CreatedAt:            t.CreatedAt,
	}
}

func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req accountTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	accountID, _ := uuid.Parse(req.AccountID)
	currency, _ := domain.ParseCurrency(req.Currency)

	if appErr := requireAccountAccess(r, accountID); appErr != nil {
		RespondAppError(w, appErr)
		return
	}

	tx, err := h.ledger.Deposit(r.Context(), domain.DepositRequest{
		AccountID:      accountID,
		Amount:         req.Amount,
		Currency:       currency,
		IdempotencyKey: req.IdempotencyKey,
		Reference:      req.Reference,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("deposit rejected", "account_id", accountID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, toTransactionDTO(tx))
}

func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req accountTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	accountID, _ := uuid.Parse(req.AccountID)
	currency, _ := domain.ParseCurrency(req.Currency)

	if appErr := requireAccountAccess(r, accountID); appErr != nil {
		RespondAppError(w, appErr)
		return
	}

	tx, err := h.ledger.Withdraw(r.Context(), domain.WithdrawRequest{
		AccountID:      accountID,
		Amount:         req.Amount,
		Currency:       currency,
		IdempotencyKey: req.IdempotencyKey,
		Reference:      req.Reference,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("withdrawal rejected", "account_id", accountID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, toTransactionDTO(tx))
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	fromID, _ := uuid.Parse(req.FromAccountID)
	toID, _ := uuid.Parse(req.ToAccountID)
	currency, _ := domain.ParseCurrency(req.Currency)

	// Scoped keys may move money out of their own account only; the
	// destination is unrestricted.
	if appErr := requireAccountAccess(r, fromID); appErr != nil {
		RespondAppError(w, appErr)
		return
	}

	tx, err := h.ledger.Transfer(r.Context(), domain.TransferRequest{
		FromAccountID:  fromID,
		ToAccountID:    toID,
		Amount:         req.Amount,
		Currency:       currency,
		IdempotencyKey: req.IdempotencyKey,
		Reference:      req.Reference,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("transfer rejected",
			"from_account_id", fromID,
			"to_account_id", toID,
			"error", err,
		)
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, toTransactionDTO(tx))
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidTransactionID)
		return
	}

	tx, err := h.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	if appErr := transactionAccess(r, tx); appErr != nil {
		RespondAppError(w, appErr)
		return
	}

	RespondJSON(w, http.StatusOK, toTransactionDTO(tx))
}

func (h *TransactionHandler) ListForAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidAccountID)
		return
	}

	if appErr := requireAccountAccess(r, id); appErr != nil {
		RespondAppError(w, appErr)
		return
	}

	txs, err := h.ledger.ListTransactions(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, len(txs))
	for i := range txs {
		dtos[i] = toTransactionDTO(&txs[i])
	}

	RespondJSON(w, http.StatusOK, dtos)
}

// transactionAccess admits a scoped key when its account is on either side
// of the transaction.
func transactionAccess(r *http.Request, t *domain.Transaction) *AppError {
	key, appErr := keyFromRequest(r)
	if appErr != nil {
		return appErr
	}
	if key.IsAdmin() {
		return nil
	}
	if t.SourceAccountID != nil && key.CanAccess(*t.SourceAccountID) {
		return nil
	}
	if t.DestinationAccountID != nil && key.CanAccess(*t.DestinationAccountID) {
		return nil
	}
	return ErrAccessDenied
}
