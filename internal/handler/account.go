package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/castlepay/payments/internal/domain"
	"github.com/castlepay/payments/internal/logging"
)

type accountService interface {
	CreateAccount(ctx context.Context, name string, currency domain.Currency) (*domain.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type createAccountRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

func (r createAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Currency != "" {
		if _, err := domain.ParseCurrency(r.Currency); err != nil {
			errs = append(errs, FieldError{Field: "currency", Message: "must be USD, EUR, GBP, or INR"})
		}
	}
	return errs
}

type accountDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Balance  int64     `json:"balance"`
	Currency string    `json:"currency"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:       a.ID,
		Name:     a.Name,
		Balance:  a.Balance.Amount,
		Currency: a.Currency().Code(),
	}
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	// Omitted currency defaults to USD.
	currency := domain.CurrencyUSD
	if req.Currency != "" {
		currency, _ = domain.ParseCurrency(req.Currency)
	}

	account, err := h.accounts.CreateAccount(r.Context(), req.Name, currency)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidAccountID)
		return
	}

	if appErr := requireAccountAccess(r, id); appErr != nil {
		RespondAppError(w, appErr)
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, toAccountDTO(account))
}

// List returns every account for admin keys and exactly the bound account
// for scoped keys.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	key, appErr := keyFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr)
		return
	}

	if key.AccountID != nil {
		account, err := h.accounts.GetAccount(r.Context(), *key.AccountID)
		if err != nil {
			RespondDomainError(w, err)
			return
		}
		RespondJSON(w, http.StatusOK, []accountDTO{toAccountDTO(account)})
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list accounts", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}

	RespondJSON(w, http.StatusOK, dtos)
}
