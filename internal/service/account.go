package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/castlepay/payments/internal/domain"
	"github.com/castlepay/payments/internal/logging"
)

type accountRepo interface {
	Create(ctx context.Context, name string, currency domain.Currency) (*domain.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
}

type AccountService struct {
	accounts accountRepo
}

func NewAccountService(accounts accountRepo) *AccountService {
	return &AccountService{accounts: accounts}
}

func (s *AccountService) CreateAccount(ctx context.Context, name string, currency domain.Currency) (*domain.Account, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("CreateAccount: %w", domain.ErrInvalidName)
	}
	if !currency.IsValid() {
		return nil, fmt.Errorf("CreateAccount: %q: %w", currency, domain.ErrInvalidCurrency)
	}

	account, err := s.accounts.Create(ctx, name, currency)
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	logging.FromContext(ctx).Info("account created",
		"account_id", account.ID,
		"name", account.Name,
		"currency", account.Currency(),
	)

	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return account, nil
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}
