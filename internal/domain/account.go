package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account holds a single-currency balance. The currency is fixed at
// creation; the balance moves only through Credit and Debit.
type Account struct {
	ID        uuid.UUID
	Name      string
	Balance   Money
	CreatedAt time.Time
}

func NewAccount(name string, currency Currency) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("NewAccount: %w", ErrInvalidName)
	}
	if !currency.IsValid() {
		return nil, fmt.Errorf("NewAccount: %q: %w", currency, ErrInvalidCurrency)
	}
	return &Account{
		ID:        uuid.New(),
		Name:      name,
		Balance:   Money{Amount: 0, Currency: currency},
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (a *Account) Currency() Currency { return a.Balance.Currency }

func (a *Account) Credit(m Money) error {
	balance, err := a.Balance.Add(m)
	if err != nil {
		return fmt.Errorf("Credit: %w", err)
	}
	a.Balance = balance
	return nil
}

func (a *Account) Debit(m Money) error {
	balance, err := a.Balance.Sub(m)
	if err != nil {
		return fmt.Errorf("Debit: %w", err)
	}
	a.Balance = balance
	return nil
}
