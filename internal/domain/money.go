package domain

import (
	"fmt"
	"math"
)

// Money is an amount in the minor unit of its currency. Balances and
// transaction amounts never touch floating point.
type Money struct {
	Amount   int64    `json:"amount"`
	Currency Currency `json:"currency"`
}

// NewMoney rejects negative amounts; ledger internals that need signed
// deltas work on raw int64 instead.
func NewMoney(amount int64, currency Currency) (Money, error) {
	if !currency.IsValid() {
		return Money{}, fmt.Errorf("NewMoney: %q: %w", currency, ErrInvalidCurrency)
	}
	if amount < 0 {
		return Money{}, fmt.Errorf("NewMoney: %d: %w", amount, ErrNegativeAmount)
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// Add saturates at math.MaxInt64 instead of overflowing.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, &CurrencyMismatchError{Expected: m.Currency, Got: other.Currency}
	}
	sum := m.Amount + other.Amount
	if sum < m.Amount {
		sum = math.MaxInt64
	}
	return Money{Amount: sum, Currency: m.Currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, &CurrencyMismatchError{Expected: m.Currency, Got: other.Currency}
	}
	if other.Amount > m.Amount {
		return Money{}, &InsufficientFundsError{Available: m.Amount, Requested: other.Amount}
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// String renders {symbol}{major}.{minor:02}, e.g. $104.50.
func (m Money) String() string {
	per := m.Currency.MinorPerMajor()
	major := m.Amount / per
	minor := m.Amount % per
	if minor < 0 {
		minor = -minor
	}
	if m.Amount < 0 && major == 0 {
		return fmt.Sprintf("-%s0.%02d", m.Currency.Symbol(), minor)
	}
	return fmt.Sprintf("%s%d.%02d", m.Currency.Symbol(), major, minor)
}
