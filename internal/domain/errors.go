package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidName             = errors.New("account name cannot be empty")
	ErrNegativeAmount          = errors.New("amount cannot be negative")
	ErrInvalidAmount           = errors.New("amount must be greater than zero")
	ErrInvalidCurrency         = errors.New("invalid currency")
	ErrCurrencyMismatch        = errors.New("currency mismatch")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrCrossCurrencyTransfer   = errors.New("cross-currency transfers are not supported")
	ErrSelfTransfer            = errors.New("cannot transfer to the same account")
	ErrAccessDenied            = errors.New("access denied: API key not authorized for this account")
	ErrBootstrapClosed         = errors.New("bootstrap not allowed: API keys already exist")
	ErrInvalidWebhookURL       = errors.New("webhook URL cannot be empty")
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
)

// InsufficientFundsError carries the balances the caller needs to build a
// useful rejection. errors.Is(err, ErrInsufficientFunds) still matches.
type InsufficientFundsError struct {
	Available int64
	Requested int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %d, requested %d", e.Available, e.Requested)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

type CurrencyMismatchError struct {
	Expected Currency
	Got      Currency
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("currency mismatch: expected %s, got %s", e.Expected, e.Got)
}

func (e *CurrencyMismatchError) Unwrap() error { return ErrCurrencyMismatch }
