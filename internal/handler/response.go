package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/castlepay/payments/internal/domain"
)

// errorResponse is the envelope for every non-2xx reply. Success bodies
// are the bare resource; only failures get wrapped.
type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type rateLimitResponse struct {
	Error             string `json:"error"`
	Code              int    `json:"code"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, errorResponse{Error: message, Code: status})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError) {
	RespondError(w, appErr.Status, appErr.Message)
}

func RespondRateLimited(w http.ResponseWriter, retryAfterSeconds int) {
	RespondJSON(w, http.StatusTooManyRequests, rateLimitResponse{
		Error:             "Rate limit exceeded. Please try again later.",
		Code:              http.StatusTooManyRequests,
		RetryAfterSeconds: retryAfterSeconds,
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Field + ": " + f.Message
	}
	RespondError(w, http.StatusBadRequest, strings.Join(parts, "; "))
}

func RespondDomainError(w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientFundsError
	var mismatch *domain.CurrencyMismatchError

	switch {
	case errors.As(err, &insufficient):
		RespondError(w, http.StatusBadRequest, fmt.Sprintf(
			"Insufficient funds: available %d, requested %d",
			insufficient.Available, insufficient.Requested,
		))
		return
	case errors.As(err, &mismatch):
		RespondError(w, http.StatusBadRequest, fmt.Sprintf(
			"Currency mismatch: expected %s, got %s",
			mismatch.Expected, mismatch.Got,
		))
		return
	}

	var appErr *AppError
	switch {
	case errors.Is(err, domain.ErrInvalidName):
		appErr = ErrEmptyAccountName
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrNegativeAmount):
		appErr = ErrNonPositiveAmount
	case errors.Is(err, domain.ErrInvalidCurrency):
		appErr = ErrInvalidCurrency
	case errors.Is(err, domain.ErrCurrencyMismatch):
		appErr = ErrCurrencyMismatch
	case errors.Is(err, domain.ErrInsufficientFunds):
		appErr = ErrInsufficientFunds
	case errors.Is(err, domain.ErrCrossCurrencyTransfer):
		appErr = ErrCrossCurrencyTransfer
	case errors.Is(err, domain.ErrSelfTransfer):
		appErr = ErrSelfTransfer
	case errors.Is(err, domain.ErrInvalidWebhookURL):
		appErr = ErrEmptyWebhookURL
	case errors.Is(err, domain.ErrAccessDenied):
		appErr = ErrAccessDenied
	case errors.Is(err, domain.ErrBootstrapClosed):
		appErr = ErrBootstrapClosed
	case errors.Is(err, domain.ErrNotFound):
		appErr = ErrResourceNotFound
	default:
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}

	RespondAppError(w, appErr)
}
