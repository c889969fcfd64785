package handler

import "net/http"

type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingAuthHeader = &AppError{http.StatusUnauthorized, "Missing or invalid Authorization header"}
	ErrInvalidAPIKey     = &AppError{http.StatusUnauthorized, "Invalid API key"}
	ErrInvalidRequest    = &AppError{http.StatusBadRequest, "Invalid request body"}
	ErrResourceNotFound  = &AppError{http.StatusNotFound, "Resource not found"}
	ErrInternalError     = &AppError{http.StatusInternalServerError, "An unexpected error occurred"}

	ErrEmptyAccountName      = &AppError{http.StatusBadRequest, "Account name cannot be empty"}
	ErrNonPositiveAmount     = &AppError{http.StatusBadRequest, "Amount must be positive"}
	ErrInvalidCurrency       = &AppError{http.StatusBadRequest, "Invalid currency"}
	ErrCurrencyMismatch      = &AppError{http.StatusBadRequest, "Currency mismatch"}
	ErrInsufficientFunds     = &AppError{http.StatusBadRequest, "Insufficient funds"}
	ErrCrossCurrencyTransfer = &AppError{http.StatusBadRequest, "Cross-currency transfers are not supported"}
	ErrSelfTransfer          = &AppError{http.StatusBadRequest, "Cannot transfer to the same account"}
	ErrEmptyWebhookURL       = &AppError{http.StatusBadRequest, "Webhook URL cannot be empty"}

	ErrInvalidAccountID     = &AppError{http.StatusBadRequest, "Invalid account ID"}
	ErrInvalidTransactionID = &AppError{http.StatusBadRequest, "Invalid transaction ID"}
	ErrInvalidKeyID         = &AppError{http.StatusBadRequest, "Invalid API key ID"}

	ErrAccessDenied  = &AppError{http.StatusBadRequest, "Access denied: API key not authorized for this account"}
	ErrAdminRequired = &AppError{http.StatusBadRequest, "Access denied: admin API key required"}

	ErrBootstrapClosed = &AppError{http.StatusBadRequest, "Bootstrap not allowed: API keys already exist. Use an existing key to create new ones."}
)
