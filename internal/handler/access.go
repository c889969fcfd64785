package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/castlepay/payments/internal/auth"
	"github.com/castlepay/payments/internal/domain"
)

// keyFromRequest returns the API key the auth middleware attached. Routes
// behind the gate always have one; a miss means the route was wired
// without auth.
func keyFromRequest(r *http.Request) (*domain.APIKey, *AppError) {
	key, ok := auth.APIKeyFromContext(r.Context())
	if !ok {
		return nil, ErrInvalidAPIKey
	}
	return key, nil
}

// requireAccountAccess rejects scoped keys referencing any account other
// than their own. Admin keys pass.
func requireAccountAccess(r *http.Request, accountID uuid.UUID) *AppError {
	key, appErr := keyFromRequest(r)
	if appErr != nil {
		return appErr
	}
	if !key.CanAccess(accountID) {
		return ErrAccessDenied
	}
	return nil
}

func requireAdmin(r *http.Request) *AppError {
	key, appErr := keyFromRequest(r)
	if appErr != nil {
		return appErr
	}
	if !key.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}
