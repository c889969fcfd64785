package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/castlepay/payments/internal/domain"
	"github.com/castlepay/payments/internal/logging"
)

type apiKeyService interface {
	Bootstrap(ctx context.Context, name string) (string, error)
	CreateKey(ctx context.Context, name string) (string, error)
	ListKeys(ctx context.Context) ([]domain.APIKey, error)
	DeleteKey(ctx context.Context, id uuid.UUID) error
}

type APIKeyHandler struct {
	keys apiKeyService
}

func NewAPIKeyHandler(keys apiKeyService) *APIKeyHandler {
	return &APIKeyHandler{keys: keys}
}

type createKeyRequest struct {
	Name string `json:"name"`
}

func (r createKeyRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	return errs
}

// createdKeyResponse carries the raw key. It is rendered exactly once per
// key; listings only ever show metadata.
type createdKeyResponse struct {
	APIKey  string `json:"api_key"`
	Message string `json:"message"`
}

type apiKeyDTO struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

func (h *APIKeyHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	raw, err := h.keys.Bootstrap(r.Context(), req.Name)
	if err != nil {
		logging.FromContext(r.Context()).Warn("bootstrap rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, createdKeyResponse{
		APIKey:  raw,
		Message: "First API key created. Save this key securely - it won't be shown again!",
	})
}

func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	if appErr := requireAdmin(r); appErr != nil {
		RespondAppError(w, appErr)
		return
	}

	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	raw, err := h.keys.CreateKey(r.Context(), req.Name)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create api key", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, createdKeyResponse{
		APIKey:  raw,
		Message: "API key created. Save this key securely - it won't be shown again!",
	})
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	if appErr := requireAdmin(r); appErr != nil {
		RespondAppError(w, appErr)
		return
	}

	keys, err := h.keys.ListKeys(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list api keys", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]apiKeyDTO, len(keys))
	for i, k := range keys {
		dtos[i] = apiKeyDTO{
			ID:         k.ID,
			Name:       k.Name,
			IsActive:   k.IsActive,
			CreatedAt:  k.CreatedAt,
			LastUsedAt: k.LastUsedAt,
		}
	}

	RespondJSON(w, http.StatusOK, dtos)
}

func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if appErr := requireAdmin(r); appErr != nil {
		RespondAppError(w, appErr)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidKeyID)
		return
	}

	if err := h.keys.DeleteKey(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
