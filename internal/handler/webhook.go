package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/castlepay/payments/internal/domain"
	"github.com/castlepay/payments/internal/logging"
)

type webhookService interface {
	RegisterEndpoint(ctx context.Context, url string, events []string) (*domain.WebhookEndpoint, error)
	ListEndpoints(ctx context.Context) ([]domain.WebhookEndpoint, error)
}

type WebhookHandler struct {
	webhooks webhookService
}

func NewWebhookHandler(webhooks webhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

type registerWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

func (r registerWebhookRequest) Validate() []FieldError {
	var errs []FieldError
	if r.URL == "" {
		errs = append(errs, FieldError{Field: "url", Message: "required"})
	}
	return errs
}

// registeredWebhookDTO includes the signing secret; it is only rendered at
// registration time.
type registeredWebhookDTO struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	Secret   string    `json:"secret"`
	Events   []string  `json:"events"`
	IsActive bool      `json:"is_active"`
}

type webhookDTO struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	Events   []string  `json:"events"`
	IsActive bool      `json:"is_active"`
}

func (h *WebhookHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	endpoint, err := h.webhooks.RegisterEndpoint(r.Context(), req.URL, req.Events)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to register webhook", "url", req.URL, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, registeredWebhookDTO{
		ID:       endpoint.ID,
		URL:      endpoint.URL,
		Secret:   endpoint.Secret,
		Events:   endpoint.Events,
		IsActive: endpoint.IsActive,
	})
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	endpoints, err := h.webhooks.ListEndpoints(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list webhooks", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]webhookDTO, len(endpoints))
	for i, ep := range endpoints {
		dtos[i] = webhookDTO{
			ID:       ep.ID,
			URL:      ep.URL,
			Events:   ep.Events,
			IsActive: ep.IsActive,
		}
	}

	RespondJSON(w, http.StatusOK, dtos)
}
