package service

import (
	"context"
	"fmt"

	"github.com/castlepay/payments/internal/domain"
	"github.com/castlepay/payments/internal/logging"
)

type webhookEndpointRepo interface {
	RegisterEndpoint(ctx context.Context, url string, events []string) (*domain.WebhookEndpoint, error)
	ListEndpoints(ctx context.Context) ([]domain.WebhookEndpoint, error)
}

type WebhookService struct {
	webhooks webhookEndpointRepo
}

func NewWebhookService(webhooks webhookEndpointRepo) *WebhookService {
	return &WebhookService{webhooks: webhooks}
}

// RegisterEndpoint stores a delivery target. The generated signing secret
// is part of the returned endpoint; callers show it once and never again.
func (s *WebhookService) RegisterEndpoint(ctx context.Context, url string, events []string) (*domain.WebhookEndpoint, error) {
	endpoint, err := s.webhooks.RegisterEndpoint(ctx, url, events)
	if err != nil {
		return nil, fmt.Errorf("RegisterEndpoint: %w", err)
	}

	logging.FromContext(ctx).Info("webhook endpoint registered",
		"endpoint_id", endpoint.ID,
		"url", endpoint.URL,
		"events", endpoint.Events,
	)

	return endpoint, nil
}

func (s *WebhookService) ListEndpoints(ctx context.Context) ([]domain.WebhookEndpoint, error) {
	endpoints, err := s.webhooks.ListEndpoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListEndpoints: %w", err)
	}
	return endpoints, nil
}
