package domain

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// WebhookEndpoint is a delivery target. The secret signs outbound
// payloads and is shown to the registrant exactly once.
type WebhookEndpoint struct {
	ID        uuid.UUID
	URL       string
	Secret    string
	Events    []string
	IsActive  bool
	CreatedAt time.Time
}

// NewWebhookEndpoint validates the URL and normalizes a nil event list to
// empty so it always serializes as a JSON array.
func NewWebhookEndpoint(url, secret string, events []string) (*WebhookEndpoint, error) {
	if url == "" {
		return nil, ErrInvalidWebhookURL
	}
	if events == nil {
		events = []string{}
	}
	return &WebhookEndpoint{
		ID:        uuid.New(),
		URL:       url,
		Secret:    secret,
		Events:    events,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SubscribesTo is a strict membership test: an empty Events list
// subscribes to nothing.
func (e *WebhookEndpoint) SubscribesTo(eventType string) bool {
	return slices.Contains(e.Events, eventType)
}

type WebhookEventStatus string

const (
	WebhookEventStatusPending    WebhookEventStatus = "PENDING"
	WebhookEventStatusProcessing WebhookEventStatus = "PROCESSING"
	WebhookEventStatusCompleted  WebhookEventStatus = "COMPLETED"
	WebhookEventStatusFailed     WebhookEventStatus = "FAILED"
)

// WebhookEvent moves PENDING → PROCESSING (claimed) → COMPLETED or
// FAILED. Failed is terminal; there is no retry beyond the attempt that
// marked it.
type WebhookEvent struct {
	ID          uuid.UUID
	EndpointID  uuid.UUID
	EventType   string
	Payload     json.RawMessage
	Status      WebhookEventStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
	Attempts    int
	LastError   *string
}

func NewWebhookEvent(endpointID uuid.UUID, eventType string, payload json.RawMessage) *WebhookEvent {
	return &WebhookEvent{
		ID:         uuid.New(),
		EndpointID: endpointID,
		EventType:  eventType,
		Payload:    payload,
		Status:     WebhookEventStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
}

// WebhookDelivery is a claimed event joined with the endpoint coordinates
// needed to send it.
type WebhookDelivery struct {
	Event  WebhookEvent
	URL    string
	Secret string
}
