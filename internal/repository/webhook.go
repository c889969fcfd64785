package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/castlepay/payments/internal/auth"
	"github.com/castlepay/payments/internal/domain"
	"github.com/google/uuid"
)

const webhookEndpointColumns = `id, url, secret, events, is_active, created_at`

const webhookEventColumns = `id, endpoint_id, event_type, payload, status,
	created_at, processed_at, attempts, last_error`

type WebhookRepository struct {
	db *sql.DB
}

func NewWebhookRepository(db *sql.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

// RegisterEndpoint stores a new delivery target with a freshly generated
// signing secret. The secret is returned to the caller exactly once; after
// this the server only uses it to sign outbound payloads.
func (r *WebhookRepository) RegisterEndpoint(ctx context.Context, url string, events []string) (*domain.WebhookEndpoint, error) {
	secret, err := auth.NewWebhookSecret()
	if err != nil {
		return nil, fmt.Errorf("RegisterEndpoint: %w", err)
	}

	endpoint, err := domain.NewWebhookEndpoint(url, secret, events)
	if err != nil {
		return nil, fmt.Errorf("RegisterEndpoint: %w", err)
	}

	eventsJSON, err := json.Marshal(endpoint.Events)
	if err != nil {
		return nil, fmt.Errorf("RegisterEndpoint: marshal events: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO webhook_endpoints (id, url, secret, events, is_active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, $5)`,
		endpoint.ID, endpoint.URL, endpoint.Secret, eventsJSON, endpoint.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("RegisterEndpoint: %w", err)
	}
	return endpoint, nil
}

func (r *WebhookRepository) ListEndpoints(ctx context.Context) ([]domain.WebhookEndpoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+webhookEndpointColumns+` FROM webhook_endpoints
		WHERE is_active = TRUE ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListEndpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []domain.WebhookEndpoint
	for rows.Next() {
		e, err := scanWebhookEndpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("ListEndpoints: scan: %w", err)
		}
		endpoints = append(endpoints, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListEndpoints: rows: %w", err)
	}
	return endpoints, nil
}

func (r *WebhookRepository) CreateEvent(ctx context.Context, endpointID uuid.UUID, eventType string, payload json.RawMessage) (*domain.WebhookEvent, error) {
	event := domain.NewWebhookEvent(endpointID, eventType, payload)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO webhook_events (id, endpoint_id, event_type, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)`,
		event.ID, event.EndpointID, event.EventType, []byte(event.Payload),
		event.Status, event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("CreateEvent: %w", err)
	}
	return event, nil
}

// ClaimPending atomically moves up to limit of the oldest PENDING events to
// PROCESSING and returns them joined with their endpoint's URL and secret.
// The skip-locked subquery and the status flip run in one statement, so
// parallel workers never claim the same row.
func (r *WebhookRepository) ClaimPending(ctx context.Context, limit int) ([]domain.WebhookDelivery, error) {
	rows, err := r.db.QueryContext(ctx,
		`WITH claimed AS (
			UPDATE webhook_events SET status = $1
			WHERE id IN (
				SELECT id FROM webhook_events
				WHERE status = $2
				ORDER BY created_at
				LIMIT $3
				FOR UPDATE SKIP LOCKED
			)
			RETURNING `+webhookEventColumns+`
		)
		SELECT c.id, c.endpoint_id, c.event_type, c.payload, c.status,
			c.created_at, c.processed_at, c.attempts, c.last_error,
			e.url, e.secret
		FROM claimed c
		JOIN webhook_endpoints e ON e.id = c.endpoint_id
		ORDER BY c.created_at`,
		domain.WebhookEventStatusProcessing, domain.WebhookEventStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ClaimPending: %w", err)
	}
	defer rows.Close()

	var deliveries []domain.WebhookDelivery
	for rows.Next() {
		var d domain.WebhookDelivery
		var processedAt sql.NullTime
		var lastError sql.NullString
		err := rows.Scan(
			&d.Event.ID, &d.Event.EndpointID, &d.Event.EventType, &d.Event.Payload,
			&d.Event.Status, &d.Event.CreatedAt, &processedAt, &d.Event.Attempts,
			&lastError, &d.URL, &d.Secret,
		)
		if err != nil {
			return nil, fmt.Errorf("ClaimPending: scan: %w", err)
		}
		if processedAt.Valid {
			d.Event.ProcessedAt = &processedAt.Time
		}
		if lastError.Valid {
			d.Event.LastError = &lastError.String
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ClaimPending: rows: %w", err)
	}
	return deliveries, nil
}

// UpdateStatus records the outcome of a delivery attempt. It stamps
// processed_at and increments attempts on every transition, including
// COMPLETED.
func (r *WebhookRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.WebhookEventStatus, lastError *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE webhook_events
		SET status = $1, last_error = $2, processed_at = now(), attempts = attempts + 1
		WHERE id = $3`,
		status, lastError, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func scanWebhookEndpoint(s scanner) (*domain.WebhookEndpoint, error) {
	var e domain.WebhookEndpoint
	var eventsJSON []byte
	err := s.Scan(&e.ID, &e.URL, &e.Secret, &eventsJSON, &e.IsActive, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(eventsJSON, &e.Events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return &e, nil
}
