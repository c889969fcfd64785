package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/castlepay/payments/internal/auth"
	"github.com/castlepay/payments/internal/domain"
)

type deliveryRepo interface {
	ClaimPending(ctx context.Context, limit int) ([]domain.WebhookDelivery, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.WebhookEventStatus, lastError *string) error
}

// DeliveryWorker drains the webhook event queue: it claims pending events,
// POSTs each to its endpoint with an HMAC signature, and records the
// outcome. Delivery is at-least-once; receivers deduplicate by event id.
type DeliveryWorker struct {
	webhooks  deliveryRepo
	client    *http.Client
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewDeliveryWorker(webhooks deliveryRepo, client *http.Client, logger *slog.Logger, interval time.Duration, batchSize int) *DeliveryWorker {
	return &DeliveryWorker{
		webhooks:  webhooks,
		client:    client,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (w *DeliveryWorker) Start(ctx context.Context) {
	w.logger.Info("webhook delivery worker started", "interval", w.interval, "batch_size", w.batchSize)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("webhook delivery worker stopped")
			return
		case <-ticker.C:
			w.deliverBatch(ctx)
		}
	}
}

func (w *DeliveryWorker) deliverBatch(ctx context.Context) {
	deliveries, err := w.webhooks.ClaimPending(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("failed to claim pending webhook events", "error", err)
		return
	}
	if len(deliveries) == 0 {
		return
	}

	// Claimed events would be stranded in PROCESSING if shutdown aborted
	// them mid-flight, so the batch finishes on a detached context.
	ctx = context.WithoutCancel(ctx)
	for i := range deliveries {
		w.deliver(ctx, &deliveries[i])
	}
}

func (w *DeliveryWorker) deliver(ctx context.Context, d *domain.WebhookDelivery) {
	status := domain.WebhookEventStatusCompleted
	var lastError *string

	if err := w.post(ctx, d); err != nil {
		status = domain.WebhookEventStatusFailed
		msg := err.Error()
		lastError = &msg
		w.logger.Warn("webhook delivery failed",
			"event_id", d.Event.ID,
			"event_type", d.Event.EventType,
			"url", d.URL,
			"error", err,
		)
	} else {
		w.logger.Info("webhook delivered",
			"event_id", d.Event.ID,
			"event_type", d.Event.EventType,
			"url", d.URL,
		)
	}

	if err := w.webhooks.UpdateStatus(ctx, d.Event.ID, status, lastError); err != nil {
		w.logger.Error("failed to update webhook event status", "event_id", d.Event.ID, "error", err)
	}
}

type deliveryBody struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// post sends one event. The signature covers the raw payload bytes (the
// "data" value), which the receiver can re-derive from the envelope.
func (w *DeliveryWorker) post(ctx context.Context, d *domain.WebhookDelivery) error {
	body, err := json.Marshal(deliveryBody{Event: d.Event.EventType, Data: d.Event.Payload})
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", auth.SignPayload(d.Event.Payload, d.Secret))
	req.Header.Set("X-Webhook-Event-Id", d.Event.ID.String())
	req.Header.Set("X-Webhook-Event-Type", d.Event.EventType)

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}
