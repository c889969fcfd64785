// Command webhook-receiver is a local endpoint for exercising webhook
// deliveries during development. Point a registered webhook at it and it
// logs every event it receives, verifying signatures when WEBHOOK_SECRET
// is set.
package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/castlepay/payments/internal/auth"
	"github.com/castlepay/payments/internal/logging"
)

func main() {
	logging.Init("webhook-receiver", "info", os.Getenv("APP_ENV"))

	addr := os.Getenv("RECEIVER_ADDR")
	if addr == "" {
		addr = ":8081"
	}
	secret := os.Getenv("WEBHOOK_SECRET")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})
	mux.HandleFunc("POST /", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var delivery struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &delivery); err != nil {
			slog.Warn("undecodable delivery", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		attrs := []any{
			"event", delivery.Event,
			"event_id", r.Header.Get("X-Webhook-Event-Id"),
			"payload", string(delivery.Data),
		}
		if secret != "" {
			ok := auth.VerifySignature(delivery.Data, r.Header.Get("X-Webhook-Signature"), secret)
			attrs = append(attrs, "signature_ok", ok)
		}

		slog.Info("delivery received", attrs...)
		w.WriteHeader(http.StatusOK)
	})

	slog.Info("webhook receiver started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
