package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/castlepay/payments/internal/auth"
	"github.com/castlepay/payments/internal/domain"
)

func adminKey() *domain.APIKey {
	return domain.NewAPIKey("admin", "hash-admin", nil)
}

func scopedKey(accountID uuid.UUID) *domain.APIKey {
	return domain.NewAPIKey("scoped", "hash-scoped", &accountID)
}

// authedRequest builds a request as it arrives past the auth middleware,
// with the API key already on the context.
func authedRequest(method, target, body string, key *domain.APIKey) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if key != nil {
		req = req.WithContext(auth.ContextWithAPIKey(req.Context(), key))
	}
	return req
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) (string, int) {
	t.Helper()
	var body struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error, body.Code
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
