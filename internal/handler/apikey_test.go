package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlepay/payments/internal/domain"
)

type mockAPIKeyService struct {
	raw          string
	keys         []domain.APIKey
	bootstrapErr error
	deleteErr    error
	created      []string
	deleted      []uuid.UUID
}

func (m *mockAPIKeyService) Bootstrap(_ context.Context, name string) (string, error) {
	if m.bootstrapErr != nil {
		return "", m.bootstrapErr
	}
	m.created = append(m.created, name)
	return m.raw, nil
}

func (m *mockAPIKeyService) CreateKey(_ context.Context, name string) (string, error) {
	m.created = append(m.created, name)
	return m.raw, nil
}

func (m *mockAPIKeyService) ListKeys(_ context.Context) ([]domain.APIKey, error) {
	return m.keys, nil
}

func (m *mockAPIKeyService) DeleteKey(_ context.Context, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func TestAPIKeyHandler_Bootstrap(t *testing.T) {
	svc := &mockAPIKeyService{raw: "sk_first"}
	h := NewAPIKeyHandler(svc)

	// Bootstrap carries no key: it runs before any key exists.
	rec := httptest.NewRecorder()
	h.Bootstrap(rec, authedRequest(http.MethodPost, "/api/bootstrap", `{"name":"first"}`, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody[createdKeyResponse](t, rec)
	assert.Equal(t, "sk_first", body.APIKey)
	assert.Equal(t, "First API key created. Save this key securely - it won't be shown again!", body.Message)
}

func TestAPIKeyHandler_Bootstrap_Closed(t *testing.T) {
	svc := &mockAPIKeyService{bootstrapErr: domain.ErrBootstrapClosed}
	h := NewAPIKeyHandler(svc)

	rec := httptest.NewRecorder()
	h.Bootstrap(rec, authedRequest(http.MethodPost, "/api/bootstrap", `{"name":"second"}`, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, _ := decodeErrorBody(t, rec)
	assert.Equal(t, "Bootstrap not allowed: API keys already exist. Use an existing key to create new ones.", msg)
}

func TestAPIKeyHandler_Bootstrap_NameRequired(t *testing.T) {
	svc := &mockAPIKeyService{}
	h := NewAPIKeyHandler(svc)

	rec := httptest.NewRecorder()
	h.Bootstrap(rec, authedRequest(http.MethodPost, "/api/bootstrap", `{}`, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, _ := decodeErrorBody(t, rec)
	assert.Equal(t, "name: required", msg)
	assert.Empty(t, svc.created)
}

func TestAPIKeyHandler_Create(t *testing.T) {
	svc := &mockAPIKeyService{raw: "sk_new"}
	h := NewAPIKeyHandler(svc)

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/api/keys", `{"name":"ci"}`, adminKey()))

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody[createdKeyResponse](t, rec)
	assert.Equal(t, "sk_new", body.APIKey)
	assert.Equal(t, "API key created. Save this key securely - it won't be shown again!", body.Message)
	assert.Equal(t, []string{"ci"}, svc.created)
}

func TestAPIKeyHandler_KeyManagementRequiresAdmin(t *testing.T) {
	svc := &mockAPIKeyService{raw: "sk_new"}
	h := NewAPIKeyHandler(svc)
	scoped := scopedKey(uuid.New())

	calls := []struct {
		name string
		do   func(rec *httptest.ResponseRecorder)
	}{
		{name: "create", do: func(rec *httptest.ResponseRecorder) {
			h.Create(rec, authedRequest(http.MethodPost, "/api/keys", `{"name":"ci"}`, scoped))
		}},
		{name: "list", do: func(rec *httptest.ResponseRecorder) {
			h.List(rec, authedRequest(http.MethodGet, "/api/keys", "", scoped))
		}},
		{name: "delete", do: func(rec *httptest.ResponseRecorder) {
			req := authedRequest(http.MethodDelete, "/api/keys/"+uuid.NewString(), "", scoped)
			req.SetPathValue("id", uuid.NewString())
			h.Delete(rec, req)
		}},
	}

	for _, tc := range calls {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.do(rec)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			msg, _ := decodeErrorBody(t, rec)
			assert.Equal(t, "Access denied: admin API key required", msg)
		})
	}
	assert.Empty(t, svc.created)
	assert.Empty(t, svc.deleted)
}

func TestAPIKeyHandler_List(t *testing.T) {
	key := domain.NewAPIKey("ci", "hash", nil)
	svc := &mockAPIKeyService{keys: []domain.APIKey{*key}}
	h := NewAPIKeyHandler(svc)

	rec := httptest.NewRecorder()
	h.List(rec, authedRequest(http.MethodGet, "/api/keys", "", adminKey()))

	require.Equal(t, http.StatusOK, rec.Code)
	dtos := decodeBody[[]apiKeyDTO](t, rec)
	require.Len(t, dtos, 1)
	assert.Equal(t, key.ID, dtos[0].ID)
	assert.Equal(t, "ci", dtos[0].Name)
	assert.True(t, dtos[0].IsActive)

	// Listings never leak raw keys or hashes.
	assert.NotContains(t, rec.Body.String(), "hash")
	assert.NotContains(t, rec.Body.String(), "key_hash")
}

func TestAPIKeyHandler_Delete(t *testing.T) {
	svc := &mockAPIKeyService{}
	h := NewAPIKeyHandler(svc)

	id := uuid.New()
	req := authedRequest(http.MethodDelete, "/api/keys/"+id.String(), "", adminKey())
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, []uuid.UUID{id}, svc.deleted)
}

func TestAPIKeyHandler_Delete_InvalidID(t *testing.T) {
	h := NewAPIKeyHandler(&mockAPIKeyService{})

	req := authedRequest(http.MethodDelete, "/api/keys/nope", "", adminKey())
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, _ := decodeErrorBody(t, rec)
	assert.Equal(t, "Invalid API key ID", msg)
}

func TestAPIKeyHandler_Delete_NotFound(t *testing.T) {
	svc := &mockAPIKeyService{deleteErr: domain.ErrNotFound}
	h := NewAPIKeyHandler(svc)

	id := uuid.New()
	req := authedRequest(http.MethodDelete, "/api/keys/"+id.String(), "", adminKey())
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	msg, _ := decodeErrorBody(t, rec)
	assert.Equal(t, "Resource not found", msg)
}
