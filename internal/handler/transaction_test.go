package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlepay/payments/internal/domain"
)

type mockLedgerService struct {
	tx       *domain.Transaction
	txs      []domain.Transaction
	err      error
	deposits []domain.DepositRequest
	transfer *domain.TransferRequest
}

func (m *mockLedgerService) Deposit(_ context.Context, req domain.DepositRequest) (*domain.Transaction, error) {
	m.deposits = append(m.deposits, req)
	return m.tx, m.err
}

func (m *mockLedgerService) Withdraw(_ context.Context, req domain.WithdrawRequest) (*domain.Transaction, error) {
	return m.tx, m.err
}

func (m *mockLedgerService) Transfer(_ context.Context, req domain.TransferRequest) (*domain.Transaction, error) {
	m.transfer = &req
	return m.tx, m.err
}

func (m *mockLedgerService) GetTransaction(_ context.Context, _ uuid.UUID) (*domain.Transaction, error) {
	return m.tx, m.err
}

func (m *mockLedgerService) ListTransactions(_ context.Context, _ uuid.UUID) ([]domain.Transaction, error) {
	return m.txs, m.err
}

func TestTransactionHandler_Deposit(t *testing.T) {
	accountID := uuid.New()
	txn := domain.NewDeposit(accountID, domain.Money{Amount: 2500, Currency: domain.CurrencyUSD}, nil, nil)
	svc := &mockLedgerService{tx: txn}
	h := NewTransactionHandler(svc)

	body := fmt.Sprintf(`{"account_id":%q,"amount":2500,"currency":"usd"}`, accountID)
	rec := httptest.NewRecorder()
	h.Deposit(rec, authedRequest(http.MethodPost, "/api/transactions/deposit", body, adminKey()))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.deposits, 1)
	assert.Equal(t, domain.CurrencyUSD, svc.deposits[0].Currency, "currency parsing is case-insensitive")

	dto := decodeBody[transactionDTO](t, rec)
	assert.Equal(t, txn.ID, dto.ID)
	assert.Equal(t, "DEPOSIT", dto.Direction)
	assert.Equal(t, int64(2500), dto.Amount)
	require.NotNil(t, dto.DestinationAccountID)
	assert.Equal(t, accountID, *dto.DestinationAccountID)
	assert.Nil(t, dto.SourceAccountID)
}

func TestTransactionHandler_Deposit_Validation(t *testing.T) {
	accountID := uuid.New()

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{
			name:    "missing account id",
			body:    `{"amount":100,"currency":"USD"}`,
			wantMsg: "account_id: required",
		},
		{
			name:    "malformed account id",
			body:    `{"account_id":"abc","amount":100,"currency":"USD"}`,
			wantMsg: "account_id: must be a valid UUID",
		},
		{
			name:    "zero amount",
			body:    fmt.Sprintf(`{"account_id":%q,"amount":0,"currency":"USD"}`, accountID),
			wantMsg: "amount: must be greater than 0",
		},
		{
			name:    "negative amount",
			body:    fmt.Sprintf(`{"account_id":%q,"amount":-5,"currency":"USD"}`, accountID),
			wantMsg: "amount: must be greater than 0",
		},
		{
			name:    "missing currency",
			body:    fmt.Sprintf(`{"account_id":%q,"amount":100}`, accountID),
			wantMsg: "currency: required",
		},
		{
			name:    "unknown currency",
			body:    fmt.Sprintf(`{"account_id":%q,"amount":100,"currency":"JPY"}`, accountID),
			wantMsg: "currency: must be USD, EUR, GBP, or INR",
		},
		{
			name:    "multiple failures joined",
			body:    `{"amount":0,"currency":"JPY"}`,
			wantMsg: "account_id: required; amount: must be greater than 0; currency: must be USD, EUR, GBP, or INR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockLedgerService{}
			h := NewTransactionHandler(svc)

			rec := httptest.NewRecorder()
			h.Deposit(rec, authedRequest(http.MethodPost, "/api/transactions/deposit", tc.body, adminKey()))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			msg, _ := decodeErrorBody(t, rec)
			assert.Equal(t, tc.wantMsg, msg)
			assert.Empty(t, svc.deposits)
		})
	}
}

func TestTransactionHandler_Deposit_ScopedKeyDenied(t *testing.T) {
	svc := &mockLedgerService{}
	h := NewTransactionHandler(svc)

	target := uuid.New()
	body := fmt.Sprintf(`{"account_id":%q,"amount":100,"currency":"USD"}`, target)
	rec := httptest.NewRecorder()
	h.Deposit(rec, authedRequest(http.MethodPost, "/api/transactions/deposit", body, scopedKey(uuid.New())))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, _ := decodeErrorBody(t, rec)
	assert.Equal(t, "Access denied: API key not authorized for this account", msg)
	assert.Empty(t, svc.deposits)
}

func TestTransactionHandler_Withdraw_InsufficientFunds(t *testing.T) {
	svc := &mockLedgerService{err: &domain.InsufficientFundsError{Available: 100, Requested: 250}}
	h := NewTransactionHandler(svc)

	accountID := uuid.New()
	body := fmt.Sprintf(`{"account_id":%q,"amount":250,"currency":"USD"}`, accountID)
	rec := httptest.NewRecorder()
	h.Withdraw(rec, authedRequest(http.MethodPost, "/api/transactions/withdraw", body, adminKey()))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, code := decodeErrorBody(t, rec)
	assert.Equal(t, "Insufficient funds: available 100, requested 250", msg)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTransactionHandler_Transfer_ScopedKeyOwnSource(t *testing.T) {
	from := uuid.New()
	to := uuid.New()
	txn, err := domain.NewTransfer(from, to, domain.Money{Amount: 100, Currency: domain.CurrencyUSD}, nil, nil)
	require.NoError(t, err)

	svc := &mockLedgerService{tx: txn}
	h := NewTransactionHandler(svc)

	// A key scoped to the source account may send anywhere.
	body := fmt.Sprintf(`{"from_account_id":%q,"to_account_id":%q,"amount":100,"currency":"USD"}`, from, to)
	rec := httptest.NewRecorder()
	h.Transfer(rec, authedRequest(http.MethodPost, "/api/transactions/transfer", body, scopedKey(from)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.transfer)
	assert.Equal(t, from, svc.transfer.FromAccountID)
	assert.Equal(t, to, svc.transfer.ToAccountID)
}

func TestTransactionHandler_Transfer_ScopedKeyForeignSourceDenied(t *testing.T) {
	svc := &mockLedgerService{}
	h := NewTransactionHandler(svc)

	from := uuid.New()
	to := uuid.New()
	// The key is scoped to the destination; that does not authorize
	// pulling funds from someone else's source.
	body := fmt.Sprintf(`{"from_account_id":%q,"to_account_id":%q,"amount":100,"currency":"USD"}`, from, to)
	rec := httptest.NewRecorder()
	h.Transfer(rec, authedRequest(http.MethodPost, "/api/transactions/transfer", body, scopedKey(to)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, _ := decodeErrorBody(t, rec)
	assert.Equal(t, "Access denied: API key not authorized for this account", msg)
	assert.Nil(t, svc.transfer)
}

func TestTransactionHandler_Transfer_SelfTransfer(t *testing.T) {
	svc := &mockLedgerService{err: domain.ErrSelfTransfer}
	h := NewTransactionHandler(svc)

	id := uuid.New()
	body := fmt.Sprintf(`{"from_account_id":%q,"to_account_id":%q,"amount":100,"currency":"USD"}`, id, id)
	rec := httptest.NewRecorder()
	h.Transfer(rec, authedRequest(http.MethodPost, "/api/transactions/transfer", body, adminKey()))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, _ := decodeErrorBody(t, rec)
	assert.Equal(t, "Cannot transfer to the same account", msg)
}

func TestTransactionHandler_Get_InvalidID(t *testing.T) {
	h := NewTransactionHandler(&mockLedgerService{})

	req := authedRequest(http.MethodGet, "/api/transactions/nope", "", adminKey())
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, _ := decodeErrorBody(t, rec)
	assert.Equal(t, "Invalid transaction ID", msg)
}

func TestTransactionHandler_Get_ScopedKeyOnEitherSide(t *testing.T) {
	from := uuid.New()
	to := uuid.New()
	txn, err := domain.NewTransfer(from, to, domain.Money{Amount: 100, Currency: domain.CurrencyUSD}, nil, nil)
	require.NoError(t, err)

	h := NewTransactionHandler(&mockLedgerService{tx: txn})

	tests := []struct {
		name string
		key  *domain.APIKey
		want int
	}{
		{name: "admin", key: adminKey(), want: http.StatusOK},
		{name: "scoped to source", key: scopedKey(from), want: http.StatusOK},
		{name: "scoped to destination", key: scopedKey(to), want: http.StatusOK},
		{name: "scoped to unrelated account", key: scopedKey(uuid.New()), want: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := authedRequest(http.MethodGet, "/api/transactions/"+txn.ID.String(), "", tc.key)
			req.SetPathValue("id", txn.ID.String())
			rec := httptest.NewRecorder()
			h.Get(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestTransactionHandler_ListForAccount(t *testing.T) {
	accountID := uuid.New()
	txn := domain.NewDeposit(accountID, domain.Money{Amount: 100, Currency: domain.CurrencyUSD}, nil, nil)
	svc := &mockLedgerService{txs: []domain.Transaction{*txn}}
	h := NewTransactionHandler(svc)

	req := authedRequest(http.MethodGet, "/api/accounts/"+accountID.String()+"/transactions", "", scopedKey(accountID))
	req.SetPathValue("id", accountID.String())
	rec := httptest.NewRecorder()
	h.ListForAccount(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	dtos := decodeBody[[]transactionDTO](t, rec)
	require.Len(t, dtos, 1)
	assert.Equal(t, txn.ID, dtos[0].ID)
}

func TestTransactionHandler_ListForAccount_ScopedKeyDenied(t *testing.T) {
	svc := &mockLedgerService{}
	h := NewTransactionHandler(svc)

	accountID := uuid.New()
	req := authedRequest(http.MethodGet, "/api/accounts/"+accountID.String()+"/transactions", "", scopedKey(uuid.New()))
	req.SetPathValue("id", accountID.String())
	rec := httptest.NewRecorder()
	h.ListForAccount(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	msg, _ := decodeErrorBody(t, rec)
	assert.Equal(t, "Access denied: API key not authorized for this account", msg)
}
