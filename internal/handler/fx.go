package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/castlepay/payments/internal/domain"
)

type fxService interface {
	Rate(from, to domain.Currency) float64
	Convert(amount int64, from, to domain.Currency) int64
	AllRates(base domain.Currency) map[domain.Currency]float64
}

type FXHandler struct {
	fx fxService
}

func NewFXHandler(fx fxService) *FXHandler {
	return &FXHandler{fx: fx}
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

type convertRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

type convertResponse struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    int64   `json:"amount"`
	Converted int64   `json:"converted"`
	Rate      float64 `json:"rate"`
}

func (h *FXHandler) Rates(w http.ResponseWriter, r *http.Request) {
	if appErr := requireAdmin(r); appErr != nil {
		RespondAppError(w, appErr)
		return
	}

	raw := r.PathValue("base")
	base, err := domain.ParseCurrency(raw)
	if err != nil {
		RespondError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported currency: %s", raw))
		return
	}

	rates := make(map[string]float64, len(domain.Currencies()))
	for currency, rate := range h.fx.AllRates(base) {
		rates[currency.Code()] = rate
	}

	RespondJSON(w, http.StatusOK, ratesResponse{Base: base.Code(), Rates: rates})
}

func (h *FXHandler) Convert(w http.ResponseWriter, r *http.Request) {
	if appErr := requireAdmin(r); appErr != nil {
		RespondAppError(w, appErr)
		return
	}

	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest)
		return
	}

	from, fromErr := domain.ParseCurrency(req.From)
	to, toErr := domain.ParseCurrency(req.To)
	if fromErr != nil || toErr != nil {
		RespondError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported currency pair: %s -> %s", req.From, req.To))
		return
	}

	RespondJSON(w, http.StatusOK, convertResponse{
		From:      from.Code(),
		To:        to.Code(),
		Amount:    req.Amount,
		Converted: h.fx.Convert(req.Amount, from, to),
		Rate:      h.fx.Rate(from, to),
	})
}
