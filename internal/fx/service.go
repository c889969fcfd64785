package fx

import (
	"sync/atomic"
	"time"

	"github.com/castlepay/payments/internal/domain"
	"github.com/shopspring/decimal"
)

// Service resolves exchange rates through a USD pivot: every registered
// currency carries a static rate to USD, and the rate between any pair is the
// ratio of the two. When fluctuation is enabled each rate read is perturbed
// within the currency's variance band, simulating market movement.
type Service struct {
	fluctuating atomic.Bool
}

func NewService() *Service {
	return &Service{}
}

func (s *Service) EnableFluctuation()  { s.fluctuating.Store(true) }
func (s *Service) DisableFluctuation() { s.fluctuating.Store(false) }

func (s *Service) FluctuationEnabled() bool { return s.fluctuating.Load() }

// USDRate returns the currency's current rate to USD. With fluctuation
// enabled the base rate is perturbed by up to ±MaxVariancePct percent; each
// call samples independently.
func (s *Service) USDRate(c domain.Currency) float64 {
	base := c.BaseUSDRate()
	if !s.fluctuating.Load() {
		return base
	}
	// Pseudo-random factor in [-1, 1] from wall-clock nanoseconds. Biased,
	// but this is simulation, not security.
	nanos := time.Now().Nanosecond()
	factor := float64(nanos%2001)/1000.0 - 1.0
	return base + base*(c.MaxVariancePct()/100.0)*factor
}

// Rate returns the current exchange rate from one currency to another.
func (s *Service) Rate(from, to domain.Currency) float64 {
	if from == to {
		return 1.0
	}
	return s.USDRate(from) / s.USDRate(to)
}

// BaseRate ignores fluctuation.
func (s *Service) BaseRate(from, to domain.Currency) float64 {
	if from == to {
		return 1.0
	}
	return from.BaseUSDRate() / to.BaseUSDRate()
}

// Convert exchanges an amount of minor units between currencies, rounding
// half-away-from-zero. Same-currency conversion is the identity.
func (s *Service) Convert(amount int64, from, to domain.Currency) int64 {
	if from == to {
		return amount
	}
	return convertAt(amount, s.USDRate(from), s.USDRate(to))
}

// ConvertAtBaseRate converts using the static base rates regardless of the
// fluctuation flag.
func (s *Service) ConvertAtBaseRate(amount int64, from, to domain.Currency) int64 {
	if from == to {
		return amount
	}
	return convertAt(amount, from.BaseUSDRate(), to.BaseUSDRate())
}

// AllRates returns the rate from base to every registered currency,
// including base itself at 1.0.
func (s *Service) AllRates(base domain.Currency) map[domain.Currency]float64 {
	rates := make(map[domain.Currency]float64, len(domain.Currencies()))
	for _, c := range domain.Currencies() {
		rates[c] = s.Rate(base, c)
	}
	return rates
}

func convertAt(amount int64, fromUSD, toUSD float64) int64 {
	usd := decimal.NewFromInt(amount).Mul(decimal.NewFromFloat(fromUSD))
	return usd.Div(decimal.NewFromFloat(toUSD)).Round(0).IntPart()
}
