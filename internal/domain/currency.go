package domain

import (
	"fmt"
	"strings"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyINR Currency = "INR"
)

type currencyInfo struct {
	symbol         string
	minorUnit      string
	minorPerMajor  int64
	baseUSDRate    float64
	maxVariancePct float64
}

// The registry is closed: adding a currency is a source change here.
var currencyTable = map[Currency]currencyInfo{
	CurrencyUSD: {symbol: "$", minorUnit: "cent", minorPerMajor: 100, baseUSDRate: 1.0, maxVariancePct: 0.0},
	CurrencyEUR: {symbol: "€", minorUnit: "cent", minorPerMajor: 100, baseUSDRate: 1.087, maxVariancePct: 0.5},
	CurrencyGBP: {symbol: "£", minorUnit: "penny", minorPerMajor: 100, baseUSDRate: 1.266, maxVariancePct: 0.5},
	CurrencyINR: {symbol: "₹", minorUnit: "paisa", minorPerMajor: 100, baseUSDRate: 0.01203, maxVariancePct: 0.3},
}

var currencyOrder = []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyINR}

// Currencies returns every registered currency in declaration order.
func Currencies() []Currency {
	out := make([]Currency, len(currencyOrder))
	copy(out, currencyOrder)
	return out
}

// ParseCurrency is case-insensitive.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("ParseCurrency: %q: %w", s, ErrInvalidCurrency)
	}
	return c, nil
}

func (c Currency) IsValid() bool {
	_, ok := currencyTable[c]
	return ok
}

func (c Currency) Code() string { return string(c) }

func (c Currency) Symbol() string { return currencyTable[c].symbol }

// MinorUnit is the label of the smallest unit (cent, penny, paisa).
func (c Currency) MinorUnit() string { return currencyTable[c].minorUnit }

func (c Currency) MinorPerMajor() int64 { return currencyTable[c].minorPerMajor }

// BaseUSDRate is the static conversion rate to USD, before fluctuation.
func (c Currency) BaseUSDRate() float64 { return currencyTable[c].baseUSDRate }

// MaxVariancePct bounds fluctuation: the effective rate stays within
// base ± base·(pct/100).
func (c Currency) MaxVariancePct() float64 { return currencyTable[c].maxVariancePct }
