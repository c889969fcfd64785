package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in      string
		want    Currency
		wantErr bool
	}{
		{in: "USD", want: CurrencyUSD},
		{in: "usd", want: CurrencyUSD},
		{in: "  eur ", want: CurrencyEUR},
		{in: "Gbp", want: CurrencyGBP},
		{in: "INR", want: CurrencyINR},
		{in: "", wantErr: true},
		{in: "JPY", wantErr: true},
		{in: "US", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseCurrency(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidCurrency)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCurrencies_StableOrder(t *testing.T) {
	want := []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyINR}
	assert.Equal(t, want, Currencies())

	// Mutating the returned slice must not leak into the registry.
	got := Currencies()
	got[0] = Currency("XXX")
	assert.Equal(t, want, Currencies())
}

func TestCurrency_Metadata(t *testing.T) {
	assert.Equal(t, "$", CurrencyUSD.Symbol())
	assert.Equal(t, "penny", CurrencyGBP.MinorUnit())
	assert.Equal(t, "paisa", CurrencyINR.MinorUnit())
	assert.Equal(t, int64(100), CurrencyEUR.MinorPerMajor())

	// USD is the pivot: rate 1.0 and it never fluctuates.
	assert.Equal(t, 1.0, CurrencyUSD.BaseUSDRate())
	assert.Equal(t, 0.0, CurrencyUSD.MaxVariancePct())

	assert.False(t, Currency("BTC").IsValid())
}
