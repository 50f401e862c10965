package market

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futures-trading-bot-binance/internal/model"
)

func btcFilters() model.SymbolFilters {
	return model.SymbolFilters{
		Symbol:  "BTCUSDT",
		LotSize: &model.LotSizeFilter{MinQty: "0.001", MaxQty: "1000", StepSize: "0.001"},
		Price:   &model.PriceFilter{MinPrice: "100", MaxPrice: "0", TickSize: "0.1"},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNormalizeQuantity_TruncatesToStep(t *testing.T) {
	res := NormalizeQuantity(btcFilters(), dec("0.0019"))

	require.True(t, res.OK, res.Message)
	assert.True(t, res.Value.Equal(dec("0.001")), "got %s", res.Value)
	assert.Nil(t, res.Skipped)
}

func TestNormalizeQuantity_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		qty     string
		message string
	}{
		{"below minimum", "0.0005", "Quantity 0.0005 below minimum 0.001"},
		{"above maximum", "1000.5", "Quantity 1000.5 above maximum 1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NormalizeQuantity(btcFilters(), dec(tt.qty))
			assert.False(t, res.OK)
			assert.Equal(t, tt.message, res.Message)
			assert.True(t, res.Value.Equal(dec(tt.qty)), "value must be unchanged on failure")
		})
	}
}

func TestNormalizeQuantity_ZeroMaxIsABound(t *testing.T) {
	f := btcFilters()
	f.LotSize.MaxQty = "0"

	res := NormalizeQuantity(f, dec("0.01"))
	assert.False(t, res.OK)
}

func TestNormalizeQuantity_GridProperties(t *testing.T) {
	f := model.SymbolFilters{
		Symbol:  "ETHUSDT",
		LotSize: &model.LotSizeFilter{MinQty: "0.005", MaxQty: "10000", StepSize: "0.005"},
	}
	step := dec("0.005")

	for _, raw := range []string{"0.005", "0.0051", "0.0099", "1.2345", "9999.999", "10000", "3.14159265358979"} {
		v := dec(raw)
		res := NormalizeQuantity(f, v)
		require.True(t, res.OK, "%s: %s", raw, res.Message)

		assert.True(t, res.Value.Mod(step).IsZero(), "%s: %s not a multiple of step", raw, res.Value)
		assert.True(t, res.Value.LessThanOrEqual(v), "%s: rounded up to %s", raw, res.Value)
		assert.True(t, v.Sub(res.Value).LessThan(step), "%s: dropped a whole step", raw)
	}
}

func TestNormalizeQuantity_AlignedValueIsUnchanged(t *testing.T) {
	for _, raw := range []string{"0.001", "0.123", "42", "1000"} {
		res := NormalizeQuantity(btcFilters(), dec(raw))
		require.True(t, res.OK)
		assert.True(t, res.Value.Equal(dec(raw)), "%s became %s", raw, res.Value)

		again := NormalizeQuantity(btcFilters(), res.Value)
		assert.True(t, again.Value.Equal(res.Value))
	}
}

func TestNormalizePrice_NoUpperBoundWhenMaxIsZero(t *testing.T) {
	res := NormalizePrice(btcFilters(), dec("123.456"))
	require.True(t, res.OK, res.Message)
	assert.True(t, res.Value.Equal(dec("123.4")), "got %s", res.Value)

	res = NormalizePrice(btcFilters(), dec("99999999.99"))
	require.True(t, res.OK, res.Message)
	assert.True(t, res.Value.Equal(dec("99999999.9")))
}

func TestNormalizePrice_Bounds(t *testing.T) {
	f := btcFilters()
	f.Price.MaxPrice = "200000"

	res := NormalizePrice(f, dec("99.9"))
	assert.False(t, res.OK)
	assert.Equal(t, "Price 99.9 below minimum 100", res.Message)

	res = NormalizePrice(f, dec("200000.1"))
	assert.False(t, res.OK)
	assert.Equal(t, "Price 200000.1 above maximum 200000", res.Message)
	assert.True(t, res.Value.Equal(dec("200000.1")))
}

func TestNormalizePrice_NonDecimalTick(t *testing.T) {
	f := btcFilters()
	f.Price.TickSize = "0.5"

	res := NormalizePrice(f, dec("123.99"))
	require.True(t, res.OK)
	assert.True(t, res.Value.Equal(dec("123.5")), "got %s", res.Value)
}

func TestNormalize_MissingFilterPassesThrough(t *testing.T) {
	f := model.SymbolFilters{Symbol: "XYZUSDT"}

	q := NormalizeQuantity(f, dec("0.0000123"))
	assert.True(t, q.OK)
	assert.Equal(t, "No LOT_SIZE filter found", q.Message)
	assert.True(t, q.Value.Equal(dec("0.0000123")))

	p := NormalizePrice(f, dec("1.23456789"))
	assert.True(t, p.OK)
	assert.Equal(t, "No PRICE_FILTER found", p.Message)
	assert.True(t, p.Value.Equal(dec("1.23456789")))
}

func TestNormalize_MalformedFilterSkipsValidation(t *testing.T) {
	f := btcFilters()
	f.LotSize.StepSize = "not-a-number"
	f.Price.MinPrice = ""

	q := NormalizeQuantity(f, dec("0.0019"))
	assert.True(t, q.OK)
	assert.Equal(t, "Validation skipped", q.Message)
	assert.True(t, q.Value.Equal(dec("0.0019")))
	assert.Error(t, q.Skipped)

	p := NormalizePrice(f, dec("5"))
	assert.True(t, p.OK)
	assert.Error(t, p.Skipped)
	assert.True(t, p.Value.Equal(dec("5")))
}

func TestSnapDown(t *testing.T) {
	assert.True(t, SnapDown(dec("1.23"), decimal.Zero).Equal(dec("1.23")))
	assert.True(t, SnapDown(dec("7"), dec("2")).Equal(dec("6")))
	assert.True(t, SnapDown(dec("0.30000000000000004"), dec("0.1")).Equal(dec("0.3")))
}
