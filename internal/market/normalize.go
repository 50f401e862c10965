package market

import (
	"fmt"

	"github.com/shopspring/decimal"

	"futures-trading-bot-binance/internal/model"
)

// Result is the outcome of normalizing one quantity or price field.
// When OK is false, Value is the caller's unchanged input.
// Skipped is set when filter data could not be read and the raw value was
// passed through unvalidated.
type Result struct {
	OK      bool
	Message string
	Value   decimal.Decimal
	Skipped error
}

// NormalizeQuantity checks qty against the LOT_SIZE bounds and truncates it
// down to a multiple of stepSize.
func NormalizeQuantity(f model.SymbolFilters, qty decimal.Decimal) Result {
	if f.LotSize == nil {
		return Result{OK: true, Message: "No LOT_SIZE filter found", Value: qty}
	}

	minQty, maxQty, step, err := parseBounds(f.LotSize.MinQty, f.LotSize.MaxQty, f.LotSize.StepSize)
	if err != nil {
		return skipped(qty, fmt.Errorf("LOT_SIZE for %s: %w", f.Symbol, err))
	}

	if qty.LessThan(minQty) {
		return Result{Message: fmt.Sprintf("Quantity %s below minimum %s", qty, minQty), Value: qty}
	}
	if qty.GreaterThan(maxQty) {
		return Result{Message: fmt.Sprintf("Quantity %s above maximum %s", qty, maxQty), Value: qty}
	}

	return Result{OK: true, Message: "Valid", Value: SnapDown(qty, step)}
}

// NormalizePrice checks price against PRICE_FILTER and truncates it down to
// a multiple of tickSize. A maxPrice of zero is not an upper bound.
func NormalizePrice(f model.SymbolFilters, price decimal.Decimal) Result {
	if f.Price == nil {
		return Result{OK: true, Message: "No PRICE_FILTER found", Value: price}
	}

	minPrice, maxPrice, tick, err := parseBounds(f.Price.MinPrice, f.Price.MaxPrice, f.Price.TickSize)
	if err != nil {
		return skipped(price, fmt.Errorf("PRICE_FILTER for %s: %w", f.Symbol, err))
	}

	if price.LessThan(minPrice) {
		return Result{Message: fmt.Sprintf("Price %s below minimum %s", price, minPrice), Value: price}
	}
	if maxPrice.IsPositive() && price.GreaterThan(maxPrice) {
		return Result{Message: fmt.Sprintf("Price %s above maximum %s", price, maxPrice), Value: price}
	}

	return Result{OK: true, Message: "Valid", Value: SnapDown(price, tick)}
}

// SnapDown truncates v to the largest multiple of step not greater than v.
// A non-positive step leaves v unchanged.
func SnapDown(v, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return v
	}
	rem := v.Mod(step)
	if rem.IsNegative() {
		rem = rem.Add(step)
	}
	return v.Sub(rem)
}

func skipped(v decimal.Decimal, err error) Result {
	return Result{OK: true, Message: "Validation skipped", Value: v, Skipped: err}
}

func parseBounds(minS, maxS, stepS string) (lo, hi, step decimal.Decimal, err error) {
	if lo, err = decimal.NewFromString(minS); err != nil {
		return lo, hi, step, fmt.Errorf("invalid minimum %q: %w", minS, err)
	}
	if hi, err = decimal.NewFromString(maxS); err != nil {
		return lo, hi, step, fmt.Errorf("invalid maximum %q: %w", maxS, err)
	}
	if step, err = decimal.NewFromString(stepS); err != nil {
		return lo, hi, step, fmt.Errorf("invalid step %q: %w", stepS, err)
	}
	return lo, hi, step, nil
}
