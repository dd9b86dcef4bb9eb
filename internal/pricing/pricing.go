// Package pricing computes unit prices and order totals. All arithmetic runs
// on decimals and results are rounded half-up to the nearest minor currency
// unit; the engine is pure and has no side effects.
package pricing

import (
	"github.com/shopspring/decimal"

	"event-ticketing-core/internal/models"
)

// DefaultServiceFeePercent is the service fee applied when none is configured
const DefaultServiceFeePercent = 10

// Line pairs a ticket category with a requested quantity
type Line struct {
	Category *models.TicketCategory
	Quantity int
}

// Totals represents the computed amounts for an order, in minor units
type Totals struct {
	Subtotal   int `json:"subtotal"`
	ServiceFee int `json:"service_fee"`
	Total      int `json:"total"`
}

// Engine applies discount rules and the configured service fee rate
type Engine struct {
	feeRate decimal.Decimal
}

// NewEngine creates a pricing engine with the given service fee percentage
func NewEngine(serviceFeePercent int) *Engine {
	if serviceFeePercent < 0 {
		serviceFeePercent = DefaultServiceFeePercent
	}

	return &Engine{
		feeRate: decimal.NewFromInt(int64(serviceFeePercent)).Div(decimal.NewFromInt(100)),
	}
}

// UnitPrice returns the effective price for one ticket of the category.
// A percentage discount multiplies the base price by (1 - value/100); a
// fixed discount subtracts value, floored at zero. Categories carry at most
// one discount rule, so there is no stacking.
func (e *Engine) UnitPrice(category *models.TicketCategory) int {
	price := decimal.NewFromInt(int64(category.Price))

	if !category.HasDiscount() {
		return roundToUnit(price)
	}

	value := decimal.NewFromInt(int64(*category.DiscountValue))

	switch *category.DiscountType {
	case models.DiscountPercentage:
		factor := decimal.NewFromInt(1).Sub(value.Div(decimal.NewFromInt(100)))
		price = price.Mul(factor)
	case models.DiscountFixed:
		price = price.Sub(value)
		if price.IsNegative() {
			price = decimal.Zero
		}
	}

	return roundToUnit(price)
}

// ComputeTotals sums the line items at their effective unit prices and adds
// the service fee. The sum is commutative, so line order never changes the
// result.
func (e *Engine) ComputeTotals(lines []Line) Totals {
	subtotal := decimal.Zero

	for _, line := range lines {
		unit := decimal.NewFromInt(int64(e.UnitPrice(line.Category)))
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	fee := subtotal.Mul(e.feeRate)

	subtotalUnits := roundToUnit(subtotal)
	feeUnits := roundToUnit(fee)

	return Totals{
		Subtotal:   subtotalUnits,
		ServiceFee: feeUnits,
		Total:      subtotalUnits + feeUnits,
	}
}

// roundToUnit rounds half-up to the nearest minor currency unit. Prices are
// never negative here, so round half away from zero is equivalent.
func roundToUnit(d decimal.Decimal) int {
	return int(d.Round(0).IntPart())
}
