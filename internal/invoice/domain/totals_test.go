package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func TestComputeLineTotals(t *testing.T) {
	line := InvoiceLine{
		Quantity:  dec(t, "2"),
		UnitPrice: dec(t, "10.00"),
		TaxRate:   dec(t, "13"),
	}
	ComputeLineTotals(&line)

	assert.Equal(t, "20.00", line.Subtotal.StringFixed(2))
	assert.Equal(t, "2.60", line.TaxAmount.StringFixed(2))
	assert.Equal(t, "22.60", line.Total.StringFixed(2))
}

func TestComputeLineTotals_RoundsHalfUpPerLine(t *testing.T) {
	// 3 * 33.335 = 100.005 rounds to 100.01 before tax applies.
	line := InvoiceLine{
		Quantity:  dec(t, "3"),
		UnitPrice: dec(t, "33.335"),
		TaxRate:   dec(t, "13"),
	}
	ComputeLineTotals(&line)

	assert.Equal(t, "100.01", line.Subtotal.StringFixed(2))
	assert.Equal(t, "13.00", line.TaxAmount.StringFixed(2))
	assert.Equal(t, "113.01", line.Total.StringFixed(2))
}

func TestComputeLineTotals_DiscountReducesTaxable(t *testing.T) {
	line := InvoiceLine{
		Quantity:  dec(t, "1"),
		UnitPrice: dec(t, "100.00"),
		Discount:  dec(t, "20.00"),
		TaxRate:   dec(t, "13"),
	}
	ComputeLineTotals(&line)

	assert.Equal(t, "100.00", line.Subtotal.StringFixed(2))
	assert.Equal(t, "10.40", line.TaxAmount.StringFixed(2))
	assert.Equal(t, "90.40", line.Total.StringFixed(2))
}

func TestComputeInvoiceTotals(t *testing.T) {
	lines := []InvoiceLine{
		{Quantity: dec(t, "2"), UnitPrice: dec(t, "10.00"), TaxRate: dec(t, "13")},
		{Quantity: dec(t, "1"), UnitPrice: dec(t, "50.00"), Discount: dec(t, "5.00")},
	}
	for i := range lines {
		ComputeLineTotals(&lines[i])
	}

	invoice := Invoice{Lines: lines}
	ComputeInvoiceTotals(&invoice)

	assert.Equal(t, "70.00", invoice.Subtotal.StringFixed(2))
	assert.Equal(t, "5.00", invoice.TotalDiscount.StringFixed(2))
	assert.Equal(t, "2.60", invoice.TotalTax.StringFixed(2))
	assert.Equal(t, "67.60", invoice.Total.StringFixed(2))
}

func TestComputeInvoiceTotals_NoLines(t *testing.T) {
	invoice := Invoice{}
	ComputeInvoiceTotals(&invoice)
	assert.True(t, invoice.Total.IsZero())
}
