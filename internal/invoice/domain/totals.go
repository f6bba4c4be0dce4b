package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ComputeLineTotals fills the derived amounts of a line from its quantity,
// unit price, discount and tax rate. Amounts are rounded half-up to two
// decimals per line before they are summed into invoice totals.
func ComputeLineTotals(line *InvoiceLine) {
	subtotal := line.Quantity.Mul(line.UnitPrice).Round(2)
	taxable := subtotal.Sub(line.Discount)
	tax := taxable.Mul(line.TaxRate).Div(hundred).Round(2)

	line.Subtotal = subtotal
	line.TaxAmount = tax
	line.Total = taxable.Add(tax)
}

// ComputeInvoiceTotals recomputes the invoice header amounts from its lines.
func ComputeInvoiceTotals(invoice *Invoice) {
	subtotal := decimal.Zero
	discount := decimal.Zero
	tax := decimal.Zero
	for _, line := range invoice.Lines {
		subtotal = subtotal.Add(line.Subtotal)
		discount = discount.Add(line.Discount)
		tax = tax.Add(line.TaxAmount)
	}

	invoice.Subtotal = subtotal
	invoice.TotalDiscount = discount
	invoice.TotalTax = tax
	invoice.Total = subtotal.Sub(discount).Add(tax)
}
