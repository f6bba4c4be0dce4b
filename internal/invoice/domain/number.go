package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

const invoiceNumberPrefix = "INV-"

var invoiceNumberPattern = regexp.MustCompile(`^INV-(\d{3,})$`)

// FormatInvoiceNumber renders a consecutive as INV-001, INV-002, ...
// The numeric part grows past three digits without truncation.
func FormatInvoiceNumber(n int64) string {
	return fmt.Sprintf("%s%03d", invoiceNumberPrefix, n)
}

// ParseInvoiceNumber extracts the consecutive from a stored invoice number.
// Numbers that do not match the INV- format are rejected rather than guessed at.
func ParseInvoiceNumber(value string) (int64, error) {
	match := invoiceNumberPattern.FindStringSubmatch(value)
	if match == nil {
		return 0, ErrMalformedNumber
	}
	n, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrMalformedNumber
	}
	return n, nil
}
