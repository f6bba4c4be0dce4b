package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatInvoiceNumber(t *testing.T) {
	assert.Equal(t, "INV-001", FormatInvoiceNumber(1))
	assert.Equal(t, "INV-042", FormatInvoiceNumber(42))
	assert.Equal(t, "INV-999", FormatInvoiceNumber(999))
	// Past three digits the consecutive keeps growing.
	assert.Equal(t, "INV-1000", FormatInvoiceNumber(1000))
	assert.Equal(t, "INV-12345", FormatInvoiceNumber(12345))
}

func TestParseInvoiceNumber(t *testing.T) {
	n, err := ParseInvoiceNumber("INV-007")
	assert.NoError(t, err)
	assert.Equal(t, int64(7), n)

	n, err = ParseInvoiceNumber("INV-1000")
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), n)

	for _, malformed := range []string{
		"",
		"INV-",
		"INV-12", // fewer than three digits
		"INV-0x1",
		"inv-001",
		"FAC-001",
		"INV-001a",
		" INV-001",
		"INV-000", // consecutive must be positive
	} {
		_, err := ParseInvoiceNumber(malformed)
		assert.ErrorIs(t, err, ErrMalformedNumber, "value %q", malformed)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, n := range []int64{1, 99, 100, 999, 1000, 250000} {
		parsed, err := ParseInvoiceNumber(FormatInvoiceNumber(n))
		assert.NoError(t, err)
		assert.Equal(t, n, parsed)
	}
}
