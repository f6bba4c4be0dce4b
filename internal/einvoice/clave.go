// Package einvoice renders the Costa Rica v4.3 regulatory documents.
package einvoice

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"
)

const (
	countryCode  = "506"
	branchCode   = "001"
	terminalCode = "00001"
	docTypeCode  = "01"

	claveLength = 50
)

var (
	ErrInvalidLegalID     = errors.New("invalid_legal_id")
	ErrInvalidConsecutive = errors.New("invalid_consecutive")
	ErrMissingIssueDate   = errors.New("missing_issue_date")
)

// BuildClave assembles the 50-digit document key: country, issue date
// (ddmmyy), 12-digit issuer id, 20-digit consecutive block, situation and an
// 8-digit security code. Every component is width-checked; a component that
// does not fit is an error, never a silent truncation.
func BuildClave(legalID string, issueDate time.Time, consecutive int64, securityCode string) (string, error) {
	if issueDate.IsZero() {
		return "", ErrMissingIssueDate
	}

	issuer := digitsOnly(legalID)
	if issuer == "" || len(issuer) > 12 {
		return "", ErrInvalidLegalID
	}
	issuer = fmt.Sprintf("%012s", issuer)

	if consecutive <= 0 || consecutive > 9999999999 {
		return "", ErrInvalidConsecutive
	}
	consecutiveBlock := branchCode + terminalCode + docTypeCode + fmt.Sprintf("%010d", consecutive)

	if securityCode == "" {
		generated, err := newSecurityCode()
		if err != nil {
			return "", err
		}
		securityCode = generated
	}
	if len(securityCode) != 8 || digitsOnly(securityCode) != securityCode {
		return "", fmt.Errorf("security code must be 8 digits, got %q", securityCode)
	}

	clave := countryCode + issueDate.Format("020106") + issuer + consecutiveBlock + "1" + securityCode
	if len(clave) != claveLength {
		return "", fmt.Errorf("clave has %d digits, want %d", len(clave), claveLength)
	}
	return clave, nil
}

func newSecurityCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%08d", n.Int64()), nil
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
