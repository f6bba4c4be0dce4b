package einvoice

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var claveDate = time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)

func TestBuildClave_Layout(t *testing.T) {
	clave, err := BuildClave("3-101-123456", claveDate, 7, "12345678")
	require.NoError(t, err)

	require.Len(t, clave, 50)
	assert.Equal(t, "506", clave[0:3])
	assert.Equal(t, "090326", clave[3:9], "issue date as ddmmyy")
	assert.Equal(t, "003101123456", clave[9:21], "issuer id zero padded to 12")
	assert.Equal(t, "001", clave[21:24], "branch")
	assert.Equal(t, "00001", clave[24:29], "terminal")
	assert.Equal(t, "01", clave[29:31], "document type")
	assert.Equal(t, "0000000007", clave[31:41], "consecutive")
	assert.Equal(t, "1", clave[41:42], "situation")
	assert.Equal(t, "12345678", clave[42:50], "security code")
}

func TestBuildClave_StripsLegalIDSeparators(t *testing.T) {
	dashed, err := BuildClave("3-101-123456", claveDate, 1, "00000001")
	require.NoError(t, err)
	plain, err := BuildClave("3101123456", claveDate, 1, "00000001")
	require.NoError(t, err)
	assert.Equal(t, plain, dashed)
}

func TestBuildClave_GeneratesSecurityCode(t *testing.T) {
	clave, err := BuildClave("3101123456", claveDate, 1, "")
	require.NoError(t, err)
	require.Len(t, clave, 50)
	code := clave[42:50]
	assert.Equal(t, code, digitsOnly(code))
}

func TestBuildClave_Errors(t *testing.T) {
	_, err := BuildClave("3101123456", time.Time{}, 1, "12345678")
	assert.ErrorIs(t, err, ErrMissingIssueDate)

	_, err = BuildClave("", claveDate, 1, "12345678")
	assert.ErrorIs(t, err, ErrInvalidLegalID)

	_, err = BuildClave(strings.Repeat("9", 13), claveDate, 1, "12345678")
	assert.ErrorIs(t, err, ErrInvalidLegalID)

	_, err = BuildClave("3101123456", claveDate, 0, "12345678")
	assert.ErrorIs(t, err, ErrInvalidConsecutive)

	_, err = BuildClave("3101123456", claveDate, 10000000000, "12345678")
	assert.ErrorIs(t, err, ErrInvalidConsecutive)

	_, err = BuildClave("3101123456", claveDate, 1, "1234")
	assert.Error(t, err)

	_, err = BuildClave("3101123456", claveDate, 1, "1234567a")
	assert.Error(t, err)
}
