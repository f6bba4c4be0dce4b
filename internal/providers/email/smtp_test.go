package email

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_Validation(t *testing.T) {
	provider := NewSMTP()
	ctx := context.Background()

	err := provider.Send(ctx, Config{}, Message{To: []string{"a@example.com"}})
	assert.ErrorIs(t, err, ErrMissingHost)

	err = provider.Send(ctx, Config{Host: "smtp.example.com"}, Message{To: []string{"a@example.com"}})
	assert.ErrorIs(t, err, ErrMissingFrom)

	err = provider.Send(ctx, Config{Host: "smtp.example.com", From: "f@example.com"}, Message{})
	assert.ErrorIs(t, err, ErrMissingRecipient)
}

func TestBuildMIME_HTMLOnly(t *testing.T) {
	raw := buildMIME(
		Config{From: "facturas@example.com", FromName: "Mi Empresa"},
		Message{
			To:      []string{"cliente@example.com"},
			Subject: "Factura INV-001",
			Body:    "<p>Adjunto su factura.</p>",
		},
	)
	out := string(raw)

	assert.Contains(t, out, "From: Mi Empresa <facturas@example.com>\r\n")
	assert.Contains(t, out, "To: cliente@example.com\r\n")
	assert.Contains(t, out, "Subject: Factura INV-001\r\n")
	assert.Contains(t, out, "Content-Type: text/html; charset=\"UTF-8\"\r\n")
	assert.NotContains(t, out, "multipart/mixed")
	assert.True(t, strings.HasSuffix(out, "<p>Adjunto su factura.</p>"))
}

func TestBuildMIME_EncodesNonASCIIHeaders(t *testing.T) {
	raw := buildMIME(
		Config{From: "facturas@example.com", FromName: "Ferretería Central"},
		Message{
			To:      []string{"cliente@example.com"},
			Subject: "Factura electrónica",
			Body:    "hola",
		},
	)
	out := string(raw)

	assert.Contains(t, out, "=?utf-8?q?", "non-ASCII headers must be Q-encoded")
	assert.NotContains(t, out, "Subject: Factura electrónica")
}

func TestBuildMIME_Attachments(t *testing.T) {
	pdf := bytes.Repeat([]byte("%PDF"), 100)
	raw := buildMIME(
		Config{From: "facturas@example.com"},
		Message{
			To:      []string{"cliente@example.com"},
			Subject: "Factura INV-001",
			Body:    "<p>Adjunto su factura.</p>",
			Attachments: []Attachment{
				{Filename: "INV-001.pdf", ContentType: "application/pdf", Content: pdf},
				{Filename: "INV-001.xml", Content: []byte("<xml/>")},
			},
		},
	)
	out := string(raw)

	assert.Contains(t, out, "Content-Type: multipart/mixed; boundary=\""+mixedBoundary+"\"\r\n")
	assert.Contains(t, out, "Content-Type: application/pdf; name=\"INV-001.pdf\"\r\n")
	assert.Contains(t, out, "Content-Disposition: attachment; filename=\"INV-001.pdf\"\r\n")
	// Missing content type falls back to octet-stream.
	assert.Contains(t, out, "Content-Type: application/octet-stream; name=\"INV-001.xml\"\r\n")
	assert.True(t, strings.HasSuffix(out, "--"+mixedBoundary+"--\r\n"))

	// Base64 bodies wrap at 76 characters.
	inBody := false
	for _, line := range strings.Split(out, "\r\n") {
		if strings.HasPrefix(line, "Content-Transfer-Encoding: base64") {
			inBody = true
			continue
		}
		if inBody {
			require.LessOrEqual(t, len(line), 76)
			if line == "" || strings.HasPrefix(line, "--") {
				inBody = false
			}
		}
	}
}

func TestNoOpProvider(t *testing.T) {
	provider := &NoOpProvider{}
	err := provider.Send(context.Background(), Config{}, Message{})
	assert.NoError(t, err)
}
