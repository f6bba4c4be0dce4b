package email

import "context"

// Config carries the SMTP parameters for a single send. Company profiles
// hold their own mail settings, so the configuration is resolved per send
// rather than once at startup.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Attachment is a named file included in an outgoing message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Message struct {
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

type Provider interface {
	Send(ctx context.Context, cfg Config, msg Message) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, cfg Config, msg Message) error {
	return nil
}
