package email

import "fmt"

// Config carries the SMTP transport settings.
type Config struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

func (c Config) Validate() error {
	if c.SMTPHost == "" {
		return fmt.Errorf("smtp host is required")
	}
	if c.SMTPPort == 0 {
		return fmt.Errorf("smtp port is required")
	}
	if c.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

// Email is one outbound message with an HTML body and its plaintext
// alternative.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// Sender is the mail transport boundary. The dispatch service talks only
// to this; tests substitute a recording fake.
type Sender interface {
	Send(email *Email) error
}
