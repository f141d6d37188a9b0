package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPSender sends mail over SMTP via gomail.
type SMTPSender struct {
	config Config
}

func NewSMTPSender(config Config) (*SMTPSender, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid email config: %w", err)
	}
	return &SMTPSender{config: config}, nil
}

func (s *SMTPSender) Send(email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.FromEmail, s.config.FromName)
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/plain", email.Body)
	if email.HTMLBody != "" {
		m.AddAlternative("text/html", email.HTMLBody)
	}

	d := gomail.NewDialer(
		s.config.SMTPHost,
		s.config.SMTPPort,
		s.config.SMTPUser,
		s.config.SMTPPassword,
	)

	return d.DialAndSend(m)
}
