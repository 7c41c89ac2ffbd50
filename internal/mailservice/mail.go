package mailservice

import (
	"fmt"
	"time"

	"github.com/go-mail/mail/v2"
)

// NewMailer returns a mailer that sends through the given SMTP server.
func NewMailer(host string, port int, username, password, sender string) *Mail {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second

	return &Mail{
		dialer: dialer,
		sender: sender,
		parser: NewTemplate(),
	}
}

func (m *Mail) send(recipient string, data any, templateFile string) error {
	subject, plainBody, htmlBody, err := m.parser.ParseTemplate(templateFile, data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())

	m.mu.Lock()
	defer m.mu.Unlock()

	err = m.dialer.DialAndSend(msg)
	if err != nil {
		return fmt.Errorf("send to %s: %w", recipient, err)
	}

	return nil
}
