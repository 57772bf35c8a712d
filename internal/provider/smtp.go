// internal/provider/smtp.go
package provider

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/google/uuid"
	mail "gopkg.in/gomail.v2"
)

// SMTPProvider delivers rendered documents over SMTP. SMTP assigns no
// delivery id of its own, so one is minted per accepted message.
type SMTPProvider struct {
	Host     string
	Port     int
	User     string
	Password string
}

func NewSMTPProvider(host string, port int, user, password string) *SMTPProvider {
	return &SMTPProvider{Host: host, Port: port, User: user, Password: password}
}

func (p *SMTPProvider) Send(ctx context.Context, msg Message) (string, error) {
	m := mail.NewMessage()
	m.SetAddressHeader("From", msg.FromAddress, msg.FromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	d := mail.NewDialer(p.Host, p.Port, p.User, p.Password)
	d.TLSConfig = &tls.Config{ServerName: p.Host}

	// gomail has no context support; run the dial-and-send in a goroutine
	// and let the context deadline turn a hung connection into a
	// per-recipient error.
	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("could not send email: %w", err)
		}
		return uuid.NewString(), nil
	case <-ctx.Done():
		return "", fmt.Errorf("send to %s timed out: %w", msg.To, ctx.Err())
	}
}

var _ DeliveryProvider = (*SMTPProvider)(nil)
