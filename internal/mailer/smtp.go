package mailer

import (
	"context"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
)

// SMTPSender delivers messages through an authenticated SMTP relay.
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host string, port int, user, password string) *SMTPSender {
	return NewSMTPSenderWith(host, port, user, password, smtp.SendMail)
}

// NewSMTPSenderWith uses send in place of smtp.SendMail.
func NewSMTPSenderWith(host string, port int, user, password string, send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error) *SMTPSender {
	if port == 0 {
		port = 587
	}
	return &SMTPSender{host: host, port: port, user: user, password: password, send: send}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return "", fmt.Errorf("parse sender address: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.HTML)

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	auth := smtp.PlainAuth("", s.user, s.password, s.host)

	// net/smtp has no context support; the result is abandoned on timeout
	done := make(chan error, 1)
	go func() {
		done <- s.send(addr, auth, from.Address, msg.To, []byte(b.String()))
	}()
	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("send email: %w", err)
		}
		return "", nil
	case <-ctx.Done():
		return "", fmt.Errorf("send email: %w", ctx.Err())
	}
}
