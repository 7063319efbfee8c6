package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/mhasan91/teamhub/backend/internal/repositories"
)

// SMTPSender delivers notification emails through a plain SMTP relay.
type SMTPSender struct {
	addr  string // host:port
	from  string
	auth  smtp.Auth
	users repositories.UserRepository
}

func NewSMTPSender(addr, from, username, password string, users repositories.UserRepository) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		host := addr
		for i := range addr {
			if addr[i] == ':' {
				host = addr[:i]
				break
			}
		}
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{addr: addr, from: from, auth: auth, users: users}
}

func (s *SMTPSender) Send(ctx context.Context, userID uint, subject, body string) error {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("resolve recipient %d: %w", userID, err)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		s.from, user.Email, subject, body)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{user.Email}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", user.Email, err)
	}
	return nil
}
