// Package notify delivers registration passcodes.
package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/dtroode/gophchat-server/internal/model"
)

const subject = "Verification Code"

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

var _ model.Notifier = (*SMTP)(nil)

// SMTP sends passcodes as plain-text mail.
type SMTP struct {
	addr     string
	auth     smtp.Auth
	from     string
	codeTTL  time.Duration
	sendMail sendMailFunc
}

// NewSMTP creates an SMTP notifier. Auth is skipped when username is empty.
func NewSMTP(host string, port int, username, password, from string, codeTTL time.Duration) *SMTP {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	return &SMTP{
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		auth:     auth,
		from:     from,
		codeTTL:  codeTTL,
		sendMail: smtp.SendMail,
	}
}

// SendPasscode mails code to email. It returns ctx.Err() if the context ends first;
// the SMTP exchange itself cannot be interrupted and finishes in the background.
func (s *SMTP) SendPasscode(ctx context.Context, email, code string) error {
	msg := s.message(email, code)

	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(s.addr, s.auth, s.from, []string{email}, msg)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail: %w", err)
		}
		return nil
	}
}

func (s *SMTP) message(to, code string) []byte {
	body := fmt.Sprintf("Your verification code is %s\r\n\r\nIt expires in %d minutes.",
		code, int(s.codeTTL.Minutes()))

	lines := []string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}
	return []byte(strings.Join(lines, "\r\n"))
}
