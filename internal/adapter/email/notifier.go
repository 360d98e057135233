// Package email provides an SMTP notifier for inbox notifications.
package email

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/Strob0t/ilmihal/internal/port/notifier"
)

const providerName = "email"

// SMTPConfig holds the configuration for SMTP connections.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
	To       []string
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Notifier sends notifications as plain-text email.
type Notifier struct {
	cfg  SMTPConfig
	send sendFunc
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg SMTPConfig) *Notifier {
	return &Notifier{cfg: cfg, send: smtp.SendMail}
}

func (n *Notifier) Name() string { return providerName }

// Send mails the notification to every configured recipient. The context
// is not honoured by net/smtp.
func (n *Notifier) Send(_ context.Context, notification notifier.Notification) error {
	if n.cfg.Host == "" || n.cfg.From == "" || len(n.cfg.To) == 0 {
		return notifier.ErrNotConfigured
	}
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))

	var auth smtp.Auth
	if n.cfg.Password != "" {
		auth = smtp.PlainAuth("", n.cfg.From, n.cfg.Password, n.cfg.Host)
	}

	if err := n.send(addr, auth, n.cfg.From, n.cfg.To, n.message(notification)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (n *Notifier) message(notification notifier.Notification) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", notification.Title))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(notification.Message)
	if notification.Source != "" {
		fmt.Fprintf(&b, "\r\n\r\n-- %s\r\n", notification.Source)
	}
	return []byte(b.String())
}

func init() {
	notifier.Register(providerName, func(settings map[string]string) (notifier.Notifier, error) {
		port := 587
		if p := settings["port"]; p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				return nil, fmt.Errorf("email: invalid port %q", p)
			}
			port = n
		}
		var to []string
		for _, addr := range strings.Split(settings["to"], ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				to = append(to, addr)
			}
		}
		return NewNotifier(SMTPConfig{
			Host:     settings["host"],
			Port:     port,
			From:     settings["from"],
			Password: settings["password"],
			To:       to,
		}), nil
	})
}
