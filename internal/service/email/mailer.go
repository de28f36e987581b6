// Package email renders the daily forecast report as HTML and sends it
// over SMTP with implicit TLS.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"SalesPulse/internal/domain/models"
	domsvc "SalesPulse/internal/domain/service"
	applogger "SalesPulse/pkg/logger"
)

var ErrNotConfigured = errors.New("email sender not configured")

// Sender delivers one raw RFC 5322 message.
type Sender interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// SMTPSender dials host:port over TLS and authenticates with PLAIN.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

func (s SMTPSender) Send(ctx context.Context, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config:    &tls.Config{ServerName: s.Host, MinVersion: tls.VersionTLS12},
	}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	}

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if err := c.Auth(smtp.PlainAuth("", s.Username, s.Password, s.Host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	return c.Quit()
}

type Option func(*Mailer)

func WithSender(s Sender) Option {
	return func(m *Mailer) { m.sender = s }
}

func WithLogger(l *applogger.Logger) Option {
	return func(m *Mailer) { m.log = l }
}

// Mailer implements domain ReportMailer.
type Mailer struct {
	from             string
	defaultRecipient string
	sender           Sender
	log              *applogger.Logger
}

// NewMailer sends from address. Gmail app passwords are accepted with the
// spaces they are displayed with.
func NewMailer(host string, port int, address, appPassword, defaultRecipient string, opts ...Option) *Mailer {
	m := &Mailer{
		from:             address,
		defaultRecipient: defaultRecipient,
		sender: SMTPSender{
			Host:     host,
			Port:     port,
			Username: address,
			Password: strings.ReplaceAll(appPassword, " ", ""),
		},
		log: applogger.Nop(),
	}
	if appPassword == "" {
		m.sender = nil
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.Component("email")
	return m
}

// Configured reports whether reports can be sent.
func (m *Mailer) Configured() bool { return m.from != "" && m.sender != nil }

func (m *Mailer) SendReport(ctx context.Context, report models.ForecastReport, recipient string) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	if recipient == "" {
		recipient = m.defaultRecipient
	}
	if recipient == "" {
		recipient = m.from
	}

	subject, body, err := Render(report)
	if err != nil {
		return err
	}
	msg := buildMessage(m.from, recipient, subject, body)
	if err := m.sender.Send(ctx, m.from, []string{recipient}, msg); err != nil {
		m.log.Error("send failed", applogger.String("to", recipient), applogger.Error(err))
		return fmt.Errorf("send report: %w", err)
	}
	m.log.Info("report sent", applogger.String("to", recipient), applogger.String("subject", subject))
	return nil
}

var _ domsvc.ReportMailer = (*Mailer)(nil)

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b bytes.Buffer
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return b.Bytes()
}
