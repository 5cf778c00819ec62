// Package mail delivers lead notifications over SMTP.
package mail

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"text/template"
	"time"

	"leadintake/config"
	"leadintake/internal/domain/service"
	"leadintake/internal/errors"
)

const leadAssignedSubject = "New Lead Pair"

var leadAssignedBody = template.Must(template.New("lead_assigned").Parse(
	`{{.ProspectName}} has a new lead attached to {{.AttorneyName}}, id:{{.LeadID}}

Status for lead {{.LeadID}} is {{.State}}.
`))

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpMailer struct {
	enabled bool
	smtp    config.SMTPConfig
	send    sendFunc
	logger  *slog.Logger
}

// NewLeadMailer sends through the configured SMTP relay when notification.emailEnabled
// is set and only logs otherwise.
func NewLeadMailer(cfg *config.Config, logger *slog.Logger) service.LeadMailer {
	m := &smtpMailer{send: smtp.SendMail, logger: logger}
	if cfg.Notification != nil {
		m.enabled = cfg.Notification.EmailEnabled
		m.smtp = cfg.Notification.SMTP
	}

	return m
}

func (m *smtpMailer) SendLeadAssigned(ctx context.Context, event *service.LeadAssignedEvent) error {
	recipients := []string{event.AttorneyEmail, event.ProspectEmail}

	if !m.enabled {
		m.logger.DebugContext(ctx, "Email disabled, skipping lead mail",
			slog.String("lead_id", event.LeadID),
			slog.Any("to", recipients),
		)

		return nil
	}

	msg, err := m.compose(event, recipients)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.smtp.UserName != "" {
		auth = smtp.PlainAuth("", m.smtp.UserName, m.smtp.Password, m.smtp.Host)
	}

	addr := net.JoinHostPort(m.smtp.Host, strconv.Itoa(m.smtp.Port))
	if err := m.send(addr, auth, m.smtp.From, recipients, msg); err != nil {
		return errors.Wrapf(err, "send lead mail for %s", event.LeadID)
	}

	m.logger.InfoContext(ctx, "Lead mail sent", slog.String("lead_id", event.LeadID))

	return nil
}

func (m *smtpMailer) compose(event *service.LeadAssignedEvent, recipients []string) ([]byte, error) {
	from, err := mail.ParseAddress(m.smtp.From)
	if err != nil {
		return nil, errors.Wrap(err, "invalid smtp.from")
	}

	var buf bytes.Buffer
	buf.WriteString("From: " + from.String() + "\r\n")
	buf.WriteString("To: ")
	for i, rcpt := range recipients {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString((&mail.Address{Address: rcpt}).String())
	}
	buf.WriteString("\r\n")
	buf.WriteString("Subject: " + leadAssignedSubject + "\r\n")
	buf.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")

	if err := leadAssignedBody.Execute(&buf, event); err != nil {
		return nil, errors.Wrap(err, "render lead mail")
	}

	return buf.Bytes(), nil
}
