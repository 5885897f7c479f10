package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"github.com/huangang/tripplanner/internal/config"
	"github.com/huangang/tripplanner/internal/models"
	"github.com/huangang/tripplanner/pkg/logger"
)

type EmailService struct {
	cfg config.MailConfig
}

func NewEmailService(cfg config.MailConfig) *EmailService {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &EmailService{cfg: cfg}
}

func (s *EmailService) Enabled() bool {
	return s.cfg.Enabled && s.cfg.Host != ""
}

// ProcessEmailTask is the queue processor for TaskTypeNotificationEmail
func (s *EmailService) ProcessEmailTask(_ context.Context, task *EmailTask) error {
	if task.To == "" {
		return nil
	}
	return s.Send([]string{task.To}, task.Subject, task.Body)
}

func (s *EmailService) Send(to []string, subject, body string) error {
	if !s.Enabled() || len(to) == 0 {
		return nil
	}

	from := s.cfg.From
	if from == "" {
		from = s.cfg.Username
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: %s\r\n", from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ",")))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	var err error
	if s.cfg.UseTLS {
		err = s.sendTLS(addr, auth, from, to, message.String())
	} else {
		err = smtp.SendMail(addr, auth, from, to, []byte(message.String()))
	}

	if err != nil {
		logger.Warn().Err(err).Strs("to", to).Msg("[Email] Failed to send email")
		return err
	}

	logger.Info().Strs("to", to).Msg("[Email] Sent notification")
	return nil
}

func (s *EmailService) sendTLS(addr string, auth smtp.Auth, from string, to []string, message string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(message)); err != nil {
		return err
	}
	return w.Close()
}

// BuildNotificationEmail renders the subject and HTML body for n
func BuildNotificationEmail(recipient *models.User, n *models.Notification) (string, string) {
	subject := "[TripPlanner] " + n.Title

	var sb strings.Builder
	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	sb.WriteString(fmt.Sprintf("<p>Hi %s,</p>", html.EscapeString(recipient.FullName())))
	sb.WriteString(fmt.Sprintf("<h3>%s</h3>", html.EscapeString(n.Title)))
	if n.Content != "" {
		sb.WriteString(fmt.Sprintf("<p style=\"white-space: pre-wrap;\">%s</p>", html.EscapeString(n.Content)))
	}
	if n.ActionURL != "" {
		sb.WriteString(fmt.Sprintf("<p><a href=\"%s\">Open in TripPlanner</a></p>", html.EscapeString(n.ActionURL)))
	}
	sb.WriteString("<hr><p style=\"color: #888; font-size: 12px;\">You receive this because email notifications are enabled.</p>")
	sb.WriteString("</body></html>")

	return subject, sb.String()
}
