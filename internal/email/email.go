// Package email sends booking notification mail over SMTP.  When no
// SMTP credentials are configured the sender runs in dev mode and
// writes the message to the process log instead, so local stacks work
// without a relay.
package email

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

// Config holds SMTP relay settings, loaded from environment variables.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// ConfigFromEnv reads SMTP_* environment variables with defaults.
func ConfigFromEnv() Config {
	return Config{
		Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		Port:     getEnv("SMTP_PORT", "587"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     getEnv("SMTP_FROM", "noreply@example.com"),
		FromName: getEnv("SMTP_FROM_NAME", "Event Ticket Booking"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Sender delivers plain-text mail.  devMode is enabled automatically
// when credentials are missing.
type Sender struct {
	cfg     Config
	devMode bool
}

// NewSender constructs a Sender from the given config.
func NewSender(cfg Config) *Sender {
	return &Sender{
		cfg:     cfg,
		devMode: cfg.Username == "" || cfg.Password == "",
	}
}

// Send delivers a single plain-text message.  In dev mode the message
// is logged and delivery is reported as successful.
func (s *Sender) Send(to, subject, body string) error {
	if s.devMode {
		log.Printf("email (dev mode): to=%s subject=%q\n%s", to, subject, body)
		return nil
	}
	msg := strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", s.cfg.FromName, s.cfg.From),
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	addr := s.cfg.Host + ":" + s.cfg.Port
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg))
}
