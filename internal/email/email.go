package email

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// Sender dispatches a password-reset code to a user. Returning an error
// tells the caller the code never left the building.
type Sender interface {
	SendOTP(to string, code string) error
}

// SMTPSender sends real mail through a plain-auth SMTP relay.
type SMTPSender struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// NewSenderFromEnv returns an SMTPSender when SMTP_HOST is configured and
// falls back to the console sender otherwise, so the reset flow works in
// local development without a relay.
func NewSenderFromEnv() Sender {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		log.Println("WARNING: SMTP_HOST not set, OTP emails will be logged to the console")
		return &LogSender{}
	}
	return &SMTPSender{
		Host: host,
		Port: envOr("SMTP_PORT", "587"),
		User: os.Getenv("SMTP_USER"),
		Pass: os.Getenv("SMTP_PASS"),
		From: envOr("SMTP_FROM", os.Getenv("SMTP_USER")),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *SMTPSender) SendOTP(to string, code string) error {
	subject := "Your password reset code"
	body := fmt.Sprintf(
		"Your password reset code is: %s\n\nThis code will expire in 10 minutes. If you did not request a reset, ignore this email.",
		code,
	)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.From, to, subject, body))

	auth := smtp.PlainAuth("", s.User, s.Pass, s.Host)
	return smtp.SendMail(s.Host+":"+s.Port, auth, s.From, []string{to}, msg)
}

// LogSender writes the code to the console instead of sending mail.
type LogSender struct{}

func (l *LogSender) SendOTP(to string, code string) error {
	log.Println("====================================================")
	log.Printf("--- PASSWORD RESET EMAIL (CONSOLE) ---")
	log.Printf("To: %s", to)
	log.Printf("Code: %s (valid for 10 minutes)", code)
	log.Println("====================================================")
	return nil
}
