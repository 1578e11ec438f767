package mail

import (
	"os"
	"strings"
)

type MailConfig struct {
	SMTPHost        string
	SMTPPort        string
	Username        string
	Password        string
	AlertRecipients []string
}

func NewMailConfig() *MailConfig {
	var recipients []string
	for _, r := range strings.Split(os.Getenv("MAIL_ALERT_RECIPIENTS"), ",") {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	return &MailConfig{
		SMTPHost:        os.Getenv("MAIL_HOST"),
		SMTPPort:        os.Getenv("MAIL_PORT"),
		Username:        os.Getenv("MAIL_USERNAME"),
		Password:        os.Getenv("MAIL_PASSWORD"),
		AlertRecipients: recipients,
	}
}
