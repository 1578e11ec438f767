package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/begrat/storefront-backend/internal/application/interfaces"
)

// MailServer delivers operational alerts, e.g. a platform-controlled
// subdomain that stopped resolving. Tenant-facing mail lives elsewhere.
type MailServer struct {
	cfg  *MailConfig
	auth smtp.Auth
}

var _ interfaces.AlertSender = (*MailServer)(nil)

func NewMailServer(cfg *MailConfig) *MailServer {
	return &MailServer{
		cfg:  cfg,
		auth: smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost),
	}
}

func (m *MailServer) SendAlert(subject, body string) error {
	if len(m.cfg.AlertRecipients) == 0 {
		return nil
	}
	return m.send(m.cfg.AlertRecipients, subject, body)
}

func (m *MailServer) send(to []string, subject, body string) error {
	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort

	headers := make(map[string]string)
	headers["From"] = m.cfg.Username
	headers["To"] = strings.Join(to, ",")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/plain; charset=\"utf-8\""

	var msg strings.Builder
	for k, v := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}

	msg.WriteString("\r\n" + body)
	err := smtp.SendMail(addr, m.auth, m.cfg.Username, to, []byte(msg.String()))
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}
