package alert

import (
	"context"

	"gopkg.in/gomail.v2"
	"k8s.io/klog/v2"

	"github.com/grad-lab/capstone-backend/pkg/config"
)

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer returns an SMTP mailer, or Noop when no host is configured.
func NewMailer() Mailer {
	smtpConfig := config.GetConfig().SMTP
	if smtpConfig.Host == "" {
		klog.Warning("SMTP not configured, notifications disabled")
		return Noop{}
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(smtpConfig.Host, smtpConfig.Port, smtpConfig.User, smtpConfig.Password),
		from:   smtpConfig.From,
	}
}

func (m *SMTPMailer) SendMessageTo(_ context.Context, email, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		klog.Errorf("failed to send email to %s: %v", email, err)
		return err
	}
	klog.Infof("sent email to %s", email)
	return nil
}
