package mailer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/jhoicas/Storefront-api/pkg/config"
)

// Message correo de verificación listo para enviar.
type Message struct {
	To          string
	DisplayName string
	Link        string
}

// Sender entrega un Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// dialer lo cumple *gomail.Dialer.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer envía por SMTP con gomail.
type SMTPMailer struct {
	from   string
	dialer dialer
	log    zerolog.Logger
}

// NewSMTPMailer construye el mailer con la configuración SMTP.
func NewSMTPMailer(cfg config.MailConfig, log zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		log:    log,
	}
}

// Send arma el mensaje y lo entrega. gomail no acepta contexto: se revisa antes de marcar.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := buildMessage(m.from, msg)
	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	m.log.Info().Str("to", msg.To).Msg("email de verificación enviado")
	return nil
}

func buildMessage(from string, msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	if msg.DisplayName != "" {
		gm.SetAddressHeader("To", msg.To, msg.DisplayName)
	} else {
		gm.SetHeader("To", msg.To)
	}
	gm.SetHeader("Subject", "Verifica tu email")
	gm.SetBody("text/plain", fmt.Sprintf("Hola %s,\n\nConfirma tu email abriendo este enlace:\n%s\n", greetingName(msg), msg.Link))
	gm.AddAlternative("text/html", fmt.Sprintf(`<p>Hola %s,</p><p><a href="%s">Confirmar mi email</a></p>`, greetingName(msg), msg.Link))
	return gm
}

func greetingName(msg Message) string {
	if msg.DisplayName != "" {
		return msg.DisplayName
	}
	return msg.To
}

// LogMailer no envía nada: registra el enlace (desarrollo, sin SMTP).
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer construye el mailer de solo log.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info().Str("to", msg.To).Str("link", msg.Link).Msg("email de verificación (solo log)")
	return nil
}

// New elige SMTP si hay host configurado; si no, solo log.
func New(cfg config.MailConfig, log zerolog.Logger) Sender {
	if cfg.Enabled() {
		return NewSMTPMailer(cfg, log)
	}
	return NewLogMailer(log)
}

// VerificationLink agrega ?code= a la URL base.
func VerificationLink(base, code string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?code=" + url.QueryEscape(code)
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()
	return u.String()
}
