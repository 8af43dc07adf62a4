package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jhoicas/Storefront-api/pkg/config"
)

type captureDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSMTPMailer_ArmaElMensaje(t *testing.T) {
	d := &captureDialer{}
	m := &SMTPMailer{from: "no-reply@tienda.test", dialer: d, log: zerolog.Nop()}

	err := m.Send(context.Background(), Message{To: "ana@tienda.test", DisplayName: "Ana", Link: "http://x/verify?code=abc"})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	msg := d.sent[0]
	assert.Equal(t, []string{"no-reply@tienda.test"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"Verifica tu email"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "http://x/verify?code=abc")
}

func TestSMTPMailer_ErrorDelServidor(t *testing.T) {
	d := &captureDialer{err: errors.New("535 auth failed")}
	m := &SMTPMailer{from: "a@b.c", dialer: d, log: zerolog.Nop()}
	err := m.Send(context.Background(), Message{To: "x@y.z"})
	assert.ErrorContains(t, err, "535")
}

func TestSMTPMailer_ContextoCancelado(t *testing.T) {
	d := &captureDialer{}
	m := &SMTPMailer{from: "a@b.c", dialer: d, log: zerolog.Nop()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: "x@y.z"}), context.Canceled)
	assert.Empty(t, d.sent)
}

func TestNew_SinHostUsaLog(t *testing.T) {
	_, ok := New(config.MailConfig{}, zerolog.Nop()).(*LogMailer)
	assert.True(t, ok)
	_, ok = New(config.MailConfig{Host: "smtp.tienda.test", Port: 587}, zerolog.Nop()).(*SMTPMailer)
	assert.True(t, ok)
}

func TestVerificationLink(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/api/auth/verify?code=a+b", VerificationLink("http://localhost:8080/api/auth/verify", "a b"))
	assert.Equal(t, "https://t.test/v?code=c1&lang=es", VerificationLink("https://t.test/v?lang=es", "c1"))
}
