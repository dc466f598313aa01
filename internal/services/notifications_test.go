package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/neocare-api/internal/models"
)

func TestNotificationService_Messages(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewNotificationService(mailer, zerolog.Nop(), "https://app.example/")

	svc.SendParentWelcome(&models.Parent{Name: "Priya", Email: "priya@x.io"}, "General Asha Hospital")
	svc.SendPasswordReset(&models.User{Name: "Priya", Email: "priya@x.io"}, "abc123", time.Hour)
	svc.Wait()

	sent := mailer.Sent()
	require.Len(t, sent, 2)
	bySubject := map[string]Mail{}
	for _, m := range sent {
		bySubject[m.Subject] = m
	}
	assert.Contains(t, bySubject["Welcome to NeoCare"].Body, "General Asha Hospital")
	assert.Contains(t, bySubject["Reset your NeoCare password"].Body, "https://app.example/reset-password?token=abc123")
}

func TestNotificationService_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	mailer := &recordingMailer{fail: true}
	svc := NewNotificationService(mailer, zerolog.New(&buf), "https://app.example")

	svc.SendHospitalWelcome(&models.Hospital{Email: "o@h.io", HospitalName: "Hope", HospitalCode: "HOP123"})
	svc.Wait()

	assert.Contains(t, buf.String(), "failed to send mail")
	assert.Contains(t, buf.String(), "o@h.io")
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	err := LogMailer{Log: zerolog.New(&buf)}.Send(context.Background(), Mail{To: "a@b.io", Subject: "Hi"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "a@b.io")
}

func TestSMTPMailer_HeaderInjection(t *testing.T) {
	m := &SMTPMailer{Host: "127.0.0.1", Port: 1, From: "noreply@neocare.io"}

	err := m.Send(context.Background(), Mail{To: "a@b.io\r\nBcc: victim@evil.test", Subject: "Hi"})
	assert.ErrorIs(t, err, errHeaderInjection)

	m.From = "noreply@neocare.io\nBcc: all@evil.test"
	err = m.Send(context.Background(), Mail{To: "a@b.io", Subject: "Hi"})
	assert.ErrorIs(t, err, errHeaderInjection)
}

func TestEncodeSubject(t *testing.T) {
	assert.Equal(t, "Welcome to NeoCare", encodeSubject("Welcome to NeoCare"))

	got := encodeSubject("Welcome to NeoCare, Evil\r\nBcc: all@victims.test")
	assert.NotContains(t, got, "\r")
	assert.NotContains(t, got, "\n")
	assert.True(t, strings.HasPrefix(got, "=?utf-8?q?"), got)
}
