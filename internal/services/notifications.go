package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/neocare-api/internal/models"
)

type Mail struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// SMTPMailer delivers mail through a plain SMTP relay with PLAIN auth.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

var errHeaderInjection = errors.New("mail header contains a line break")

// Send refuses addresses containing line breaks and Q-encodes the subject.
func (s *SMTPMailer) Send(_ context.Context, m Mail) error {
	if strings.ContainsAny(m.To, "\r\n") || strings.ContainsAny(s.From, "\r\n") {
		return errHeaderInjection
	}
	addr := s.Host + ":" + strconv.Itoa(s.Port)
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", m.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", encodeSubject(m.Subject))
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	msg.WriteString(m.Body)

	return smtp.SendMail(addr, auth, s.From, []string{m.To}, []byte(msg.String()))
}

func encodeSubject(subject string) string {
	return mime.QEncoding.Encode("utf-8", subject)
}

// LogMailer only logs outgoing mail. Used when no SMTP host is configured.
type LogMailer struct {
	Log zerolog.Logger
}

func (l LogMailer) Send(_ context.Context, m Mail) error {
	l.Log.Info().Str("to", m.To).Str("subject", m.Subject).Msg("mail not delivered: no SMTP host configured")
	return nil
}

// NotificationService sends account mail in the background. Delivery failures are
// logged and never reach the caller.
type NotificationService struct {
	mailer  Mailer
	log     zerolog.Logger
	baseURL string
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewNotificationService(mailer Mailer, log zerolog.Logger, baseURL string) *NotificationService {
	return &NotificationService{
		mailer:  mailer,
		log:     log.With().Str("component", "notifications").Logger(),
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: 30 * time.Second,
	}
}

func (s *NotificationService) SendHospitalWelcome(h *models.Hospital) {
	s.send(Mail{
		To:      h.Email,
		Subject: "Welcome to NeoCare, " + h.HospitalName,
		Body: fmt.Sprintf(
			"Hello %s,\n\n%s has been registered and is awaiting verification.\n"+
				"Your hospital code is %s. Share it with parents so they can join your hospital.\n",
			h.OwnerName, h.HospitalName, h.HospitalCode),
	})
}

func (s *NotificationService) SendParentWelcome(p *models.Parent, hospitalName string) {
	body := fmt.Sprintf("Hello %s,\n\nYour NeoCare account is ready.\n", p.Name)
	if hospitalName != "" {
		body += fmt.Sprintf("You are registered with %s.\n", hospitalName)
	}
	s.send(Mail{To: p.Email, Subject: "Welcome to NeoCare", Body: body})
}

func (s *NotificationService) SendPasswordReset(u *models.User, token string, ttl time.Duration) {
	s.send(Mail{
		To:      u.Email,
		Subject: "Reset your NeoCare password",
		Body: fmt.Sprintf(
			"Hello %s,\n\nUse the link below to choose a new password. It expires in %s.\n\n%s/reset-password?token=%s\n",
			u.Name, ttl, s.baseURL, token),
	})
}

// send doesn't block the request.
func (s *NotificationService) send(m Mail) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.mailer.Send(ctx, m); err != nil {
			s.log.Warn().Err(err).Str("to", m.To).Str("subject", m.Subject).Msg("failed to send mail")
			return
		}
		s.log.Debug().Str("to", m.To).Str("subject", m.Subject).Msg("mail sent")
	}()
}

// Wait blocks until every queued mail has been attempted.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}
