package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/neocare-api/internal/apperr"
	"github.com/harentsoaR/neocare-api/internal/cache"
	"github.com/harentsoaR/neocare-api/internal/models"
	"github.com/harentsoaR/neocare-api/internal/store"
	"github.com/harentsoaR/neocare-api/internal/utils"
)

func TestMain(m *testing.M) {
	utils.SetHashCost(bcrypt.MinCost)
	m.Run()
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []Mail
	fail bool
}

func (r *recordingMailer) Send(_ context.Context, m Mail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	if r.fail {
		return errors.New("smtp: connection refused")
	}
	return nil
}

func (r *recordingMailer) Sent() []Mail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Mail(nil), r.sent...)
}

type env struct {
	store       *store.Store
	mailer      *recordingMailer
	notify      *NotificationService
	auth        *AuthService
	hospitals   *HospitalService
	affiliation *AffiliationService
	profiles    *ProfileService
	timeline    *TimelineService
	messaging   *MessagingService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zerolog.Nop()
	s := store.NewMemoryStore()
	mailer := &recordingMailer{}
	notify := NewNotificationService(mailer, log, "http://app.test")
	affiliation := NewAffiliationService(s, log)
	tokens := utils.NewTokenIssuer("0123456789abcdef0123", time.Hour)
	e := &env{
		store:       s,
		mailer:      mailer,
		notify:      notify,
		auth:        NewAuthService(s, affiliation, tokens, notify, time.Hour, log),
		hospitals:   NewHospitalService(s, cache.Noop{}, log),
		affiliation: affiliation,
		profiles:    NewProfileService(s),
		timeline:    NewTimelineService(s, affiliation),
		messaging:   NewMessagingService(s, affiliation, log),
	}
	t.Cleanup(notify.Wait)
	return e
}

const testPassword = "correct-horse"

// verifiedHospital registers a hospital and has it verified.
func (e *env) verifiedHospital(t *testing.T, name, email string) *models.Hospital {
	t.Helper()
	ctx := context.Background()
	u, err := e.auth.Register(ctx, &NewUser{
		Role:         models.RoleAdmin,
		OwnerName:    "Owner of " + name,
		HospitalName: name,
		Email:        email,
		Password:     testPassword,
		Address:      "1 Main St",
		Mobile:       "555-0100",
	})
	require.NoError(t, err)
	h, err := e.hospitals.SetStatus(ctx, u.ID, string(models.HospitalVerified))
	require.NoError(t, err)
	return h
}

func (e *env) doctor(t *testing.T, hospitalID, name, email string) *models.Doctor {
	t.Helper()
	ctx := context.Background()
	u, err := e.auth.Register(ctx, &NewUser{
		Role:       models.RoleDoctor,
		Name:       name,
		Email:      email,
		Password:   testPassword,
		Specialty:  "Neonatology",
		HospitalID: hospitalID,
	})
	require.NoError(t, err)
	d, err := e.store.Doctors.GetByID(ctx, u.ID)
	require.NoError(t, err)
	return d
}

func (e *env) parent(t *testing.T, hospitalID, name, email string) *models.Parent {
	t.Helper()
	ctx := context.Background()
	u, err := e.auth.Register(ctx, &NewUser{
		Role:       models.RoleParent,
		Name:       name,
		Email:      email,
		Password:   testPassword,
		Phone:      "555-0199",
		Address:    "2 Side St",
		HospitalID: hospitalID,
	})
	require.NoError(t, err)
	p, err := e.store.Parents.GetByID(ctx, u.ID)
	require.NoError(t, err)
	return p
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T: %v", err, err)
	require.Equal(t, kind, e.Kind, "unexpected kind for %v", err)
}
