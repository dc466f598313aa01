package services

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/neocare-api/internal/apperr"
	"github.com/harentsoaR/neocare-api/internal/models"
	"github.com/harentsoaR/neocare-api/internal/utils"
)

func TestFindUserByEmail_ResolutionOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	h := e.verifiedHospital(t, "General Asha Hospital", "owner@gah.example")

	u, err := e.auth.FindUserByEmail(ctx, "  OWNER@gah.example ")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, h.OwnerName, u.Name)
	assert.Equal(t, "General Asha Hospital", u.HospitalName)

	// A legacy parent record with the same email wins over the hospital.
	require.NoError(t, e.store.Parents.Create(ctx, &models.Parent{ID: "parent_1_legacy", Name: "Legacy", Email: "owner@gah.example"}))
	u, err = e.auth.FindUserByEmail(ctx, "owner@gah.example")
	require.NoError(t, err)
	assert.Equal(t, models.RoleParent, u.Role)

	u, err = e.auth.FindUserByEmail(ctx, "nobody@nowhere.example")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestCreateUser_Defaults(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.CreateUser(ctx, &NewUser{Role: models.RoleParent, Name: "A", Email: "a@x.io"})
	requireKind(t, err, apperr.KindValidation)

	u, err := e.auth.CreateUser(ctx, &NewUser{Role: models.RoleDoctor, Name: "Dr. B", Email: "b@x.io", Password: testPassword})
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
	assert.Regexp(t, `^doctor_\d+_[0-9a-f]{12}$`, u.ID)

	d, err := e.store.Doctors.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DoctorActive, d.Status)
	assert.Equal(t, models.ProfileIncomplete, d.ProfileStatus)
	assert.NotEqual(t, testPassword, d.Password)
	assert.True(t, utils.CheckPasswordHash(testPassword, d.Password))

	u, err = e.auth.CreateUser(ctx, &NewUser{Role: models.RoleAdmin, OwnerName: "C", HospitalName: "City Care", Email: "c@x.io", Password: testPassword})
	require.NoError(t, err)
	h, err := e.store.Hospitals.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HospitalPending, h.Status)
	assert.Regexp(t, `^CC[A-Z]\d{3}$`, h.HospitalCode)
}

func TestCreateUser_HospitalCodesUnique(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seen := make(map[string]bool)
	for i := 0; i < 60; i++ {
		u, err := e.auth.CreateUser(ctx, &NewUser{
			Role:         models.RoleAdmin,
			OwnerName:    "Owner",
			HospitalName: "General Asha Hospital",
			Email:        "owner" + strings.Repeat("x", i) + "@gah.example",
			Password:     testPassword,
		})
		require.NoError(t, err)
		h, err := e.store.Hospitals.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.False(t, seen[h.HospitalCode], "duplicate hospital code %s", h.HospitalCode)
		seen[h.HospitalCode] = true
	}
}

func TestRegister_HospitalCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, e.store.Hospitals.Create(ctx, &models.Hospital{
		ID: "hospital_1_gah", OwnerName: "Asha", HospitalName: "General Asha Hospital",
		Email: "owner@gah.example", HospitalCode: "GAH789", Status: models.HospitalVerified, CreatedAt: now,
	}))

	u, err := e.auth.Register(ctx, &NewUser{
		Role: models.RoleParent, Name: "Priya", Email: "priya@x.io", Password: testPassword, HospitalCode: "GAH789",
	})
	require.NoError(t, err)
	assert.Equal(t, "hospital_1_gah", u.HospitalID)
	assert.Equal(t, "General Asha Hospital", u.HospitalName)

	_, err = e.auth.Register(ctx, &NewUser{
		Role: models.RoleParent, Name: "Q", Email: "q@x.io", Password: testPassword, HospitalCode: "GAH000",
	})
	requireKind(t, err, apperr.KindValidation)
	assert.Contains(t, err.Error(), "hospital not found")
}

func TestRegister_PendingHospitalRejectsCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.Hospitals.Create(ctx, &models.Hospital{
		ID: "hospital_1_p", Email: "p@h.io", HospitalCode: "PEN123", Status: models.HospitalPending,
	}))
	_, err := e.auth.Register(ctx, &NewUser{
		Role: models.RoleParent, Name: "Q", Email: "q@x.io", Password: testPassword, HospitalCode: "PEN123",
	})
	requireKind(t, err, apperr.KindValidation)
}

func TestRegister_IndependentParentNeedsContact(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Register(ctx, &NewUser{Role: models.RoleParent, Name: "Solo", Email: "solo@x.io", Password: testPassword})
	requireKind(t, err, apperr.KindValidation)
	appErr, _ := apperr.As(err)
	assert.ElementsMatch(t, []string{"phone", "address"}, appErr.Fields)

	u, err := e.auth.Register(ctx, &NewUser{
		Role: models.RoleParent, Name: "Solo", Email: "solo@x.io", Password: testPassword, Phone: "555", Address: "Somewhere",
	})
	require.NoError(t, err)
	assert.Empty(t, u.HospitalID)
}

func TestRegister_ValidationBeforeDuplicate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.parent(t, "", "Existing", "taken@x.io")

	// cheap checks fail first even though the email is taken
	_, err := e.auth.Register(ctx, &NewUser{Role: models.RoleParent, Name: "New", Email: "taken@x.io", Password: testPassword})
	requireKind(t, err, apperr.KindValidation)

	_, err = e.auth.Register(ctx, &NewUser{
		Role: models.RoleParent, Name: "New", Email: "taken@x.io", Password: testPassword, Phone: "1", Address: "2",
	})
	requireKind(t, err, apperr.KindConflict)
}

func TestRegister_RejectsMalformedEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	h := e.verifiedHospital(t, "Mercy", "mercy@example.com")

	for _, email := range []string{"plainword", "two@@x.io", "not-an-email\r\nBcc: victim@evil.test", "a b@x.io"} {
		_, err := e.auth.Register(ctx, &NewUser{
			Role: models.RoleParent, Name: "Ana", Email: email, Password: testPassword, Phone: "1", Address: "2",
		})
		requireKind(t, err, apperr.KindValidation)

		_, err = e.auth.Register(ctx, &NewUser{
			Role: models.RoleDoctor, Name: "Dr", Email: email, Password: testPassword,
			HospitalID: h.ID, RegisteredBy: models.RoleAdmin,
		})
		requireKind(t, err, apperr.KindValidation)
	}

	_, err := e.auth.Register(ctx, &NewUser{
		Role: models.RoleAdmin, OwnerName: "O", HospitalName: "Evil", Email: "plainword", Password: testPassword,
		Address: "1", Mobile: "2",
	})
	requireKind(t, err, apperr.KindValidation)

	_, err = e.auth.SeedSuperadmin(ctx, "Root", "root", testPassword)
	requireKind(t, err, apperr.KindValidation)
	assert.Empty(t, e.mailer.Sent())
}

func TestRegister_DuplicateAcrossRoles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.parent(t, "", "Parent", "shared@x.io")

	_, err := e.auth.Register(ctx, &NewUser{Role: models.RoleDoctor, Name: "Dr", Email: "Shared@X.io", Password: testPassword})
	requireKind(t, err, apperr.KindConflict)
}

func TestRegister_DoctorReferral(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	h := e.verifiedHospital(t, "General Asha Hospital", "owner@gah.example")
	d := e.doctor(t, h.ID, "Dr. Rao", "rao@gah.example")
	loner := e.doctor(t, "", "Dr. Loner", "loner@x.io")

	u, err := e.auth.Register(ctx, &NewUser{
		Role: models.RoleParent, Name: "Referred", Email: "ref@x.io", Password: testPassword,
		RegisteredBy: models.RoleDoctor, ReferrerID: d.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, h.ID, u.HospitalID)

	p, err := e.store.Parents.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, p.DoctorID)

	_, err = e.auth.Register(ctx, &NewUser{
		Role: models.RoleParent, Name: "Referred", Email: "ref2@x.io", Password: testPassword,
		RegisteredBy: models.RoleDoctor, ReferrerID: loner.ID,
	})
	requireKind(t, err, apperr.KindValidation)
}

func TestRegister_WelcomeMailFailureIsSwallowed(t *testing.T) {
	e := newEnv(t)
	e.mailer.fail = true

	u, err := e.auth.Register(context.Background(), &NewUser{
		Role: models.RoleAdmin, OwnerName: "O", HospitalName: "Hope Clinic", Email: "o@hope.io", Password: testPassword,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	e.notify.Wait()
	sent := e.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "o@hope.io", sent[0].To)
	assert.Regexp(t, regexp.MustCompile(`HC[A-Z]\d{3}`), sent[0].Body)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	h := e.verifiedHospital(t, "General Asha Hospital", "owner@gah.example")
	d := e.doctor(t, h.ID, "Dr. Rao", "rao@gah.example")

	res, err := e.auth.Login(ctx, "rao@gah.example", testPassword, models.RoleDoctor)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, d.ID, res.User.ID)
	assert.Equal(t, "General Asha Hospital", res.User.HospitalName)
	assert.Empty(t, res.User.PasswordHash)

	_, err = e.auth.Login(ctx, "rao@gah.example", testPassword, models.RoleParent)
	requireKind(t, err, apperr.KindForbidden)

	_, wrongPass := e.auth.Login(ctx, "rao@gah.example", "not-the-password", models.RoleDoctor)
	requireKind(t, wrongPass, apperr.KindAuth)
	_, unknown := e.auth.Login(ctx, "ghost@gah.example", testPassword, models.RoleDoctor)
	requireKind(t, unknown, apperr.KindAuth)
	assert.Equal(t, wrongPass.Error(), unknown.Error())

	// The role check only runs after the password is proven.
	_, err = e.auth.Login(ctx, "rao@gah.example", "not-the-password", models.RoleParent)
	requireKind(t, err, apperr.KindAuth)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.parent(t, "", "Parent", "p@x.io")

	requireKind(t, e.auth.ChangePassword(ctx, models.RoleParent, p.ID, "wrong-current", "new-password-1"), apperr.KindAuth)
	requireKind(t, e.auth.ChangePassword(ctx, models.RoleParent, "parent_0_missing", testPassword, "new-password-1"), apperr.KindNotFound)
	requireKind(t, e.auth.ChangePassword(ctx, models.RoleParent, p.ID, testPassword, "short"), apperr.KindValidation)

	require.NoError(t, e.auth.ChangePassword(ctx, models.RoleParent, p.ID, testPassword, "new-password-1"))
	_, err := e.auth.Login(ctx, "p@x.io", "new-password-1", models.RoleParent)
	assert.NoError(t, err)
}

func TestForgotAndResetPassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.parent(t, "", "Parent", "p@x.io")
	e.notify.Wait()
	before := len(e.mailer.Sent())

	e.auth.ForgotPassword(ctx, "nobody@x.io")
	e.notify.Wait()
	assert.Len(t, e.mailer.Sent(), before)

	e.auth.ForgotPassword(ctx, "p@x.io")
	e.notify.Wait()
	sent := e.mailer.Sent()
	require.Len(t, sent, before+1)

	match := regexp.MustCompile(`token=([0-9a-f]{64})`).FindStringSubmatch(sent[len(sent)-1].Body)
	require.Len(t, match, 2)
	token := match[1]

	requireKind(t, e.auth.ResetPassword(ctx, "bogus", "brand-new-pass"), apperr.KindValidation)
	require.NoError(t, e.auth.ResetPassword(ctx, token, "brand-new-pass"))
	requireKind(t, e.auth.ResetPassword(ctx, token, "another-pass-1"), apperr.KindValidation)

	_, err := e.auth.Login(ctx, "p@x.io", "brand-new-pass", models.RoleParent)
	assert.NoError(t, err)
}

func TestResetPassword_Expired(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.parent(t, "", "Parent", "p@x.io")
	e.auth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	e.auth.ForgotPassword(ctx, "p@x.io")
	e.notify.Wait()
	e.auth.now = time.Now

	sent := e.mailer.Sent()
	match := regexp.MustCompile(`token=([0-9a-f]{64})`).FindStringSubmatch(sent[len(sent)-1].Body)
	require.Len(t, match, 2)
	requireKind(t, e.auth.ResetPassword(ctx, match[1], "brand-new-pass"), apperr.KindValidation)
}

func TestSeedSuperadmin_Idempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.auth.SeedSuperadmin(ctx, "Root", "root@neocare.io", testPassword)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = e.auth.SeedSuperadmin(ctx, "Root", "ROOT@neocare.io", testPassword)
	require.NoError(t, err)
	assert.False(t, created)

	res, err := e.auth.Login(ctx, "root@neocare.io", testPassword, models.RoleSuperadmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperadmin, res.User.Role)
}
