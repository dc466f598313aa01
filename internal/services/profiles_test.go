package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/neocare-api/internal/apperr"
	"github.com/harentsoaR/neocare-api/internal/models"
)

func TestUpdateParent_KeepsBlankFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	h := e.verifiedHospital(t, "Mercy", "mercy@example.com")
	p := e.parent(t, h.ID, "Ada", "ada@example.com")

	got, err := e.profiles.UpdateParent(ctx, p.ID, ParentProfileInput{BabyName: "  Lin ", Phone: ""})
	require.NoError(t, err)
	assert.Equal(t, "Lin", got.BabyName)
	assert.Equal(t, "555-0199", got.Phone)
	assert.Equal(t, "Ada", got.Name)

	stored, err := e.profiles.Parent(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lin", stored.BabyName)
	assert.Equal(t, h.ID, stored.HospitalID)

	_, err = e.profiles.UpdateParent(ctx, "parent_missing", ParentProfileInput{Name: "x"})
	requireKind(t, err, apperr.KindNotFound)
}

func TestUpdateDoctor_MovesToReview(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	h := e.verifiedHospital(t, "Mercy", "mercy@example.com")
	d := e.doctor(t, h.ID, "Dr. Okafor", "okafor@example.com")
	require.Equal(t, models.ProfileIncomplete, d.ProfileStatus)

	got, err := e.profiles.UpdateDoctor(ctx, d.ID, DoctorProfileInput{Bio: "Twenty years in NICU"})
	require.NoError(t, err)
	assert.Equal(t, models.ProfileUnderReview, got.ProfileStatus)
	assert.Equal(t, "Neonatology", got.Specialty)

	_, err = e.affiliation.ReviewDoctorProfile(ctx, h.ID, d.ID, string(models.ProfileComplete))
	require.NoError(t, err)
	got, err = e.profiles.UpdateDoctor(ctx, d.ID, DoctorProfileInput{Phone: "555-0142"})
	require.NoError(t, err)
	assert.Equal(t, models.ProfileComplete, got.ProfileStatus, "a reviewed profile stays complete")

	_, err = e.profiles.Doctor(ctx, "doctor_missing")
	requireKind(t, err, apperr.KindNotFound)
}

func TestSuperadminProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.auth.SeedSuperadmin(ctx, "Root", "root@example.com", testPassword)
	require.NoError(t, err)
	u, err := e.auth.FindUserByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)

	sa, err := e.profiles.Superadmin(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Root", sa.Name)

	_, err = e.profiles.Superadmin(ctx, "superadmin_missing")
	requireKind(t, err, apperr.KindNotFound)
}

func TestHospitalUpdateProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	h := e.verifiedHospital(t, "Mercy", "mercy@example.com")

	got, err := e.hospitals.UpdateProfile(ctx, h.ID, HospitalProfileInput{Mobile: "555-0111"})
	require.NoError(t, err)
	assert.Equal(t, "555-0111", got.Mobile)
	assert.Equal(t, "Mercy", got.HospitalName)
	assert.Equal(t, h.HospitalCode, got.HospitalCode)
	assert.Equal(t, models.HospitalVerified, got.Status)

	_, err = e.hospitals.UpdateProfile(ctx, "hospital_missing", HospitalProfileInput{Mobile: "1"})
	requireKind(t, err, apperr.KindNotFound)
}
