package utils

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/neocare-api/internal/models"
)

func TestMain(m *testing.M) {
	SetHashCost(bcrypt.MinCost)
	m.Run()
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
	assert.False(t, CheckPasswordHash("s3cret-pass", ""))

	again, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes must be salted")
}

func testUser() *models.User {
	return &models.User{
		ID:           "hospital_1_abc",
		Role:         models.RoleAdmin,
		Name:         "Asha Rao",
		Email:        "owner@gah.example",
		HospitalName: "General Asha Hospital",
		HospitalID:   "hospital_1_abc",
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123", time.Hour)

	token, exp, err := issuer.GenerateJWT(testUser())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := issuer.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "hospital_1_abc", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "Asha Rao", claims.Name)
	assert.Equal(t, "owner@gah.example", claims.Email)
	assert.Equal(t, "General Asha Hospital", claims.HospitalName)
}

func TestTokenIssuer_Expired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuer := NewTokenIssuer("0123456789abcdef0123", time.Hour).WithClock(func() time.Time { return past })
	token, _, err := issuer.GenerateJWT(testUser())
	require.NoError(t, err)

	_, err = NewTokenIssuer("0123456789abcdef0123", time.Hour).ValidateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("0123456789abcdef0123", time.Hour).GenerateJWT(testUser())
	require.NoError(t, err)

	_, err = NewTokenIssuer("another-secret-value", time.Hour).ValidateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsUnsignedAndForeignAlgorithms(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123", time.Hour)
	claims := &Claims{
		UserID: "superadmin_1_x",
		Role:   models.RoleSuperadmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.ValidateJWT(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("0123456789abcdef0123"))
	require.NoError(t, err)
	_, err = issuer.ValidateJWT(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RequiresExpiry(t *testing.T) {
	claims := &Claims{UserID: "parent_1_x", Role: models.RoleParent}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("0123456789abcdef0123"))
	require.NoError(t, err)

	_, err = NewTokenIssuer("0123456789abcdef0123", time.Hour).ValidateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Garbage(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123", time.Hour)
	for _, tok := range []string{"", "abc", "a.b.c"} {
		_, err := issuer.ValidateJWT(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, tok)
	}
}

func TestTokenIssuer_NoSecret(t *testing.T) {
	_, _, err := NewTokenIssuer("", time.Hour).GenerateJWT(testUser())
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestNewID(t *testing.T) {
	pattern := regexp.MustCompile(`^parent_\d+_[0-9a-f]{12}$`)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID("parent")
		assert.Regexp(t, pattern, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestHospitalCodeCandidate(t *testing.T) {
	code := HospitalCodeCandidate("General Asha Hospital", 3)
	assert.Regexp(t, `^GAH\d{3}$`, code)

	short := HospitalCodeCandidate("St. Mary", 3)
	assert.Len(t, short, 6)
	assert.True(t, strings.HasPrefix(short, "SM"))

	empty := HospitalCodeCandidate("", 4)
	assert.Regexp(t, `^[A-Z]{3}\d{4}$`, empty)
}

func TestConversationID_Commutative(t *testing.T) {
	pairs := [][2]string{
		{"parent_1_a", "doctor_2_b"},
		{"doctor_9_z", "parent_1_a"},
		{"x", "x"},
		{"", "hospital_3_c"},
	}
	for _, p := range pairs {
		assert.Equal(t, ConversationID(p[0], p[1]), ConversationID(p[1], p[0]))
	}
	assert.NotEqual(t, ConversationID("a", "b"), ConversationID("a", "c"))
}

func TestResetToken(t *testing.T) {
	tok, err := NewResetToken()
	require.NoError(t, err)
	assert.Len(t, tok, 64)
	assert.Equal(t, HashToken(tok), HashToken(tok))
	assert.NotEqual(t, tok, HashToken(tok))
}
