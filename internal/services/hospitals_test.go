package services

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/neocare-api/internal/apperr"
	"github.com/harentsoaR/neocare-api/internal/models"
)

// mapCache is an in-process HospitalCache that counts invalidations.
type mapCache struct {
	mu      sync.Mutex
	items   map[string]models.Hospital
	deletes int
}

func newMapCache() *mapCache { return &mapCache{items: make(map[string]models.Hospital)} }

func (c *mapCache) Get(_ context.Context, id string) (*models.Hospital, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.items[id]
	if !ok {
		return nil, false, nil
	}
	return &h, true, nil
}

func (c *mapCache) Set(_ context.Context, h *models.Hospital) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[h.ID] = *h
	return nil
}

func (c *mapCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	c.deletes++
	return nil
}

func TestHospitalStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to models.HospitalStatus
		ok       bool
	}{
		{models.HospitalPending, models.HospitalVerified, true},
		{models.HospitalPending, models.HospitalRejected, true},
		{models.HospitalPending, models.HospitalSuspended, false},
		{models.HospitalVerified, models.HospitalSuspended, true},
		{models.HospitalVerified, models.HospitalRejected, false},
		{models.HospitalVerified, models.HospitalVerified, false},
		{models.HospitalSuspended, models.HospitalVerified, true},
		{models.HospitalSuspended, models.HospitalRejected, true},
		{models.HospitalRejected, models.HospitalVerified, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			e := newEnv(t)
			ctx := context.Background()
			require.NoError(t, e.store.Hospitals.Create(ctx, &models.Hospital{
				ID: "hospital_1_x", Email: "x@h.io", HospitalCode: "XXX111", Status: tt.from,
			}))

			h, err := e.hospitals.SetStatus(ctx, "hospital_1_x", string(tt.to))
			if !tt.ok {
				requireKind(t, err, apperr.KindValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, h.Status)
		})
	}
}

func TestHospitalSetStatus_Errors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.hospitals.SetStatus(ctx, "hospital_0_none", string(models.HospitalVerified))
	requireKind(t, err, apperr.KindNotFound)

	_, err = e.hospitals.SetStatus(ctx, "hospital_0_none", "closed")
	requireKind(t, err, apperr.KindValidation)
}

func TestHospitalTenant_ReadsThroughCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := newMapCache()
	hospitals := NewHospitalService(e.store, c, zerolog.Nop())
	h := e.verifiedHospital(t, "Alpha Hospital", "a@alpha.io")

	got, err := hospitals.Tenant(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HospitalVerified, got.Status)
	cached, ok, _ := c.Get(ctx, h.ID)
	require.True(t, ok)
	assert.Empty(t, cached.Password)

	_, err = hospitals.SetStatus(ctx, h.ID, string(models.HospitalSuspended))
	require.NoError(t, err)
	assert.Equal(t, 1, c.deletes)

	got, err = hospitals.Tenant(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HospitalSuspended, got.Status)

	_, err = hospitals.UpdateProfile(ctx, h.ID, HospitalProfileInput{Mobile: "555-0111"})
	require.NoError(t, err)
	assert.Equal(t, 2, c.deletes)

	_, err = hospitals.Tenant(ctx, "hospital_0_none")
	requireKind(t, err, apperr.KindNotFound)
}

func TestHospitalList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.verifiedHospital(t, "Alpha Hospital", "a@alpha.io")
	_, err := e.auth.Register(ctx, &NewUser{
		Role: models.RoleAdmin, OwnerName: "B", HospitalName: "Beta Hospital", Email: "b@beta.io", Password: testPassword,
	})
	require.NoError(t, err)

	all, err := e.hospitals.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := e.hospitals.List(ctx, string(models.HospitalPending))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Beta Hospital", pending[0].HospitalName)

	_, err = e.hospitals.List(ctx, "closed")
	requireKind(t, err, apperr.KindValidation)
}
