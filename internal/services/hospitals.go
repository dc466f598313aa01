package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/neocare-api/internal/apperr"
	"github.com/harentsoaR/neocare-api/internal/cache"
	"github.com/harentsoaR/neocare-api/internal/models"
	"github.com/harentsoaR/neocare-api/internal/store"
)

// HospitalService owns the hospital record: superadmin status control, the admin's own
// profile and the cached lookup used by the tenant gate.
type HospitalService struct {
	store *store.Store
	cache cache.HospitalCache
	log   zerolog.Logger
}

// HospitalLocked is the refusal for a mutation made on behalf of a hospital that is
// not verified.
func HospitalLocked(status models.HospitalStatus) *apperr.Error {
	return apperr.Forbidden("Hospital is " + string(status) + "; changes are disabled until it is verified")
}

func NewHospitalService(s *store.Store, c cache.HospitalCache, log zerolog.Logger) *HospitalService {
	return &HospitalService{store: s, cache: c, log: log.With().Str("component", "hospitals").Logger()}
}

func (s *HospitalService) List(ctx context.Context, status string) ([]*models.Hospital, error) {
	st := models.HospitalStatus(status)
	if st != "" && !st.Valid() {
		return nil, apperr.Validation("unknown hospital status: "+status, "status")
	}
	hospitals, err := s.store.Hospitals.List(ctx, st)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list hospitals")
	}
	return hospitals, nil
}

func (s *HospitalService) Get(ctx context.Context, id string) (*models.Hospital, error) {
	h, err := s.store.Hospitals.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "hospital")
	}
	return h, nil
}

// Tenant loads the hospital behind an admin token, reading through the cache.
func (s *HospitalService) Tenant(ctx context.Context, id string) (*models.Hospital, error) {
	h, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("hospital_id", id).Msg("hospital cache read failed")
	}
	if ok {
		return h, nil
	}

	h, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	h.Password = ""
	if err := s.cache.Set(ctx, h); err != nil {
		s.log.Warn().Err(err).Str("hospital_id", id).Msg("hospital cache write failed")
	}
	return h, nil
}

func (s *HospitalService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("hospital_id", id).Msg("hospital cache invalidation failed")
	}
}

// SetStatus moves a hospital along its lifecycle. Only transitions allowed by
// HospitalStatus.CanTransitionTo are accepted.
func (s *HospitalService) SetStatus(ctx context.Context, id, status string) (*models.Hospital, error) {
	next := models.HospitalStatus(status)
	if !next.Valid() {
		return nil, apperr.Validation("unknown hospital status: "+status, "status")
	}
	h, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !h.Status.CanTransitionTo(next) {
		return nil, apperr.Validation("cannot change hospital status from " + string(h.Status) + " to " + status)
	}

	err = s.store.Hospitals.SetStatus(ctx, id, h.Status, next)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Conflict("hospital status was changed by another request")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "failed to update hospital status")
	}
	s.invalidate(ctx, id)

	s.log.Info().Str("hospital_id", id).Str("from", string(h.Status)).Str("to", status).Msg("hospital status changed")
	h.Status = next
	return h, nil
}

type HospitalProfileInput struct {
	OwnerName    string `json:"ownerName"`
	HospitalName string `json:"hospitalName"`
	Address      string `json:"address"`
	Mobile       string `json:"mobile"`
}

// UpdateProfile edits the admin's own hospital. Empty fields keep their value.
func (s *HospitalService) UpdateProfile(ctx context.Context, id string, in HospitalProfileInput) (*models.Hospital, error) {
	h, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	h.OwnerName = keep(h.OwnerName, in.OwnerName)
	h.HospitalName = keep(h.HospitalName, in.HospitalName)
	h.Address = keep(h.Address, in.Address)
	h.Mobile = keep(h.Mobile, in.Mobile)
	h.UpdatedAt = time.Now()

	if err := s.store.Hospitals.UpdateProfile(ctx, h); err != nil {
		return nil, writeErr(err, "hospital")
	}
	s.invalidate(ctx, id)
	return h, nil
}

func keep(current, next string) string {
	if next = strings.TrimSpace(next); next != "" {
		return next
	}
	return current
}
