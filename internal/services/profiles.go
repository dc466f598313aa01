package services

import (
	"context"
	"time"

	"github.com/harentsoaR/neocare-api/internal/models"
	"github.com/harentsoaR/neocare-api/internal/store"
)

// ProfileService serves the self-service profile of parents and doctors.
type ProfileService struct {
	store *store.Store
}

func NewProfileService(s *store.Store) *ProfileService {
	return &ProfileService{store: s}
}

func (s *ProfileService) Parent(ctx context.Context, id string) (*models.Parent, error) {
	p, err := s.store.Parents.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "parent")
	}
	return p, nil
}

type ParentProfileInput struct {
	Name     string `json:"name"`
	BabyName string `json:"babyName"`
	BabyDob  string `json:"babyDob"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (s *ProfileService) UpdateParent(ctx context.Context, id string, in ParentProfileInput) (*models.Parent, error) {
	p, err := s.Parent(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = keep(p.Name, in.Name)
	p.BabyName = keep(p.BabyName, in.BabyName)
	p.BabyDob = keep(p.BabyDob, in.BabyDob)
	p.Phone = keep(p.Phone, in.Phone)
	p.Address = keep(p.Address, in.Address)
	p.UpdatedAt = time.Now()

	if err := s.store.Parents.UpdateProfile(ctx, p); err != nil {
		return nil, writeErr(err, "parent")
	}
	return p, nil
}

func (s *ProfileService) Doctor(ctx context.Context, id string) (*models.Doctor, error) {
	d, err := s.store.Doctors.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "doctor")
	}
	return d, nil
}

type DoctorProfileInput struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	Bio       string `json:"bio"`
}

// UpdateDoctor saves the doctor's edits and sends an incomplete profile to review.
func (s *ProfileService) UpdateDoctor(ctx context.Context, id string, in DoctorProfileInput) (*models.Doctor, error) {
	d, err := s.Doctor(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Name = keep(d.Name, in.Name)
	d.Specialty = keep(d.Specialty, in.Specialty)
	d.Phone = keep(d.Phone, in.Phone)
	d.Bio = keep(d.Bio, in.Bio)
	if d.ProfileStatus == models.ProfileIncomplete {
		d.ProfileStatus = models.ProfileUnderReview
	}
	d.UpdatedAt = time.Now()

	if err := s.store.Doctors.UpdateProfile(ctx, d); err != nil {
		return nil, writeErr(err, "doctor")
	}
	return d, nil
}

func (s *ProfileService) Superadmin(ctx context.Context, id string) (*models.Superadmin, error) {
	sa, err := s.store.Superadmins.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "superadmin")
	}
	return sa, nil
}
