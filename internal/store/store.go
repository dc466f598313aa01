// Package store holds one repository per collection. Every tenant-scoped method takes
// the hospital id as part of its query so that records of another tenant never match.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/harentsoaR/neocare-api/internal/models"
)

var (
	ErrNotFound  = errors.New("store: document not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

type ParentRepository interface {
	Create(ctx context.Context, p *models.Parent) error
	GetByID(ctx context.Context, id string) (*models.Parent, error)
	GetByEmail(ctx context.Context, email string) (*models.Parent, error)
	GetInHospital(ctx context.Context, hospitalID, id string) (*models.Parent, error)
	ListByHospital(ctx context.Context, hospitalID string) ([]*models.Parent, error)
	// ListInCare returns parents assigned directly to doctorID (without a team) or to one of teamIDs.
	ListInCare(ctx context.Context, doctorID string, teamIDs []string) ([]*models.Parent, error)
	UpdateProfile(ctx context.Context, p *models.Parent) error
	UpdatePassword(ctx context.Context, id, hash string) error
	SetHospital(ctx context.Context, id, hospitalID string) error
	SetTeam(ctx context.Context, hospitalID, id, teamID string) error
	SetDoctor(ctx context.Context, hospitalID, id, doctorID string) error
	ClearTeam(ctx context.Context, hospitalID, teamID string) (int64, error)
	ClearDoctor(ctx context.Context, hospitalID, doctorID string) (int64, error)
	Delete(ctx context.Context, hospitalID, id string) error
}

type DoctorRepository interface {
	Create(ctx context.Context, d *models.Doctor) error
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	GetByEmail(ctx context.Context, email string) (*models.Doctor, error)
	GetInHospital(ctx context.Context, hospitalID, id string) (*models.Doctor, error)
	ListByHospital(ctx context.Context, hospitalID string) ([]*models.Doctor, error)
	UpdateProfile(ctx context.Context, d *models.Doctor) error
	UpdatePassword(ctx context.Context, id, hash string) error
	SetStatus(ctx context.Context, hospitalID, id, status string) error
	SetProfileStatus(ctx context.Context, hospitalID, id, profileStatus string) error
	Delete(ctx context.Context, hospitalID, id string) error
}

type HospitalRepository interface {
	Create(ctx context.Context, h *models.Hospital) error
	GetByID(ctx context.Context, id string) (*models.Hospital, error)
	GetByEmail(ctx context.Context, email string) (*models.Hospital, error)
	GetByCode(ctx context.Context, code string) (*models.Hospital, error)
	// List returns all hospitals, or only those in status when it is non-empty.
	List(ctx context.Context, status models.HospitalStatus) ([]*models.Hospital, error)
	UpdateProfile(ctx context.Context, h *models.Hospital) error
	UpdatePassword(ctx context.Context, id, hash string) error
	// SetStatus moves id from `from` to `to`; ErrNotFound if it is not currently in `from`.
	SetStatus(ctx context.Context, id string, from, to models.HospitalStatus) error
}

type SuperadminRepository interface {
	Create(ctx context.Context, s *models.Superadmin) error
	GetByID(ctx context.Context, id string) (*models.Superadmin, error)
	GetByEmail(ctx context.Context, email string) (*models.Superadmin, error)
	UpdatePassword(ctx context.Context, id, hash string) error
}

type TeamRepository interface {
	Create(ctx context.Context, t *models.Team) error
	GetInHospital(ctx context.Context, hospitalID, id string) (*models.Team, error)
	ListByHospital(ctx context.Context, hospitalID string) ([]*models.Team, error)
	ListByMember(ctx context.Context, doctorID string) ([]*models.Team, error)
	// AddMember appends m unless the doctor is already a member (ErrDuplicate).
	AddMember(ctx context.Context, hospitalID, id string, m models.TeamMember) error
	RemoveMember(ctx context.Context, hospitalID, id, doctorID string) error
	RemoveDoctor(ctx context.Context, hospitalID, doctorID string) error
	Delete(ctx context.Context, hospitalID, id string) error
}

type TimelineRepository interface {
	Get(ctx context.Context, parentID string) (*models.Timeline, error)
	Upsert(ctx context.Context, t *models.Timeline) error
	SetTaskCompleted(ctx context.Context, parentID, taskID string, completed bool, at time.Time) error
	Delete(ctx context.Context, parentID string) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	ListConversation(ctx context.Context, conversationID string) ([]*models.Message, error)
	MarkRead(ctx context.Context, conversationID, receiverID string) (int64, error)
	CountUnread(ctx context.Context, receiverID string) (int64, error)
}

type PasswordResetRepository interface {
	Create(ctx context.Context, r *models.PasswordReset) error
	// Consume removes and returns the grant if it exists and has not expired at now.
	Consume(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordReset, error)
	// PurgeExpired deletes every grant that expired at or before now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Store bundles the repositories so they can be injected as one dependency.
type Store struct {
	Parents     ParentRepository
	Doctors     DoctorRepository
	Hospitals   HospitalRepository
	Superadmins SuperadminRepository
	Teams       TeamRepository
	Timelines   TimelineRepository
	Messages    MessageRepository
	Resets      PasswordResetRepository
}
