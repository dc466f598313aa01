package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/neocare-api/internal/apperr"
	"github.com/harentsoaR/neocare-api/internal/models"
	"github.com/harentsoaR/neocare-api/internal/store"
	"github.com/harentsoaR/neocare-api/internal/utils"
)

// AffiliationService manages who belongs to which hospital and who cares for whom.
// Every tenant-scoped method takes the hospital id from the caller's token and passes
// it down to the store, so ids from another tenant behave as if they did not exist.
type AffiliationService struct {
	store *store.Store
	log   zerolog.Logger
}

func NewAffiliationService(s *store.Store, log zerolog.Logger) *AffiliationService {
	return &AffiliationService{store: s, log: log.With().Str("component", "affiliation").Logger()}
}

// FindHospitalByCode returns nil when no hospital carries code exactly.
func (s *AffiliationService) FindHospitalByCode(ctx context.Context, code string) (*models.Hospital, error) {
	h, err := s.store.Hospitals.GetByCode(ctx, strings.TrimSpace(code))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err, "failed to look up hospital code")
	}
	return h, nil
}

// GetHospitalByDoctorID returns nil when the doctor is unknown or unaffiliated.
func (s *AffiliationService) GetHospitalByDoctorID(ctx context.Context, doctorID string) (*models.Hospital, error) {
	d, err := s.store.Doctors.GetByID(ctx, doctorID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load doctor")
	}
	if d.HospitalID == "" {
		return nil, nil
	}
	h, err := s.store.Hospitals.GetByID(ctx, d.HospitalID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load hospital")
	}
	return h, nil
}

func (s *AffiliationService) GetDoctorsByHospital(ctx context.Context, hospitalID string) ([]*models.Doctor, error) {
	doctors, err := s.store.Doctors.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list doctors")
	}
	return doctors, nil
}

func (s *AffiliationService) GetDoctor(ctx context.Context, hospitalID, doctorID string) (*models.Doctor, error) {
	d, err := s.store.Doctors.GetInHospital(ctx, hospitalID, doctorID)
	if err != nil {
		return nil, lookupErr(err, "doctor")
	}
	return d, nil
}

// GetParentsByHospital lists the tenant's parents with the assigned doctor's name
// resolved against the same tenant's doctors. Anything unresolvable is "Unassigned".
func (s *AffiliationService) GetParentsByHospital(ctx context.Context, hospitalID string) ([]*models.ParentListing, error) {
	parents, err := s.store.Parents.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list parents")
	}
	doctors, err := s.store.Doctors.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list doctors")
	}
	teams, err := s.store.Teams.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list teams")
	}

	doctorNames := make(map[string]string, len(doctors))
	for _, d := range doctors {
		doctorNames[d.ID] = d.Name
	}
	teamNames := make(map[string]string, len(teams))
	for _, t := range teams {
		teamNames[t.ID] = t.Name
	}

	out := make([]*models.ParentListing, 0, len(parents))
	for _, p := range parents {
		assigned, ok := doctorNames[p.DoctorID]
		if p.DoctorID == "" || !ok {
			assigned = "Unassigned"
		}
		out = append(out, &models.ParentListing{
			Parent:         *p,
			AssignedDoctor: assigned,
			AssignedTeam:   teamNames[p.TeamID],
		})
	}
	return out, nil
}

func (s *AffiliationService) GetParent(ctx context.Context, hospitalID, parentID string) (*models.Parent, error) {
	p, err := s.store.Parents.GetInHospital(ctx, hospitalID, parentID)
	if err != nil {
		return nil, lookupErr(err, "parent")
	}
	return p, nil
}

// --- teams ---

func (s *AffiliationService) ListTeams(ctx context.Context, hospitalID string) ([]*models.Team, error) {
	teams, err := s.store.Teams.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list teams")
	}
	return teams, nil
}

func (s *AffiliationService) CreateTeam(ctx context.Context, hospitalID, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("team name is required", "name")
	}
	now := time.Now()
	team := &models.Team{
		ID:         utils.NewID("team"),
		HospitalID: hospitalID,
		Name:       name,
		Members:    []models.TeamMember{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Teams.Create(ctx, team); err != nil {
		return nil, writeErr(err, "team")
	}
	return team, nil
}

// AddTeamMember appends an active doctor of the same hospital to the team.
func (s *AffiliationService) AddTeamMember(ctx context.Context, hospitalID, teamID, doctorID, role string) (*models.Team, error) {
	if strings.TrimSpace(doctorID) == "" {
		return nil, apperr.Validation("doctorId is required", "doctorId")
	}
	if _, err := s.store.Teams.GetInHospital(ctx, hospitalID, teamID); err != nil {
		return nil, lookupErr(err, "team")
	}

	d, err := s.store.Doctors.GetInHospital(ctx, hospitalID, doctorID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Validation("doctor not found", "doctorId")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load doctor")
	}
	if d.Status != models.DoctorActive {
		return nil, apperr.Validation("only active doctors can join a team", "doctorId")
	}

	member := models.TeamMember{DoctorID: d.ID, Name: d.Name, Role: strings.TrimSpace(role)}
	if member.Role == "" {
		member.Role = d.Specialty
	}
	err = s.store.Teams.AddMember(ctx, hospitalID, teamID, member)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return nil, apperr.Validation("doctor is already a member of this team", "doctorId")
	case err != nil:
		return nil, writeErr(err, "team")
	}
	return s.getTeam(ctx, hospitalID, teamID)
}

func (s *AffiliationService) RemoveTeamMember(ctx context.Context, hospitalID, teamID, doctorID string) (*models.Team, error) {
	if _, err := s.store.Teams.GetInHospital(ctx, hospitalID, teamID); err != nil {
		return nil, lookupErr(err, "team")
	}
	if err := s.store.Teams.RemoveMember(ctx, hospitalID, teamID, doctorID); err != nil {
		return nil, lookupErr(err, "team member")
	}
	return s.getTeam(ctx, hospitalID, teamID)
}

// DeleteTeam unassigns the team's parents before removing it, so no parent is left
// pointing at a missing team.
func (s *AffiliationService) DeleteTeam(ctx context.Context, hospitalID, teamID string) error {
	if _, err := s.store.Teams.GetInHospital(ctx, hospitalID, teamID); err != nil {
		return lookupErr(err, "team")
	}
	n, err := s.store.Parents.ClearTeam(ctx, hospitalID, teamID)
	if err != nil {
		return apperr.Wrap(err, "failed to unassign parents from team")
	}
	if err := s.store.Teams.Delete(ctx, hospitalID, teamID); err != nil {
		return lookupErr(err, "team")
	}
	s.log.Info().Str("hospital_id", hospitalID).Str("team_id", teamID).Int64("parents_unassigned", n).Msg("team deleted")
	return nil
}

func (s *AffiliationService) getTeam(ctx context.Context, hospitalID, teamID string) (*models.Team, error) {
	t, err := s.store.Teams.GetInHospital(ctx, hospitalID, teamID)
	if err != nil {
		return nil, lookupErr(err, "team")
	}
	return t, nil
}

// --- assignment ---

func (s *AffiliationService) AssignParentToTeam(ctx context.Context, hospitalID, parentID, teamID string) error {
	if strings.TrimSpace(teamID) == "" {
		return apperr.Validation("teamId is required", "teamId")
	}
	if _, err := s.GetParent(ctx, hospitalID, parentID); err != nil {
		return err
	}
	if _, err := s.getTeam(ctx, hospitalID, teamID); err != nil {
		return err
	}
	if err := s.store.Parents.SetTeam(ctx, hospitalID, parentID, teamID); err != nil {
		return writeErr(err, "parent")
	}
	return nil
}

// AssignParentToDoctor sets the legacy single-doctor assignment.
func (s *AffiliationService) AssignParentToDoctor(ctx context.Context, hospitalID, parentID, doctorID string) error {
	if strings.TrimSpace(doctorID) == "" {
		return apperr.Validation("doctorId is required", "doctorId")
	}
	if _, err := s.GetParent(ctx, hospitalID, parentID); err != nil {
		return err
	}
	if _, err := s.GetDoctor(ctx, hospitalID, doctorID); err != nil {
		return err
	}
	if err := s.store.Parents.SetDoctor(ctx, hospitalID, parentID, doctorID); err != nil {
		return writeErr(err, "parent")
	}
	return nil
}

// CareTeam resolves the parent's effective care team: the assigned team when there
// is one, otherwise the single assigned doctor, otherwise nobody.
func (s *AffiliationService) CareTeam(ctx context.Context, p *models.Parent) (*models.CareTeam, error) {
	if p.TeamID != "" && p.HospitalID != "" {
		t, err := s.store.Teams.GetInHospital(ctx, p.HospitalID, p.TeamID)
		switch {
		case err == nil:
			return &models.CareTeam{
				Source:   models.CareTeamFromTeam,
				TeamID:   t.ID,
				TeamName: t.Name,
				Members:  t.Members,
			}, nil
		case !errors.Is(err, store.ErrNotFound):
			return nil, apperr.Wrap(err, "failed to load team")
		}
	}

	if p.DoctorID != "" {
		d, err := s.store.Doctors.GetByID(ctx, p.DoctorID)
		switch {
		case err == nil && (p.HospitalID == "" || d.HospitalID == p.HospitalID):
			return &models.CareTeam{
				Source:  models.CareTeamFromDoctor,
				Members: []models.TeamMember{{DoctorID: d.ID, Name: d.Name, Role: d.Specialty}},
			}, nil
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return nil, apperr.Wrap(err, "failed to load doctor")
		}
	}
	return &models.CareTeam{Source: models.CareTeamNone, Members: []models.TeamMember{}}, nil
}

func (s *AffiliationService) ParentCareTeam(ctx context.Context, parentID string) (*models.CareTeam, error) {
	p, err := s.store.Parents.GetByID(ctx, parentID)
	if err != nil {
		return nil, lookupErr(err, "parent")
	}
	return s.CareTeam(ctx, p)
}

// ParentsInCare lists the parents whose effective care team includes doctorID.
func (s *AffiliationService) ParentsInCare(ctx context.Context, doctorID string) ([]*models.Parent, error) {
	teams, err := s.store.Teams.ListByMember(ctx, doctorID)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list teams")
	}
	teamIDs := make([]string, 0, len(teams))
	for _, t := range teams {
		teamIDs = append(teamIDs, t.ID)
	}
	parents, err := s.store.Parents.ListInCare(ctx, doctorID, teamIDs)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list parents")
	}
	return parents, nil
}

// ParentForDoctor returns the parent only if doctorID is part of their care team.
func (s *AffiliationService) ParentForDoctor(ctx context.Context, doctorID, parentID string) (*models.Parent, error) {
	p, err := s.store.Parents.GetByID(ctx, parentID)
	if err != nil {
		return nil, lookupErr(err, "parent")
	}
	ct, err := s.CareTeam(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ct.Includes(doctorID) {
		return nil, apperr.NotFound("parent not found")
	}
	return p, nil
}

// JoinHospital affiliates an independent parent with the hospital behind code.
func (s *AffiliationService) JoinHospital(ctx context.Context, parentID, code string) (*models.Hospital, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperr.Validation("hospitalCode is required", "hospitalCode")
	}
	p, err := s.store.Parents.GetByID(ctx, parentID)
	if err != nil {
		return nil, lookupErr(err, "parent")
	}
	if p.HospitalID != "" {
		return nil, apperr.Conflict("parent is already affiliated with a hospital")
	}
	h, err := s.verifiedHospitalByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.store.Parents.SetHospital(ctx, parentID, h.ID); err != nil {
		return nil, writeErr(err, "parent")
	}
	return h, nil
}

func (s *AffiliationService) verifiedHospitalByCode(ctx context.Context, code string) (*models.Hospital, error) {
	h, err := s.FindHospitalByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, apperr.Validation("hospital not found", "hospitalCode")
	}
	if h.Status != models.HospitalVerified {
		return nil, apperr.Validation("hospital is not accepting registrations", "hospitalCode")
	}
	return h, nil
}

// --- doctor administration ---

var doctorStatuses = map[string]bool{
	models.DoctorActive:    true,
	models.DoctorOnLeave:   true,
	models.DoctorSuspended: true,
}

func (s *AffiliationService) SetDoctorStatus(ctx context.Context, hospitalID, doctorID, status string) (*models.Doctor, error) {
	if !doctorStatuses[status] {
		return nil, apperr.Validation("status must be Active, On Leave or Suspended", "status")
	}
	if err := s.store.Doctors.SetStatus(ctx, hospitalID, doctorID, status); err != nil {
		return nil, lookupErr(err, "doctor")
	}
	return s.GetDoctor(ctx, hospitalID, doctorID)
}

// ReviewDoctorProfile settles a profile that is under review.
func (s *AffiliationService) ReviewDoctorProfile(ctx context.Context, hospitalID, doctorID, profileStatus string) (*models.Doctor, error) {
	if profileStatus != models.ProfileComplete && profileStatus != models.ProfileIncomplete {
		return nil, apperr.Validation("profileStatus must be complete or incomplete_profile", "profileStatus")
	}
	d, err := s.GetDoctor(ctx, hospitalID, doctorID)
	if err != nil {
		return nil, err
	}
	if d.ProfileStatus != models.ProfileUnderReview {
		return nil, apperr.Validation("doctor profile is not awaiting review", "profileStatus")
	}
	if err := s.store.Doctors.SetProfileStatus(ctx, hospitalID, doctorID, profileStatus); err != nil {
		return nil, lookupErr(err, "doctor")
	}
	d.ProfileStatus = profileStatus
	return d, nil
}

// DeleteDoctor removes the doctor from every team of the hospital and clears the
// legacy assignment of their parents before deleting the record.
func (s *AffiliationService) DeleteDoctor(ctx context.Context, hospitalID, doctorID string) error {
	if _, err := s.GetDoctor(ctx, hospitalID, doctorID); err != nil {
		return err
	}
	if err := s.store.Teams.RemoveDoctor(ctx, hospitalID, doctorID); err != nil {
		return apperr.Wrap(err, "failed to remove doctor from teams")
	}
	if _, err := s.store.Parents.ClearDoctor(ctx, hospitalID, doctorID); err != nil {
		return apperr.Wrap(err, "failed to unassign doctor from parents")
	}
	if err := s.store.Doctors.Delete(ctx, hospitalID, doctorID); err != nil {
		return lookupErr(err, "doctor")
	}
	return nil
}

func (s *AffiliationService) DeleteParent(ctx context.Context, hospitalID, parentID string) error {
	if err := s.store.Parents.Delete(ctx, hospitalID, parentID); err != nil {
		return lookupErr(err, "parent")
	}
	if err := s.store.Timelines.Delete(ctx, parentID); err != nil {
		s.log.Warn().Err(err).Str("parent_id", parentID).Msg("failed to delete timeline of deleted parent")
	}
	return nil
}
