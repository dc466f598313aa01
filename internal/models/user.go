package models

import "time"

type HospitalStatus string

const (
	HospitalPending   HospitalStatus = "pending_verification"
	HospitalVerified  HospitalStatus = "verified"
	HospitalSuspended HospitalStatus = "suspended"
	HospitalRejected  HospitalStatus = "rejected"
)

// hospitalTransitions lists the statuses reachable from each status.
var hospitalTransitions = map[HospitalStatus][]HospitalStatus{
	HospitalPending:   {HospitalVerified, HospitalRejected},
	HospitalVerified:  {HospitalSuspended},
	HospitalSuspended: {HospitalVerified, HospitalRejected},
}

func (s HospitalStatus) Valid() bool {
	switch s {
	case HospitalPending, HospitalVerified, HospitalSuspended, HospitalRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a superadmin may move a hospital from s to next.
func (s HospitalStatus) CanTransitionTo(next HospitalStatus) bool {
	for _, allowed := range hospitalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

const (
	DoctorActive    = "Active"
	DoctorOnLeave   = "On Leave"
	DoctorSuspended = "Suspended"
)

const (
	ProfileIncomplete  = "incomplete_profile"
	ProfileUnderReview = "under_review"
	ProfileComplete    = "complete"
)

const (
	ParentActive   = "Active"
	ParentInactive = "Inactive"
)

const SuperadminActive = "Active"

// Hospital is the tenant root. Its ID is also the subject of every Admin token.
type Hospital struct {
	ID           string         `bson:"_id" json:"id"`
	OwnerName    string         `bson:"ownerName" json:"ownerName"`
	HospitalName string         `bson:"hospitalName" json:"hospitalName"`
	Email        string         `bson:"email" json:"email"`
	Password     string         `bson:"password" json:"-"`
	Address      string         `bson:"address" json:"address"`
	Mobile       string         `bson:"mobile" json:"mobile"`
	HospitalCode string         `bson:"hospitalCode" json:"hospitalCode"`
	Status       HospitalStatus `bson:"status" json:"status"`
	CreatedAt    time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time      `bson:"updatedAt" json:"updatedAt"`
}

type Doctor struct {
	ID            string    `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Email         string    `bson:"email" json:"email"`
	Password      string    `bson:"password" json:"-"`
	Specialty     string    `bson:"specialty" json:"specialty"`
	Phone         string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Bio           string    `bson:"bio,omitempty" json:"bio,omitempty"`
	HospitalID    string    `bson:"hospitalId,omitempty" json:"hospitalId,omitempty"`
	Status        string    `bson:"status" json:"status"`
	ProfileStatus string    `bson:"profileStatus" json:"profileStatus"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Parent is a registered caregiver. TeamID supersedes the legacy DoctorID when set.
type Parent struct {
	ID         string    `bson:"_id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	BabyName   string    `bson:"babyName,omitempty" json:"babyName,omitempty"`
	BabyDob    string    `bson:"babyDob,omitempty" json:"babyDob,omitempty"`
	Email      string    `bson:"email" json:"email"`
	Password   string    `bson:"password" json:"-"`
	Phone      string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Address    string    `bson:"address,omitempty" json:"address,omitempty"`
	HospitalID string    `bson:"hospitalId,omitempty" json:"hospitalId,omitempty"`
	DoctorID   string    `bson:"doctorId,omitempty" json:"doctorId,omitempty"`
	TeamID     string    `bson:"teamId,omitempty" json:"teamId,omitempty"`
	Status     string    `bson:"status" json:"status"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ParentListing is a Parent as shown to the hospital admin.
type ParentListing struct {
	Parent
	AssignedDoctor string `json:"assignedDoctor"`
	AssignedTeam   string `json:"assignedTeam,omitempty"`
}

type Superadmin struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Password  string    `bson:"password" json:"-"`
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// User is the role-independent view of an account returned by email resolution.
// Hospitals expose their owner name as Name.
type User struct {
	ID           string `json:"id"`
	Role         Role   `json:"role"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	HospitalName string `json:"hospitalName,omitempty"`
	HospitalID   string `json:"hospitalId,omitempty"`
	Status       string `json:"status,omitempty"`
	PasswordHash string `json:"-"`
}

func (h *Hospital) User() *User {
	return &User{
		ID:           h.ID,
		Role:         RoleAdmin,
		Name:         h.OwnerName,
		Email:        h.Email,
		HospitalName: h.HospitalName,
		HospitalID:   h.ID,
		Status:       string(h.Status),
		PasswordHash: h.Password,
	}
}

func (d *Doctor) User() *User {
	return &User{
		ID:           d.ID,
		Role:         RoleDoctor,
		Name:         d.Name,
		Email:        d.Email,
		HospitalID:   d.HospitalID,
		Status:       d.Status,
		PasswordHash: d.Password,
	}
}

func (p *Parent) User() *User {
	return &User{
		ID:           p.ID,
		Role:         RoleParent,
		Name:         p.Name,
		Email:        p.Email,
		HospitalID:   p.HospitalID,
		Status:       p.Status,
		PasswordHash: p.Password,
	}
}

func (s *Superadmin) User() *User {
	return &User{
		ID:           s.ID,
		Role:         RoleSuperadmin,
		Name:         s.Name,
		Email:        s.Email,
		Status:       s.Status,
		PasswordHash: s.Password,
	}
}
