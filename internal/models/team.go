package models

import "time"

// Team is a hospital-scoped care team. Member order is display order.
type Team struct {
	ID         string       `bson:"_id" json:"id"`
	HospitalID string       `bson:"hospitalId" json:"hospitalId"`
	Name       string       `bson:"name" json:"name"`
	Members    []TeamMember `bson:"members" json:"members"`
	CreatedAt  time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time    `bson:"updatedAt" json:"updatedAt"`
}

type TeamMember struct {
	DoctorID string `bson:"doctorId" json:"doctorId"`
	Name     string `bson:"name" json:"name"`
	Role     string `bson:"role" json:"role"`
}

func (t *Team) HasMember(doctorID string) bool {
	for _, m := range t.Members {
		if m.DoctorID == doctorID {
			return true
		}
	}
	return false
}

const (
	CareTeamFromTeam   = "team"
	CareTeamFromDoctor = "doctor"
	CareTeamNone       = "none"
)

// CareTeam is a parent's effective care team.
type CareTeam struct {
	Source   string       `json:"source"`
	TeamID   string       `json:"teamId,omitempty"`
	TeamName string       `json:"teamName,omitempty"`
	Members  []TeamMember `json:"members"`
}

func (c *CareTeam) Includes(doctorID string) bool {
	for _, m := range c.Members {
		if m.DoctorID == doctorID {
			return true
		}
	}
	return false
}
