package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of account kinds. Each role lives in its own collection.
type Role string

const (
	RoleParent     Role = "Parent"
	RoleDoctor     Role = "Doctor"
	RoleAdmin      Role = "Admin"
	RoleSuperadmin Role = "Superadmin"
)

// RoleSpec describes where a role is stored and which fields registration needs.
type RoleSpec struct {
	Collection string
	IDPrefix   string
	Required   []string
}

var roleSpecs = map[Role]RoleSpec{
	RoleParent:     {Collection: "parents", IDPrefix: "parent", Required: []string{"name", "email", "password"}},
	RoleDoctor:     {Collection: "doctors", IDPrefix: "doctor", Required: []string{"name", "email", "password"}},
	RoleAdmin:      {Collection: "hospitals", IDPrefix: "hospital", Required: []string{"ownerName", "hospitalName", "email", "password"}},
	RoleSuperadmin: {Collection: "superadmins", IDPrefix: "superadmin", Required: []string{"name", "email", "password"}},
}

// ResolutionOrder is the fixed collection priority used when an email is looked up
// without knowing the role.
var ResolutionOrder = []Role{RoleParent, RoleDoctor, RoleAdmin, RoleSuperadmin}

// Spec returns the storage/validation description of r. It panics on a role outside
// the closed set, which can only happen through a programming error.
func (r Role) Spec() RoleSpec {
	spec, ok := roleSpecs[r]
	if !ok {
		panic(fmt.Sprintf("models: unknown role %q", string(r)))
	}
	return spec
}

func (r Role) Valid() bool {
	_, ok := roleSpecs[r]
	return ok
}

// ParseRole accepts the role names used by clients, case-insensitively.
// "hospital" is accepted as an alias of Admin.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "parent":
		return RoleParent, true
	case "doctor":
		return RoleDoctor, true
	case "admin", "hospital":
		return RoleAdmin, true
	case "superadmin":
		return RoleSuperadmin, true
	}
	return "", false
}

// RoleFromID infers the owning role from an id's prefix ("doctor_..." -> Doctor).
func RoleFromID(id string) (Role, bool) {
	for _, r := range ResolutionOrder {
		if strings.HasPrefix(id, roleSpecs[r].IDPrefix+"_") {
			return r, true
		}
	}
	return "", false
}
