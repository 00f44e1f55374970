// Package access decides which actors may work at which stations.
package access

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"boreline/internal/failure"
	"boreline/internal/station"
)

// Role is the closed set of actor roles.
type Role int

const (
	RoleOperator Role = iota + 1
	RoleSupervisor
	RoleAdmin
)

var allRoles = []Role{RoleOperator, RoleSupervisor, RoleAdmin}

// AllRoles returns every role in ascending privilege.
func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

func (r Role) String() string {
	switch r {
	case RoleOperator:
		return "operator"
	case RoleSupervisor:
		return "supervisor"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

var titler = cases.Title(language.English)

// Title returns the display form of the role.
func (r Role) Title() string {
	return titler.String(r.String())
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOperator, RoleSupervisor, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole converts a role name to a Role.
func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "operator":
		return RoleOperator, nil
	case "supervisor":
		return RoleSupervisor, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, failure.Invalid("role", fmt.Sprintf("unknown role %q", value))
	}
}

// MarshalText encodes the role name.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Actor is a person who operates or supervises stations.
type Actor struct {
	ID          string
	Username    string
	DisplayName string
	Role        Role
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Name returns the display name, falling back to the username.
func (a Actor) Name() string {
	if strings.TrimSpace(a.DisplayName) != "" {
		return a.DisplayName
	}
	if a.Username != "" {
		return a.Username
	}
	return a.ID
}

// Assignment binds an actor to a station.
type Assignment struct {
	ID         int64
	ActorID    string
	StationID  station.ID
	Active     bool
	AssignedBy string
	AssignedAt time.Time
}

// CanAccess reports whether the actor may claim work at the station.
// Supervisors and admins always may; operators need an active assignment.
func CanAccess(actor Actor, assignments []Assignment, stationID station.ID) bool {
	switch actor.Role {
	case RoleAdmin, RoleSupervisor:
		return true
	case RoleOperator:
		for _, a := range assignments {
			if a.Active && a.ActorID == actor.ID && a.StationID == stationID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// CanForceRelease reports whether the actor may break another actor's claim.
func CanForceRelease(actor Actor, allowSupervisor bool) bool {
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleSupervisor:
		return allowSupervisor
	case RoleOperator:
		return false
	default:
		return false
	}
}

// CanQuarantine reports whether the actor may move items to hold, rework or scrap.
func CanQuarantine(actor Actor) bool {
	switch actor.Role {
	case RoleAdmin, RoleSupervisor:
		return true
	case RoleOperator:
		return false
	default:
		return false
	}
}

// CanManage reports whether the actor may administer actors and assignments.
func CanManage(actor Actor) bool {
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleOperator, RoleSupervisor:
		return false
	default:
		return false
	}
}

// PrimaryStation returns the first active assignment's station.
func PrimaryStation(assignments []Assignment) (station.ID, bool) {
	for _, a := range assignments {
		if a.Active {
			return a.StationID, true
		}
	}
	return 0, false
}

// DeniedError reports an actor without authorization for a station or action.
type DeniedError struct {
	ActorName   string
	StationName string
	Action      string
}

func (e *DeniedError) Error() string {
	if e.StationName != "" {
		return fmt.Sprintf("access denied: %s is not authorized to operate the %s station", e.ActorName, e.StationName)
	}
	return fmt.Sprintf("access denied: %s may not %s", e.ActorName, e.Action)
}

func (e *DeniedError) FailureKind() failure.Kind { return failure.KindAccessDenied }
