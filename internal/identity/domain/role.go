package domain

import (
	"errors"
	"strings"
)

// ErrUnknownRole is returned when parsing a role outside the closed set.
var ErrUnknownRole = errors.New("unknown role")

// Role is one of the three platform roles.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleMentor Role = "Mentor"
	RoleMentee Role = "Mentee"
)

// Capability is something a role is allowed to do in scheduling.
type Capability int

const (
	// CapRequestMeeting allows submitting meeting requests to the assigned mentor.
	CapRequestMeeting Capability = iota + 1
	// CapListSchedules allows listing one's own meetings.
	CapListSchedules
	// CapUpdateMeetingStatus allows transitioning meetings one mentors.
	CapUpdateMeetingStatus
	// CapManageAnyMeeting lifts the ownership check on reads and transitions.
	CapManageAnyMeeting
)

var capabilities = map[Role]map[Capability]bool{
	RoleMentee: {
		CapRequestMeeting: true,
		CapListSchedules:  true,
	},
	RoleMentor: {
		CapListSchedules:       true,
		CapUpdateMeetingStatus: true,
	},
	RoleAdmin: {
		CapListSchedules:       true,
		CapUpdateMeetingStatus: true,
		CapManageAnyMeeting:    true,
	},
}

// Roles returns every role in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleMentor, RoleMentee}
}

// ParseRole accepts any casing of a role name.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles() {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", ErrUnknownRole
}

// Can reports whether the role holds the capability.
func (r Role) Can(c Capability) bool {
	return capabilities[r][c]
}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	_, ok := capabilities[r]
	return ok
}

func (r Role) String() string { return string(r) }
