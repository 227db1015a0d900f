package domain

import (
	identity "github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/google/uuid"
)

// Caller is the authenticated party invoking an operation.
type Caller struct {
	ID   uuid.UUID
	Role identity.Role
}

// CanRequest reports whether the caller may open meeting requests.
func (c Caller) CanRequest() bool {
	return c.Role.Can(identity.CapRequestMeeting)
}

// CanUpdateStatus reports whether the caller may transition m. The record's
// mentor may, and so may anyone allowed to manage every meeting.
func (c Caller) CanUpdateStatus(m *MeetingRequest) bool {
	if !c.Role.Can(identity.CapUpdateMeetingStatus) {
		return false
	}
	return c.ID == m.MentorID() || c.Role.Can(identity.CapManageAnyMeeting)
}

// CanView reports whether the caller may read m.
func (c Caller) CanView(m *MeetingRequest) bool {
	return m.IsParticipant(c.ID) || c.Role.Can(identity.CapManageAnyMeeting)
}

// Scope narrows a listing to what the caller may see.
func (c Caller) Scope(filter ScheduleFilter) ScheduleFilter {
	switch c.Role {
	case identity.RoleMentee:
		id := c.ID
		filter.MenteeID = &id
	case identity.RoleMentor:
		id := c.ID
		filter.MentorID = &id
	}
	return filter
}
