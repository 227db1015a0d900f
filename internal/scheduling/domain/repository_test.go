package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	identity "github.com/felixgeelhaar/mentora/internal/identity/domain"
)

func TestScheduleFilter_Matches(t *testing.T) {
	future := testNow.Add(time.Hour)
	past := testNow.Add(-time.Hour)

	pending := withStatus(t, StatusPending, nil)
	confirmedFuture := withStatus(t, StatusConfirmed, &future)
	confirmedPast := withStatus(t, StatusConfirmed, &past)
	completed := withStatus(t, StatusCompleted, nil)
	rejected := withStatus(t, StatusRejected, nil)
	cancelled := withStatus(t, StatusCancelled, nil)
	all := []*MeetingRequest{pending, confirmedFuture, confirmedPast, completed, rejected, cancelled}

	matching := func(f ScheduleFilter) []*MeetingRequest {
		var out []*MeetingRequest
		for _, m := range all {
			if f.Matches(m) {
				out = append(out, m)
			}
		}
		return out
	}

	t.Run("no time filter", func(t *testing.T) {
		assert.Len(t, matching(ScheduleFilter{Now: testNow}), len(all))
	})

	t.Run("upcoming", func(t *testing.T) {
		assert.ElementsMatch(t, []*MeetingRequest{pending, confirmedFuture}, matching(ScheduleFilter{Upcoming: true, Now: testNow}))
	})

	t.Run("past", func(t *testing.T) {
		assert.ElementsMatch(t, []*MeetingRequest{confirmedPast, completed, rejected, cancelled}, matching(ScheduleFilter{Past: true, Now: testNow}))
	})

	t.Run("upcoming and past is the union", func(t *testing.T) {
		assert.Len(t, matching(ScheduleFilter{Upcoming: true, Past: true, Now: testNow}), len(all))
	})

	t.Run("status and upcoming", func(t *testing.T) {
		status := StatusConfirmed
		assert.Equal(t, []*MeetingRequest{confirmedFuture}, matching(ScheduleFilter{Status: &status, Upcoming: true, Now: testNow}))
	})

	t.Run("confirmed exactly now is upcoming", func(t *testing.T) {
		now := testNow
		m := withStatus(t, StatusConfirmed, &now)
		assert.True(t, ScheduleFilter{Upcoming: true, Now: testNow}.Matches(m))
		assert.False(t, ScheduleFilter{Past: true, Now: testNow}.Matches(m))
	})

	t.Run("owner", func(t *testing.T) {
		id := pending.MenteeID()
		assert.Equal(t, []*MeetingRequest{pending}, matching(ScheduleFilter{MenteeID: &id, Now: testNow}))
	})
}

func TestCaller(t *testing.T) {
	mentee, mentor := uuid.New(), uuid.New()
	m := RehydrateMeetingRequest(uuid.New(), mentee, mentor, testNow, 30, "", StatusPending, "", nil, testNow, testNow)

	menteeCaller := Caller{ID: mentee, Role: identity.RoleMentee}
	mentorCaller := Caller{ID: mentor, Role: identity.RoleMentor}
	otherMentor := Caller{ID: uuid.New(), Role: identity.RoleMentor}
	admin := Caller{ID: uuid.New(), Role: identity.RoleAdmin}

	assert.True(t, menteeCaller.CanRequest())
	assert.False(t, mentorCaller.CanRequest())
	assert.False(t, admin.CanRequest())

	assert.True(t, mentorCaller.CanUpdateStatus(m))
	assert.True(t, admin.CanUpdateStatus(m))
	assert.False(t, otherMentor.CanUpdateStatus(m))
	assert.False(t, menteeCaller.CanUpdateStatus(m))

	assert.True(t, menteeCaller.CanView(m))
	assert.True(t, mentorCaller.CanView(m))
	assert.True(t, admin.CanView(m))
	assert.False(t, otherMentor.CanView(m))

	scoped := menteeCaller.Scope(ScheduleFilter{})
	assert.Equal(t, mentee, *scoped.MenteeID)
	assert.Nil(t, scoped.MentorID)

	scoped = mentorCaller.Scope(ScheduleFilter{})
	assert.Equal(t, mentor, *scoped.MentorID)

	scoped = admin.Scope(ScheduleFilter{})
	assert.Nil(t, scoped.MenteeID)
	assert.Nil(t, scoped.MentorID)
}
