package domain

import (
	"errors"
	"time"

	sharedDomain "github.com/felixgeelhaar/mentora/internal/shared/domain"
	"github.com/google/uuid"
)

// ErrInvalidMentorAssignment is returned when a non-mentee gets a mentor.
var ErrInvalidMentorAssignment = errors.New("only mentees can have an assigned mentor")

// User is a directory record. The scheduling core only reads users.
type User struct {
	sharedDomain.BaseEntity
	firstName        Name
	lastName         Name
	email            Email
	role             Role
	assignedMentorID *uuid.UUID
}

// NewUser creates a user. assignedMentorID may be set only for mentees.
func NewUser(firstName, lastName Name, email Email, role Role, assignedMentorID *uuid.UUID, now time.Time) (*User, error) {
	u := &User{
		BaseEntity: sharedDomain.NewBaseEntity(now),
		firstName:  firstName,
		lastName:   lastName,
		email:      email,
		role:       role,
	}
	if !role.IsValid() {
		return nil, ErrUnknownRole
	}
	if err := u.AssignMentor(assignedMentorID, now); err != nil {
		return nil, err
	}
	return u, nil
}

// RehydrateUser rebuilds a user from storage without validation.
func RehydrateUser(id uuid.UUID, firstName, lastName, email string, role Role, assignedMentorID *uuid.UUID, createdAt, updatedAt time.Time) *User {
	return &User{
		BaseEntity:       sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		firstName:        Name{value: firstName},
		lastName:         Name{value: lastName},
		email:            Email{value: email},
		role:             role,
		assignedMentorID: assignedMentorID,
	}
}

func (u *User) FirstName() string { return u.firstName.String() }
func (u *User) LastName() string  { return u.lastName.String() }
func (u *User) Email() string     { return u.email.String() }
func (u *User) Role() Role        { return u.role }

// FullName joins first and last name.
func (u *User) FullName() string {
	return u.firstName.String() + " " + u.lastName.String()
}

// AssignedMentorID returns the mentee's mentor, if any.
func (u *User) AssignedMentorID() *uuid.UUID {
	if u.assignedMentorID == nil {
		return nil
	}
	id := *u.assignedMentorID
	return &id
}

// AssignMentor sets or clears the assigned mentor.
func (u *User) AssignMentor(mentorID *uuid.UUID, now time.Time) error {
	if mentorID != nil {
		if u.role != RoleMentee || *mentorID == u.ID() {
			return ErrInvalidMentorAssignment
		}
		id := *mentorID
		mentorID = &id
	}
	u.assignedMentorID = mentorID
	u.Touch(now)
	return nil
}

// Display is the public identity block embedded in schedule views. The zero
// value stands in for users missing from the directory and encodes as {}.
type Display struct {
	ID        string `json:"id,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Display returns the user's display block.
func (u *User) Display() Display {
	return Display{
		ID:        u.ID().String(),
		FirstName: u.FirstName(),
		LastName:  u.LastName(),
		Email:     u.Email(),
	}
}
