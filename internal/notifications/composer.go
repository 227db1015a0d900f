package notifications

import (
	"fmt"
	"strings"
	"time"
)

// DefaultFromName is used when no sender name is configured.
const DefaultFromName = "SIP Portal"

const timeLayout = "Mon, 02 Jan 2006 15:04 MST"

// Person is the part of a user an email needs.
type Person struct {
	FirstName string
	LastName  string
	Email     string
}

func (p Person) fullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// MeetingRequestDetails describes a newly requested meeting.
type MeetingRequestDetails struct {
	RequestedTime   time.Time
	DurationMinutes int
	Message         string
}

// StatusUpdateDetails describes a status change.
type StatusUpdateDetails struct {
	Status        string
	ConfirmedTime *time.Time
	MentorNotes   string
}

// Composer renders the scheduling emails.
type Composer struct {
	from string
}

// NewComposer creates a composer sending as "name" <address>.
func NewComposer(fromName, fromAddress string) *Composer {
	if fromName == "" {
		fromName = DefaultFromName
	}
	return &Composer{from: FormatAddress(fromName, fromAddress)}
}

// MeetingRequest is the email telling a mentor about a new request.
func (c *Composer) MeetingRequest(mentor, mentee Person, details MeetingRequestDetails) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", mentor.FirstName)
	fmt.Fprintf(&b, "%s has requested a meeting with you.\n\n", mentee.fullName())
	fmt.Fprintf(&b, "Requested Time: %s\n", details.RequestedTime.UTC().Format(timeLayout))
	fmt.Fprintf(&b, "Duration: %d minutes\n", details.DurationMinutes)
	fmt.Fprintf(&b, "Message: %s\n\n", orNA(details.Message))
	b.WriteString("Please log in to the portal to respond.\n\n")
	b.WriteString("Thank you,\nSIP Portal Team")

	return Email{
		From:    c.from,
		To:      mentor.Email,
		Subject: fmt.Sprintf("New Meeting Request from %s", mentee.fullName()),
		Body:    b.String(),
	}
}

// StatusUpdate is the email telling a mentee their request changed.
func (c *Composer) StatusUpdate(mentee, mentor Person, details StatusUpdateDetails) Email {
	status := strings.ToUpper(details.Status)

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", mentee.FirstName)
	fmt.Fprintf(&b, "Your meeting request with %s has been updated.\n\n", mentor.fullName())
	fmt.Fprintf(&b, "New Status: %s\n", status)
	if details.ConfirmedTime != nil {
		fmt.Fprintf(&b, "Confirmed Time: %s\n", details.ConfirmedTime.UTC().Format(timeLayout))
	}
	fmt.Fprintf(&b, "Mentor Notes: %s\n\n", orNA(details.MentorNotes))
	b.WriteString("You can view details in the portal.\n\n")
	b.WriteString("Thank you,\nSIP Portal Team")

	return Email{
		From:    c.from,
		To:      mentee.Email,
		Subject: fmt.Sprintf("Meeting Request Update: Status Changed to %s", status),
		Body:    b.String(),
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
