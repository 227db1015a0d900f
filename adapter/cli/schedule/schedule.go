package schedule

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/mentora/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	asUser     string
	jsonOutput bool
)

// Cmd is the schedule command group
var Cmd = &cobra.Command{
	Use:   "schedule",
	Short: "Request and manage mentorship meetings",
	Long: `Request meetings with your assigned mentor and manage their status.
Every subcommand acts as the user given by --as.`,
}

func init() {
	Cmd.PersistentFlags().StringVar(&asUser, "as", "", "ID of the user to act as")
	Cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")
	_ = Cmd.MarkPersistentFlagRequired("as")

	Cmd.AddCommand(requestCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(statusCmd)
}

func printSchedules(w io.Writer, dtos []queries.ScheduleDTO) error {
	if jsonOutput {
		return writeJSON(w, dtos)
	}
	if len(dtos) == 0 {
		fmt.Fprintln(w, "No meeting requests found.")
		return nil
	}
	fmt.Fprintf(w, "Meeting requests (%d):\n", len(dtos))
	for i := range dtos {
		printSchedule(w, &dtos[i])
	}
	return nil
}

func printOne(w io.Writer, dto *queries.ScheduleDTO) error {
	if jsonOutput {
		return writeJSON(w, dto)
	}
	printSchedule(w, dto)
	return nil
}

func printSchedule(w io.Writer, dto *queries.ScheduleDTO) {
	fmt.Fprintf(w, "\n  [%s] %s\n", dto.Status, dto.RequestedTime.Local().Format(time.RFC1123))
	fmt.Fprintf(w, "    ID: %s\n", dto.ID)
	fmt.Fprintf(w, "    Mentee: %s\n", person(dto.Mentee.FirstName, dto.Mentee.LastName, dto.Mentee.Email))
	fmt.Fprintf(w, "    Mentor: %s\n", person(dto.Mentor.FirstName, dto.Mentor.LastName, dto.Mentor.Email))
	fmt.Fprintf(w, "    Duration: %d mins\n", dto.DurationMinutes)
	if dto.Message != "" {
		fmt.Fprintf(w, "    Message: %s\n", dto.Message)
	}
	if dto.ConfirmedTime != nil {
		fmt.Fprintf(w, "    Confirmed for: %s\n", dto.ConfirmedTime.Local().Format(time.RFC1123))
	}
	if dto.MentorNotes != "" {
		fmt.Fprintf(w, "    Notes: %s\n", dto.MentorNotes)
	}
}

func person(first, last, email string) string {
	name := strings.TrimSpace(first + " " + last)
	switch {
	case name == "" && email == "":
		return "(unknown)"
	case email == "":
		return name
	default:
		return fmt.Sprintf("%s <%s>", name, email)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseTime accepts RFC 3339 or a local "2006-01-02 15:04".
func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, use RFC 3339 or YYYY-MM-DD HH:MM", value)
	}
	return t.UTC(), nil
}
