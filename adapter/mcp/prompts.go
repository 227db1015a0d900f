package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common mentoring workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("triage_requests").
		Description("Walk a mentor through their pending meeting requests and decide on each one.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Triage pending meeting requests",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help me work through my pending mentoring requests.

1. Read the mentora://schedules/pending resource.
2. For each request, summarise who asked, when, for how long and their message.
3. Check mentora://schedules/upcoming for clashes with meetings I already confirmed.

Then suggest for each request whether to confirm it (with a confirmed_time),
reject it with a short note, or leave it pending. Apply my decisions with the
schedule.update_status tool only after I agree.`,
						},
					},
				},
			}, nil
		})

	srv.Prompt("prepare_request").
		Description("Help a mentee draft a meeting request for their mentor.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			topic := args["topic"]
			if topic == "" {
				topic = "whatever I most need help with right now"
			}
			return &mcp.PromptResult{
				Description: "Draft a meeting request",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`I want to meet my mentor about %s.

Look at mentora://schedules/upcoming so we avoid times I am already booked.
Propose a time, a duration in minutes and a message of at most 500 characters,
then submit it with the schedule.request tool once I approve.`, topic),
						},
					},
				},
			}, nil
		})

	return nil
}
