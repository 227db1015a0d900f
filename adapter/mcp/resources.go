package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
)

// RegisterResources registers MCP resources that expose the current user's schedule.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	registerScheduleResource(srv, deps, "mentora://schedules", "Schedules",
		"All meeting requests the current user takes part in",
		queries.ListMySchedulesQuery{})

	registerScheduleResource(srv, deps, "mentora://schedules/upcoming", "Upcoming schedules",
		"Meeting requests whose requested time is still ahead",
		queries.ListMySchedulesQuery{Upcoming: true})

	registerScheduleResource(srv, deps, "mentora://schedules/pending", "Pending requests",
		"Meeting requests still waiting for the mentor",
		queries.ListMySchedulesQuery{Status: string(domain.StatusPending)})

	return nil
}

func registerScheduleResource(srv *mcp.Server, deps ToolDependencies, uri, name, description string, query queries.ListMySchedulesQuery) {
	app := deps.App

	srv.Resource(uri).
		Name(name).
		Description(description).
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ListSchedulesHandler == nil {
				return nil, fmt.Errorf("schedule listing requires database connection")
			}
			caller, err := app.CurrentCaller(ctx)
			if err != nil {
				return nil, err
			}

			q := query
			q.Caller = caller
			schedules, err := app.ListSchedulesHandler.Handle(ctx, q)
			if err != nil {
				return nil, err
			}

			data, err := json.MarshalIndent(schedules, "", "  ")
			if err != nil {
				return nil, err
			}

			return &mcp.ResourceContent{
				URI:      uri,
				MimeType: "application/json",
				Text:     string(data),
			}, nil
		})
}
