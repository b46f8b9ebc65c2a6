package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/workouttracker/internal/analytics"
	"github.com/2beens/workouttracker/internal/workout"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler handles MCP tool requests and responses: parses input, calls the service, formats MCP result.
type Handler struct {
	service contextService
}

// NewHandler builds a handler with the given service.
func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// jsonResult encodes v as indented JSON, or reports err prefixed with what failed.
func jsonResult(v any, failed string, err error) *mcp.CallToolResult {
	if err != nil {
		return errorResult("Error " + failed + ": " + err.Error())
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}
}

// GetWorkoutContextTool returns the MCP tool handler for get_workout_context.
func (h *Handler) GetWorkoutContextTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		text, err := h.service.GetProgramContext(ctx)
		if err != nil {
			return errorResult("Error fetching program: " + err.Error()), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	}
}

// StatsInput is the input for get_stats.
type StatsInput struct {
	FromDate string `json:"from_date" jsonschema:"Start date (YYYY-MM-DD), inclusive"`
	ToDate   string `json:"to_date" jsonschema:"End date (YYYY-MM-DD), inclusive"`
}

// GetStatsTool returns the MCP tool handler for get_stats.
func (h *Handler) GetStatsTool() func(context.Context, *mcp.CallToolRequest, StatsInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in StatsInput) (*mcp.CallToolResult, any, error) {
		from, err := workout.ParseDate(in.FromDate)
		if err != nil {
			return errorResult("Invalid from_date: use YYYY-MM-DD"), nil, nil
		}
		to, err := workout.ParseDate(in.ToDate)
		if err != nil {
			return errorResult("Invalid to_date: use YYYY-MM-DD"), nil, nil
		}
		stats, err := h.service.Stats(ctx, from, to)
		return jsonResult(stats, "fetching stats", err), nil, nil
	}
}

// GetStreakTool returns the MCP tool handler for get_streak.
func (h *Handler) GetStreakTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		streak, err := h.service.Streak(ctx)
		return jsonResult(map[string]int{"streak": streak}, "fetching streak", err), nil, nil
	}
}

// VolumeInput is the input for get_volume.
type VolumeInput struct {
	Exercise string `json:"exercise,omitempty" jsonschema:"Exercise name as logged (e.g. Back Squats); empty for all exercises"`
}

// GetVolumeTool returns the MCP tool handler for get_volume.
func (h *Handler) GetVolumeTool() func(context.Context, *mcp.CallToolRequest, VolumeInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in VolumeInput) (*mcp.CallToolResult, any, error) {
		volume, err := h.service.Volume(ctx, in.Exercise)
		return jsonResult(volume, "fetching volume", err), nil, nil
	}
}

// GetPersonalRecordsTool returns the MCP tool handler for get_personal_records.
func (h *Handler) GetPersonalRecordsTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		records, err := h.service.PersonalRecords(ctx)
		return jsonResult(records, "fetching personal records", err), nil, nil
	}
}

// RunningInput is the input for get_running_stats.
type RunningInput struct {
	Type string `json:"type,omitempty" jsonschema:"One of all, long, sprints (default all)"`
}

// GetRunningStatsTool returns the MCP tool handler for get_running_stats.
func (h *Handler) GetRunningStatsTool() func(context.Context, *mcp.CallToolRequest, RunningInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in RunningInput) (*mcp.CallToolResult, any, error) {
		runType := in.Type
		switch runType {
		case "":
			runType = analytics.RunningAll
		case analytics.RunningAll, analytics.RunningLong, analytics.RunningSprints:
		default:
			return errorResult("Invalid type: use all, long or sprints"), nil, nil
		}
		sessions, err := h.service.RunningStats(ctx, runType)
		return jsonResult(sessions, "fetching running stats", err), nil, nil
	}
}

// GetDistributionTool returns the MCP tool handler for get_workout_distribution.
func (h *Handler) GetDistributionTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		distribution, err := h.service.Distribution(ctx)
		return jsonResult(distribution, "fetching distribution", err), nil, nil
	}
}

// WeeklyInput is the input for get_weekly_progress.
type WeeklyInput struct {
	Weeks int `json:"weeks,omitempty" jsonschema:"Number of trailing 7-day windows ending today (default 12, max 520)"`
}

// GetWeeklyProgressTool returns the MCP tool handler for get_weekly_progress.
func (h *Handler) GetWeeklyProgressTool() func(context.Context, *mcp.CallToolRequest, WeeklyInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in WeeklyInput) (*mcp.CallToolResult, any, error) {
		weeks := in.Weeks
		if weeks <= 0 {
			weeks = analytics.DefaultWeeks
		}
		if weeks > analytics.MaxWeeks {
			return errorResult(fmt.Sprintf("weeks must be at most %d", analytics.MaxWeeks)), nil, nil
		}
		progress, err := h.service.WeeklyProgress(ctx, weeks)
		return jsonResult(progress, "fetching weekly progress", err), nil, nil
	}
}

// RecentInput is the input for get_recent_activity.
type RecentInput struct {
	Days int `json:"days,omitempty" jsonschema:"How many days back from today (default 30, max 3660)"`
}

// GetRecentActivityTool returns the MCP tool handler for get_recent_activity.
func (h *Handler) GetRecentActivityTool() func(context.Context, *mcp.CallToolRequest, RecentInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in RecentInput) (*mcp.CallToolResult, any, error) {
		days := in.Days
		if days <= 0 {
			days = analytics.DefaultRecentDays
		}
		if days > analytics.MaxRecentDays {
			return errorResult(fmt.Sprintf("days must be at most %d", analytics.MaxRecentDays)), nil, nil
		}
		activity, err := h.service.RecentActivity(ctx, days)
		return jsonResult(activity, "fetching recent activity", err), nil, nil
	}
}

// HistoryInput is the input for get_history.
type HistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max number of most recent log entries (default 50, max 10000)"`
}

// GetHistoryTool returns the MCP tool handler for get_history.
func (h *Handler) GetHistoryTool() func(context.Context, *mcp.CallToolRequest, HistoryInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in HistoryInput) (*mcp.CallToolResult, any, error) {
		limit := in.Limit
		if limit <= 0 {
			limit = analytics.DefaultHistoryLimit
		}
		if limit > analytics.MaxHistoryLimit {
			return errorResult(fmt.Sprintf("limit must be at most %d", analytics.MaxHistoryLimit)), nil, nil
		}
		history, err := h.service.History(ctx, limit)
		return jsonResult(history, "fetching history", err), nil, nil
	}
}

// GetDashboardTool returns the MCP tool handler for get_dashboard.
func (h *Handler) GetDashboardTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		dashboard, err := h.service.Dashboard(ctx)
		return jsonResult(dashboard, "fetching dashboard", err), nil, nil
	}
}
