package mcp

import (
	"github.com/2beens/workouttracker/internal/analytics"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server with workout tools: program context, stats, streak, volume,
// personal records, running stats, distribution, weekly progress, recent activity, history, dashboard.
// Mounted by the main backend at /mcp and served over stdio by cmd/workout_mcp.
func NewServer(analyzer *analytics.Analyzer, programs ProgramSource) *mcp.Server {
	h := NewHandler(NewContextService(analyzer, programs))
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "workout-tracker",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workout_context",
		Description: "Returns the weekly workout program (type and exercise templates per weekday) and the per-week overrides from the current week on. Use first to learn which workout type falls on which day.",
	}, h.GetWorkoutContextTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_stats",
		Description: "Returns completed, skipped and total logged days plus the completion rate (%) for a date range. Args: from_date, to_date (YYYY-MM-DD, inclusive).",
	}, h.GetStatsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_streak",
		Description: "Returns the current streak: consecutive completed days ending today or yesterday.",
	}, h.GetStreakTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_volume",
		Description: "Returns per-session training volume (weight x total reps), newest first. Optional: exercise (exact logged name, e.g. Back Squats). Use for progression over time.",
	}, h.GetVolumeTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_personal_records",
		Description: "Returns the heaviest logged weight per exercise with its date, reps and sets.",
	}, h.GetPersonalRecordsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_running_stats",
		Description: "Returns running sessions newest first. Optional: type (all, long, sprints). Long runs carry distance, duration, pace and heart rate; sprints carry count, distance and best time.",
	}, h.GetRunningStatsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workout_distribution",
		Description: "Returns how many completed workouts fall into each workout type (Strength, CrossFit, Sprints, Long Run, Rest).",
	}, h.GetDistributionTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_weekly_progress",
		Description: "Returns completion stats for trailing 7-day windows ending today, oldest first. Optional: weeks (default 12).",
	}, h.GetWeeklyProgressTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_recent_activity",
		Description: "Returns totals for the last N days and the 10 most recent log entries. Optional: days (default 30).",
	}, h.GetRecentActivityTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_history",
		Description: "Returns the most recent log entries as [date, entry] pairs. Optional: limit (default 50).",
	}, h.GetHistoryTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_dashboard",
		Description: "Returns the dashboard summary: streak, total workouts, personal records, distribution and 8 weeks of progress.",
	}, h.GetDashboardTool())

	return s
}
