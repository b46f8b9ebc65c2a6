package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/2beens/workouttracker/internal/analytics"
	"github.com/2beens/workouttracker/internal/workout"
)

// workoutAnalyzer provides the analytics over the current workout log (for dependency injection and testing).
type workoutAnalyzer interface {
	Today() time.Time
	Stats(ctx context.Context, from, to time.Time) (analytics.Stats, error)
	Streak(ctx context.Context) (int, error)
	Volume(ctx context.Context, exerciseName string) ([]analytics.VolumeEntry, error)
	PersonalRecords(ctx context.Context) (map[string]analytics.Record, error)
	RunningStats(ctx context.Context, runType string) ([]analytics.RunningSession, error)
	Distribution(ctx context.Context) (map[string]int, error)
	WeeklyProgress(ctx context.Context, weeksBack int) ([]analytics.WeekStats, error)
	RecentActivity(ctx context.Context, days int) (analytics.Activity, error)
	History(ctx context.Context, limit int) ([]analytics.DatedEntry, error)
	Dashboard(ctx context.Context) (*analytics.Dashboard, error)
}

// ProgramSource provides the weekly program and its per-week overrides.
type ProgramSource interface {
	Program(ctx context.Context) (workout.Program, error)
	Schedules(ctx context.Context) (workout.WeeklySchedules, error)
}

// contextService provides the workout context (program overview plus analytics).
// Used by Handler for testability.
type contextService interface {
	workoutAnalyzer
	GetProgramContext(ctx context.Context) (string, error)
}

// ContextService serves analytics straight from the analyzer and renders the program overview.
type ContextService struct {
	workoutAnalyzer
	programs ProgramSource
}

// NewContextService builds a ContextService with the given dependencies.
func NewContextService(analyzer workoutAnalyzer, programs ProgramSource) *ContextService {
	return &ContextService{
		workoutAnalyzer: analyzer,
		programs:        programs,
	}
}

// GetProgramContext returns the weekly program and the upcoming week overrides as markdown.
func (s *ContextService) GetProgramContext(ctx context.Context) (string, error) {
	program, err := s.programs.Program(ctx)
	if err != nil {
		return "", fmt.Errorf("get program: %w", err)
	}
	schedules, err := s.programs.Schedules(ctx)
	if err != nil {
		return "", fmt.Errorf("get schedules: %w", err)
	}
	return formatProgram(program, schedules, s.Today()), nil
}

func formatProgram(program workout.Program, schedules workout.WeeklySchedules, today time.Time) string {
	var b strings.Builder
	b.WriteString("# Workout Program\n\n")
	b.WriteString("Weekdays: 0 = Sunday ... 6 = Saturday. Logs are keyed by date (YYYY-MM-DD), exercise slots by index.\n\n")

	if len(program) == 0 {
		b.WriteString("No program days defined.\n")
	} else {
		b.WriteString("| Day | Type | Exercises |\n|-----|------|-----------|\n")
		for _, weekday := range sortedDays(program) {
			day := program[weekday]
			fmt.Fprintf(&b, "| %s | %s | %s |\n", time.Weekday(weekday), dayType(day), exerciseSummary(day))
		}
	}

	weekKeys := make([]string, 0, len(schedules))
	currentWeek := workout.WeekKey(today)
	for weekKey := range schedules {
		if weekKey >= currentWeek {
			weekKeys = append(weekKeys, weekKey)
		}
	}
	sort.Strings(weekKeys)

	for _, weekKey := range weekKeys {
		week := schedules[weekKey]
		fmt.Fprintf(&b, "\n## Week of %s\n\n| Day | Type |\n|-----|------|\n", weekKey)
		for _, weekday := range sortedDays(week) {
			fmt.Fprintf(&b, "| %s | %s |\n", time.Weekday(weekday), dayType(week[weekday]))
		}
	}

	return b.String()
}

func sortedDays(days map[int]workout.Day) []int {
	keys := make([]int, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func dayType(day workout.Day) string {
	if day.TypeEn == "" {
		return day.Type
	}
	return day.TypeEn
}

func exerciseSummary(day workout.Day) string {
	if len(day.Exercises) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(day.Exercises))
	for _, ex := range day.Exercises {
		part := ex.Name
		if ex.Sets != "" {
			part += " " + ex.Sets
		}
		if ex.TargetWeight != "" {
			part += " @ " + ex.TargetWeight
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}
