package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/2beens/workouttracker/internal/workout"
)

// fakeWorkoutData serves a fixed log, program and schedules to the analyzer and to the service.
type fakeWorkoutData struct {
	log          *workout.Log
	program      workout.Program
	programErr   error
	schedules    workout.WeeklySchedules
	schedulesErr error
}

func (f *fakeWorkoutData) Logs(ctx context.Context) (*workout.Log, error) {
	if f.log == nil {
		return workout.NewLog(), nil
	}
	return f.log, nil
}

func (f *fakeWorkoutData) Program(ctx context.Context) (workout.Program, error) {
	return f.program, f.programErr
}

func (f *fakeWorkoutData) Schedules(ctx context.Context) (workout.WeeklySchedules, error) {
	return f.schedules, f.schedulesErr
}

// fixedDayAnalyzer only answers Today; everything else is left to the embedded nil interface.
type fixedDayAnalyzer struct {
	workoutAnalyzer
	today time.Time
}

func (a *fixedDayAnalyzer) Today() time.Time {
	return a.today
}

func TestContextService_GetProgramContext(t *testing.T) {
	today := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	t.Run("returns_formatted_program", func(t *testing.T) {
		data := &fakeWorkoutData{
			program: workout.DefaultProgram(),
			schedules: workout.WeeklySchedules{
				"2023-12-31": {0: workout.TypeTemplate(workout.TypeRest)},
				"2024-01-07": {0: workout.TypeTemplate(workout.TypeLongRun), 1: workout.TypeTemplate(workout.TypeRest)},
			},
		}
		svc := NewContextService(&fixedDayAnalyzer{today: today}, data)

		got, err := svc.GetProgramContext(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(got, "# Workout Program\n") {
			t.Fatalf("missing header: %q", got)
		}
		if !strings.Contains(got, "| Sunday | Strength | Back Squats") {
			t.Fatalf("missing Sunday row: %q", got)
		}
		if !strings.Contains(got, "| Saturday | Rest |") {
			t.Fatalf("missing Saturday row: %q", got)
		}
		if !strings.Contains(got, "## Week of 2024-01-07") || !strings.Contains(got, "| Monday | Rest |") {
			t.Fatalf("missing current week override: %q", got)
		}
		if strings.Contains(got, "2023-12-31") {
			t.Fatalf("past week override should be left out: %q", got)
		}
	})

	t.Run("empty_program", func(t *testing.T) {
		svc := NewContextService(&fixedDayAnalyzer{today: today}, &fakeWorkoutData{})
		got, err := svc.GetProgramContext(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got, "No program days defined.") {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("program_error", func(t *testing.T) {
		svc := NewContextService(&fixedDayAnalyzer{today: today}, &fakeWorkoutData{programErr: errors.New("redis down")})
		_, err := svc.GetProgramContext(context.Background())
		if err == nil || err.Error() != "get program: redis down" {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("schedules_error", func(t *testing.T) {
		svc := NewContextService(&fixedDayAnalyzer{today: today}, &fakeWorkoutData{schedulesErr: errors.New("timeout")})
		_, err := svc.GetProgramContext(context.Background())
		if err == nil || err.Error() != "get schedules: timeout" {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestExerciseSummary(t *testing.T) {
	day := workout.Day{
		Exercises: []workout.ExerciseTemplate{
			{Name: "Deadlift", Sets: "5x5", TargetWeight: "100"},
			{Name: "Plank"},
		},
	}
	if got := exerciseSummary(day); got != "Deadlift 5x5 @ 100, Plank" {
		t.Fatalf("summary = %q", got)
	}
	if got := exerciseSummary(workout.Day{}); got != "-" {
		t.Fatalf("summary = %q", got)
	}
}
