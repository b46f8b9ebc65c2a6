package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/2beens/workouttracker/internal/workout"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	SheetLogs    = "Logs"
	SheetProgram = "Program"
)

var (
	logsHeader    = []any{"Date", "Completed", "Workout", "Exercises", "Running", "Notes"}
	programHeader = []any{"Day", "Type", "Type (EN)", "Exercise", "Sets", "Target Weight", "Target Reps", "Notes"}
)

// XlsxWriter renders an export bundle as an Excel workbook with a Logs and a Program sheet.
type XlsxWriter struct{}

func NewXlsxWriter() *XlsxWriter {
	return &XlsxWriter{}
}

func (x *XlsxWriter) Write(w io.Writer, bundle *workout.Bundle) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Errorf("close xlsx file: %s", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetLogs); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetProgram); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4F46E5"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeLogsSheet(f, bundle, headerStyle); err != nil {
		return fmt.Errorf("logs sheet: %w", err)
	}
	if err := writeProgramSheet(f, bundle.WorkoutProgram, headerStyle); err != nil {
		return fmt.Errorf("program sheet: %w", err)
	}

	return f.Write(w)
}

func writeHeader(f *excelize.File, sheet string, header []any, style int, widths []float64) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", style); err != nil {
		return err
	}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeLogsSheet(f *excelize.File, bundle *workout.Bundle, headerStyle int) error {
	if err := writeHeader(f, SheetLogs, logsHeader, headerStyle, []float64{12, 11, 14, 60, 40, 40}); err != nil {
		return err
	}

	row := 2
	var rowErr error
	bundle.WorkoutLogs.Range(func(date string, entry workout.LogEntry) bool {
		workoutType := ""
		if d, err := workout.ParseDate(date); err == nil {
			if day, ok := workout.DayFor(bundle.WorkoutProgram, bundle.WeeklySchedules, d); ok {
				workoutType = day.TypeEn
			}
		}

		values := []any{
			date,
			completedLabel(entry.Completed),
			workoutType,
			exercisesSummary(entry),
			runningSummary(entry.Running),
			entry.Notes,
		}
		if rowErr = f.SetSheetRow(SheetLogs, fmt.Sprintf("A%d", row), &values); rowErr != nil {
			return false
		}
		row++
		return true
	})
	return rowErr
}

func writeProgramSheet(f *excelize.File, program workout.Program, headerStyle int) error {
	if err := writeHeader(f, SheetProgram, programHeader, headerStyle, []float64{12, 18, 12, 30, 24, 14, 12, 40}); err != nil {
		return err
	}

	row := 2
	for weekday := 0; weekday <= 6; weekday++ {
		day, ok := program[weekday]
		if !ok {
			continue
		}

		exercises := day.Exercises
		if len(exercises) == 0 {
			exercises = []workout.ExerciseTemplate{{}}
		}
		for _, ex := range exercises {
			values := []any{
				time.Weekday(weekday).String(),
				day.Type,
				day.TypeEn,
				ex.Name,
				ex.Sets,
				ex.TargetWeight,
				ex.TargetReps,
				ex.Notes,
			}
			if err := f.SetSheetRow(SheetProgram, fmt.Sprintf("A%d", row), &values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func completedLabel(completed *bool) string {
	switch {
	case completed == nil:
		return ""
	case *completed:
		return "yes"
	default:
		return "no"
	}
}

// exercisesSummary renders slots in order, e.g. "Back Squats 70 x 5/5/5 (3 sets); Fran: 4:35 Rx".
func exercisesSummary(entry workout.LogEntry) string {
	parts := make([]string, 0, len(entry.Exercises))
	for _, slot := range entry.Slots() {
		ex := entry.Exercises[slot]

		var b strings.Builder
		name := ex.Name
		if name == "" {
			name = "#" + slot
		}
		b.WriteString(name)

		if ex.WodName != "" || ex.Score != "" {
			if ex.WodName != "" {
				b.WriteString(" " + ex.WodName)
			}
			if ex.Score != "" {
				b.WriteString(": " + ex.Score)
			}
			if ex.Rx != "" {
				b.WriteString(" " + ex.Rx)
			}
		} else {
			if ex.Weight != "" {
				b.WriteString(" " + ex.Weight)
				if ex.Reps != "" {
					b.WriteString(" x")
				}
			}
			if ex.Reps != "" {
				b.WriteString(" " + ex.Reps)
			}
			if ex.Sets != "" {
				b.WriteString(" (" + ex.Sets + " sets)")
			}
		}
		if ex.Notes != "" {
			b.WriteString(" - " + ex.Notes)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "; ")
}

func runningSummary(running *workout.RunningLog) string {
	if running == nil {
		return ""
	}

	var parts []string
	add := func(format, value string) {
		if value != "" {
			parts = append(parts, fmt.Sprintf(format, value))
		}
	}

	if running.SprintsCompleted != "" {
		add("%s sprints", running.SprintsCompleted)
		add("%sm", running.SprintDistance)
		add("best %s", running.BestTime)
		add("avg %s", running.AvgTime)
	} else {
		add("%s km", running.Distance)
		add("%s min", running.Duration)
		add("pace %s", running.Pace)
		add("HR %s", running.HeartRate)
	}
	add("RPE %s", running.RPE)
	add("%s", running.Route)

	return strings.Join(parts, ", ")
}
