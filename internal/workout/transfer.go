package workout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/workouttracker/internal/storage"
	"github.com/2beens/workouttracker/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

var ErrInvalidImport = errors.New("invalid import document")

// Bundle is the export document with all user data.
type Bundle struct {
	WorkoutLogs     *Log            `json:"workout_logs"`
	WorkoutProgram  Program         `json:"workout_program"`
	WeeklySchedules WeeklySchedules `json:"weekly_schedules"`
	ExportedAt      string          `json:"exported_at"`
}

func (r *Repo) Export(ctx context.Context) (_ *Bundle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.export")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	workoutLog, err := r.logs(ctx)
	if err != nil {
		return nil, err
	}
	program, err := r.program(ctx)
	if err != nil {
		return nil, err
	}
	schedules, err := r.schedules(ctx)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		WorkoutLogs:     workoutLog,
		WorkoutProgram:  program,
		WeeklySchedules: schedules,
		ExportedAt:      r.now().UTC().Format(time.RFC3339),
	}, nil
}

// Import overwrites every stored record present in the export document and returns the imported keys.
func (r *Repo) Import(ctx context.Context, data []byte) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.import")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidImport, err)
	}

	records := map[string]any{}
	if raw, ok := doc[storage.KeyLogs]; ok && !isNull(raw) {
		workoutLog := NewLog()
		if err := json.Unmarshal(raw, workoutLog); err != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrInvalidImport, storage.KeyLogs, err)
		}
		records[storage.KeyLogs] = workoutLog
	}
	if raw, ok := doc[storage.KeyProgram]; ok && !isNull(raw) {
		var program Program
		if err := json.Unmarshal(raw, &program); err != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrInvalidImport, storage.KeyProgram, err)
		}
		for day := range program {
			if !ValidDay(day) {
				return nil, fmt.Errorf("%w: %s: day %d", ErrInvalidImport, storage.KeyProgram, day)
			}
		}
		records[storage.KeyProgram] = program
	}
	if raw, ok := doc[storage.KeyWeeklySchedules]; ok && !isNull(raw) {
		var schedules WeeklySchedules
		if err := json.Unmarshal(raw, &schedules); err != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrInvalidImport, storage.KeyWeeklySchedules, err)
		}
		records[storage.KeyWeeklySchedules] = schedules
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no known records", ErrInvalidImport)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	imported := make([]string, 0, len(records))
	for _, key := range []string{storage.KeyLogs, storage.KeyProgram, storage.KeyWeeklySchedules} {
		value, ok := records[key]
		if !ok {
			continue
		}
		if key == storage.KeyLogs {
			err = r.saveLogs(ctx, value.(*Log))
		} else {
			err = r.save(ctx, key, value)
		}
		if err != nil {
			return imported, err
		}
		imported = append(imported, key)
	}

	log.Infof("imported records: %v", imported)
	return imported, nil
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
