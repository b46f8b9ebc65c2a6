package workout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/2beens/workouttracker/internal/storage"
	"github.com/2beens/workouttracker/internal/telemetry/metrics"
	"github.com/2beens/workouttracker/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var ErrEntryNotFound = errors.New("log entry not found")

// LogUpdate is a partial log entry. Only fields present in the update are changed.
type LogUpdate struct {
	Completed    *bool
	SetCompleted bool
	Exercises    map[string]ExerciseLog
	Running      *RunningLog
	Notes        *string
}

func (u *LogUpdate) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["completed"]; ok {
		u.SetCompleted = true
		if err := json.Unmarshal(raw, &u.Completed); err != nil {
			return fmt.Errorf("completed: %w", err)
		}
	}
	if raw, ok := fields["exercises"]; ok {
		if err := json.Unmarshal(raw, &u.Exercises); err != nil {
			return fmt.Errorf("exercises: %w", err)
		}
		if u.Exercises == nil {
			u.Exercises = map[string]ExerciseLog{}
		}
	}
	if raw, ok := fields["running"]; ok {
		if err := json.Unmarshal(raw, &u.Running); err != nil {
			return fmt.Errorf("running: %w", err)
		}
		if u.Running == nil {
			u.Running = &RunningLog{}
		}
	}
	if raw, ok := fields["notes"]; ok {
		if err := json.Unmarshal(raw, &u.Notes); err != nil {
			return fmt.Errorf("notes: %w", err)
		}
	}

	return nil
}

func (u LogUpdate) apply(entry LogEntry) LogEntry {
	if u.SetCompleted {
		entry.Completed = u.Completed
	}
	if u.Exercises != nil {
		entry.Exercises = make(map[string]ExerciseLog, len(u.Exercises))
		for slot, ex := range u.Exercises {
			entry.Exercises[slot] = ex
		}
	}
	if u.Running != nil {
		running := *u.Running
		entry.Running = &running
	}
	if u.Notes != nil {
		entry.Notes = *u.Notes
	}
	return entry
}

// Edits are per-field changes collected for one date: exercise slot -> field -> value, running field -> value
// and the general notes (nil when untouched).
type Edits struct {
	Exercises map[string]map[string]string
	Running   map[string]string
	Notes     *string
}

func (e Edits) Empty() bool {
	return len(e.Exercises) == 0 && len(e.Running) == 0 && e.Notes == nil
}

// Repo reads and writes the program, the week overrides and the workout log through a record store.
type Repo struct {
	store          storage.Store
	defaultProgram Program
	metricsManager *metrics.Manager
	now            func() time.Time

	// serializes read-modify-write cycles
	mutex sync.Mutex
}

func NewRepo(store storage.Store, defaultProgram Program, metricsManager *metrics.Manager) *Repo {
	if defaultProgram == nil {
		defaultProgram = DefaultProgram()
	}
	return &Repo{
		store:          store,
		defaultProgram: defaultProgram,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

// SetClock replaces the time source used for entry timestamps and export times.
func (r *Repo) SetClock(now func() time.Time) {
	r.now = now
}

func (r *Repo) load(ctx context.Context, key string, v any) (bool, error) {
	value, err := r.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get [%s]: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), v); err != nil {
		return false, fmt.Errorf("decode [%s]: %w", key, err)
	}
	return true, nil
}

func (r *Repo) save(ctx context.Context, key string, v any) error {
	valueJson, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode [%s]: %w", key, err)
	}
	if err := r.store.Set(ctx, key, string(valueJson)); err != nil {
		return fmt.Errorf("set [%s]: %w", key, err)
	}
	return nil
}

func (r *Repo) Logs(ctx context.Context) (_ *Log, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.logs")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.logs(ctx)
}

func (r *Repo) logs(ctx context.Context) (*Log, error) {
	workoutLog := NewLog()
	if _, err := r.load(ctx, storage.KeyLogs, workoutLog); err != nil {
		return nil, err
	}
	return workoutLog, nil
}

func (r *Repo) saveLogs(ctx context.Context, workoutLog *Log) error {
	if err := r.save(ctx, storage.KeyLogs, workoutLog); err != nil {
		return err
	}
	r.metricsManager.CounterLogsSaved.Inc()
	r.metricsManager.GaugeLoggedWorkouts.Set(float64(workoutLog.Len()))
	return nil
}

// Entry returns the entry for date, or an empty one if nothing was logged.
func (r *Repo) Entry(ctx context.Context, date string) (_ LogEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.entry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", date))

	if _, err := ParseDate(date); err != nil {
		return LogEntry{}, err
	}

	workoutLog, err := r.logs(ctx)
	if err != nil {
		return LogEntry{}, err
	}

	if entry, ok := workoutLog.Get(date); ok {
		return entry, nil
	}
	return emptyEntry(), nil
}

func emptyEntry() LogEntry {
	return LogEntry{
		Exercises: map[string]ExerciseLog{},
	}
}

// UpdateEntry merges the update into the entry for date, creating it when missing.
func (r *Repo) UpdateEntry(ctx context.Context, date string, update LogUpdate) (_ LogEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.update_entry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", date))

	return r.modifyEntry(ctx, date, func(entry LogEntry) (LogEntry, error) {
		return update.apply(entry), nil
	})
}

func (r *Repo) SetCompleted(ctx context.Context, date string, completed *bool) (LogEntry, error) {
	return r.UpdateEntry(ctx, date, LogUpdate{
		Completed:    completed,
		SetCompleted: true,
	})
}

// ApplyEdits writes collected per-field edits into the entry for date.
func (r *Repo) ApplyEdits(ctx context.Context, date string, edits Edits) (_ LogEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.apply_edits")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", date))

	return r.modifyEntry(ctx, date, func(entry LogEntry) (LogEntry, error) {
		exercises := make(map[string]ExerciseLog, len(entry.Exercises))
		for slot, ex := range entry.Exercises {
			exercises[slot] = ex
		}
		for slot, fields := range edits.Exercises {
			ex := exercises[slot]
			for field, value := range fields {
				if err := ex.SetField(field, value); err != nil {
					return entry, err
				}
			}
			exercises[slot] = ex
		}
		entry.Exercises = exercises

		if len(edits.Running) > 0 {
			var running RunningLog
			if entry.Running != nil {
				running = *entry.Running
			}
			for field, value := range edits.Running {
				if err := running.SetField(field, value); err != nil {
					return entry, err
				}
			}
			entry.Running = &running
		}

		if edits.Notes != nil {
			entry.Notes = *edits.Notes
		}

		return entry, nil
	})
}

func (r *Repo) modifyEntry(ctx context.Context, date string, modify func(LogEntry) (LogEntry, error)) (LogEntry, error) {
	day, err := ParseDate(date)
	if err != nil {
		return LogEntry{}, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	workoutLog, err := r.logs(ctx)
	if err != nil {
		return LogEntry{}, err
	}

	entry, ok := workoutLog.Get(date)
	if !ok {
		entry = emptyEntry()
	}

	entry, err = modify(entry)
	if err != nil {
		return LogEntry{}, err
	}

	if len(entry.Exercises) > 0 {
		if err := r.stampExerciseNames(ctx, day, &entry); err != nil {
			return LogEntry{}, err
		}
	}
	entry.Timestamp = r.now().UTC().Format(time.RFC3339)

	workoutLog.Set(date, entry)
	if err := r.saveLogs(ctx, workoutLog); err != nil {
		return LogEntry{}, err
	}

	log.Debugf("workout log entry [%s] saved", date)
	return entry, nil
}

// stampExerciseNames fills empty slot names from the day planned for that date,
// so the history keeps its meaning when the program changes later.
func (r *Repo) stampExerciseNames(ctx context.Context, date time.Time, entry *LogEntry) error {
	program, err := r.program(ctx)
	if err != nil {
		return err
	}
	schedules, err := r.schedules(ctx)
	if err != nil {
		return err
	}

	day, ok := DayFor(program, schedules, date)
	if !ok {
		return nil
	}

	for slot, ex := range entry.Exercises {
		if ex.Name != "" {
			continue
		}
		idx, err := strconv.Atoi(slot)
		if err != nil || idx < 0 || idx >= len(day.Exercises) {
			continue
		}
		ex.Name = day.Exercises[idx].Name
		entry.Exercises[slot] = ex
	}

	return nil
}

func (r *Repo) DeleteEntry(ctx context.Context, date string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.delete_entry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", date))

	if _, err := ParseDate(date); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	workoutLog, err := r.logs(ctx)
	if err != nil {
		return err
	}
	if !workoutLog.Delete(date) {
		return fmt.Errorf("%w [%s]", ErrEntryNotFound, date)
	}

	return r.saveLogs(ctx, workoutLog)
}

func (r *Repo) Program(ctx context.Context) (_ Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.program")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.program(ctx)
}

func (r *Repo) program(ctx context.Context) (Program, error) {
	var program Program
	found, err := r.load(ctx, storage.KeyProgram, &program)
	if err != nil {
		return nil, err
	}
	if !found || program == nil {
		return r.defaultProgram.Clone(), nil
	}
	return program, nil
}

func (r *Repo) SaveProgram(ctx context.Context, program Program) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.save_program")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	for day := range program {
		if !ValidDay(day) {
			return fmt.Errorf("%w [%d]", ErrInvalidDay, day)
		}
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.save(ctx, storage.KeyProgram, program)
}

func (r *Repo) modifyDay(ctx context.Context, day int, modify func(Day) (Day, error)) (Day, error) {
	if !ValidDay(day) {
		return Day{}, fmt.Errorf("%w [%d]", ErrInvalidDay, day)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	program, err := r.program(ctx)
	if err != nil {
		return Day{}, err
	}

	updated, err := modify(program[day].Clone())
	if err != nil {
		return Day{}, err
	}
	program[day] = updated

	if err := r.save(ctx, storage.KeyProgram, program); err != nil {
		return Day{}, err
	}
	return updated, nil
}

func (r *Repo) UpdateDay(ctx context.Context, day int, update DayUpdate) (_ Day, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.update_day")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day", day))

	return r.modifyDay(ctx, day, func(d Day) (Day, error) {
		return update.apply(d), nil
	})
}

// AddExercise appends a blank exercise template to the day.
func (r *Repo) AddExercise(ctx context.Context, day int) (_ Day, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.add_exercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day", day))

	return r.modifyDay(ctx, day, func(d Day) (Day, error) {
		d.Exercises = append(d.Exercises, newExerciseTemplate())
		return d, nil
	})
}

func (r *Repo) UpdateExercise(ctx context.Context, day, idx int, update ExerciseUpdate) (_ Day, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.update_exercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day", day), attribute.Int("idx", idx))

	return r.modifyDay(ctx, day, func(d Day) (Day, error) {
		if idx < 0 || idx >= len(d.Exercises) {
			return d, fmt.Errorf("%w [%d/%d]", ErrExerciseNotFound, day, idx)
		}
		d.Exercises[idx] = update.apply(d.Exercises[idx])
		return d, nil
	})
}

func (r *Repo) RemoveExercise(ctx context.Context, day, idx int) (_ Day, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.remove_exercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("day", day), attribute.Int("idx", idx))

	return r.modifyDay(ctx, day, func(d Day) (Day, error) {
		if idx < 0 || idx >= len(d.Exercises) {
			return d, fmt.Errorf("%w [%d/%d]", ErrExerciseNotFound, day, idx)
		}
		d.Exercises = append(d.Exercises[:idx], d.Exercises[idx+1:]...)
		return d, nil
	})
}

func (r *Repo) Schedules(ctx context.Context) (_ WeeklySchedules, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.schedules")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.schedules(ctx)
}

func (r *Repo) schedules(ctx context.Context) (WeeklySchedules, error) {
	schedules := WeeklySchedules{}
	if _, err := r.load(ctx, storage.KeyWeeklySchedules, &schedules); err != nil {
		return nil, err
	}
	if schedules == nil {
		schedules = WeeklySchedules{}
	}
	return schedules, nil
}

// SaveWeekSchedule overrides the week containing date. A day keeps its current definition when
// its workout type does not change, otherwise it gets the template of the new type.
func (r *Repo) SaveWeekSchedule(ctx context.Context, date string, slots []ScheduleSlot) (_ string, _ map[int]Day, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.save_week_schedule")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", date))

	t, err := ParseDate(date)
	if err != nil {
		return "", nil, err
	}
	for _, slot := range slots {
		if !ValidDay(slot.Day) {
			return "", nil, fmt.Errorf("%w [%d]", ErrInvalidDay, slot.Day)
		}
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	program, err := r.program(ctx)
	if err != nil {
		return "", nil, err
	}
	schedules, err := r.schedules(ctx)
	if err != nil {
		return "", nil, err
	}

	weekKey := WeekKey(t)
	sunday, _ := ParseDate(weekKey)
	week := make(map[int]Day, len(slots))
	for _, slot := range slots {
		existing, ok := DayFor(program, schedules, sunday.AddDate(0, 0, slot.Day))
		if ok && existing.TypeEn == slot.WorkoutType {
			week[slot.Day] = existing.Clone()
		} else {
			week[slot.Day] = TypeTemplate(slot.WorkoutType)
		}
	}

	schedules[weekKey] = week
	if err := r.save(ctx, storage.KeyWeeklySchedules, schedules); err != nil {
		return "", nil, err
	}

	log.Debugf("week schedule [%s] saved with %d days", weekKey, len(week))
	return weekKey, week, nil
}

// WorkoutForDate returns the day planned for date.
func (r *Repo) WorkoutForDate(ctx context.Context, date string) (_ Day, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workout.for_date")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", date))

	t, err := ParseDate(date)
	if err != nil {
		return Day{}, err
	}

	program, err := r.program(ctx)
	if err != nil {
		return Day{}, err
	}
	schedules, err := r.schedules(ctx)
	if err != nil {
		return Day{}, err
	}

	day, ok := DayFor(program, schedules, t)
	if !ok {
		return Day{}, fmt.Errorf("%w [%d]", ErrInvalidDay, t.Weekday())
	}
	return day, nil
}
