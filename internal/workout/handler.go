package workout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/2beens/workouttracker/internal/telemetry/tracing"
	"github.com/2beens/workouttracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type workoutRepo interface {
	Logs(ctx context.Context) (*Log, error)
	Entry(ctx context.Context, date string) (LogEntry, error)
	UpdateEntry(ctx context.Context, date string, update LogUpdate) (LogEntry, error)
	SetCompleted(ctx context.Context, date string, completed *bool) (LogEntry, error)
	DeleteEntry(ctx context.Context, date string) error
	Program(ctx context.Context) (Program, error)
	SaveProgram(ctx context.Context, program Program) error
	UpdateDay(ctx context.Context, day int, update DayUpdate) (Day, error)
	AddExercise(ctx context.Context, day int) (Day, error)
	UpdateExercise(ctx context.Context, day, idx int, update ExerciseUpdate) (Day, error)
	RemoveExercise(ctx context.Context, day, idx int) (Day, error)
	Schedules(ctx context.Context) (WeeklySchedules, error)
	SaveWeekSchedule(ctx context.Context, date string, slots []ScheduleSlot) (string, map[int]Day, error)
	WorkoutForDate(ctx context.Context, date string) (Day, error)
}

type editsQueue interface {
	EditExercise(date, slot, field, value string) error
	EditRunning(date, field, value string) error
	EditNotes(date, notes string) error
}

type WeekScheduleResponse struct {
	WeekKey string      `json:"weekKey"`
	Days    map[int]Day `json:"days"`
}

type EditsQueuedResponse struct {
	Date   string `json:"date"`
	Queued int    `json:"queued"`
}

type Handler struct {
	repo      workoutRepo
	debouncer editsQueue
}

func NewHandler(repo workoutRepo, debouncer editsQueue) *Handler {
	return &Handler{
		repo:      repo,
		debouncer: debouncer,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/program", handler.handleGetProgram).Methods("GET", "OPTIONS").Name("get-program")
	router.HandleFunc("/program", handler.handleSaveProgram).Methods("PUT", "OPTIONS").Name("save-program")
	router.HandleFunc("/program/day/{day}", handler.handleUpdateDay).Methods("PUT", "OPTIONS").Name("update-day")
	router.HandleFunc("/program/day/{day}/exercises", handler.handleAddExercise).Methods("POST", "OPTIONS").Name("add-exercise")
	router.HandleFunc("/program/day/{day}/exercises/{idx}", handler.handleUpdateExercise).Methods("PUT", "OPTIONS").Name("update-exercise")
	router.HandleFunc("/program/day/{day}/exercises/{idx}", handler.handleRemoveExercise).Methods("DELETE", "OPTIONS").Name("remove-exercise")

	router.HandleFunc("/schedules", handler.handleGetSchedules).Methods("GET", "OPTIONS").Name("get-schedules")
	router.HandleFunc("/schedules/week/{date}", handler.handleSaveWeekSchedule).Methods("PUT", "OPTIONS").Name("save-week-schedule")
	router.HandleFunc("/workout/{date}", handler.handleWorkoutForDate).Methods("GET", "OPTIONS").Name("workout-for-date")

	router.HandleFunc("/logs", handler.handleGetLogs).Methods("GET", "OPTIONS").Name("get-logs")
	router.HandleFunc("/logs/{date}", handler.handleGetEntry).Methods("GET", "OPTIONS").Name("get-log-entry")
	router.HandleFunc("/logs/{date}", handler.handleUpdateEntry).Methods("PUT", "OPTIONS").Name("update-log-entry")
	router.HandleFunc("/logs/{date}", handler.handleDeleteEntry).Methods("DELETE", "OPTIONS").Name("delete-log-entry")
	router.HandleFunc("/logs/{date}/completed", handler.handleSetCompleted).Methods("PUT", "OPTIONS").Name("set-completed")
	router.HandleFunc("/logs/{date}/exercises/{idx}", handler.handleEditExercise).Methods("PATCH", "OPTIONS").Name("edit-log-exercise")
	router.HandleFunc("/logs/{date}/running", handler.handleEditRunning).Methods("PATCH", "OPTIONS").Name("edit-log-running")
	router.HandleFunc("/logs/{date}/notes", handler.handleEditNotes).Methods("PATCH", "OPTIONS").Name("edit-log-notes")
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidDay),
		errors.Is(err, ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, ErrExerciseNotFound),
		errors.Is(err, ErrEntryNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error, msg string) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Errorf("%s: %s", msg, err)
		http.Error(w, "error, "+msg, status)
		return
	}
	log.Tracef("%s: %s", msg, err)
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	respJson, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal response: %s", err)
		http.Error(w, "error, failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, status)
}

func isJSON(r *http.Request) bool {
	return r.Header.Get("Content-Type") == "application/json"
}

func dayVar(r *http.Request) (int, bool) {
	day, err := strconv.Atoi(mux.Vars(r)["day"])
	if err != nil || !ValidDay(day) {
		return 0, false
	}
	return day, true
}

func (handler *Handler) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.get_program")
	defer span.End()

	program, err := handler.repo.Program(ctx)
	if err != nil {
		writeError(w, err, "failed to get program")
		return
	}
	writeJSON(w, program, http.StatusOK)
}

func (handler *Handler) handleSaveProgram(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.save_program")
	defer span.End()

	if !isJSON(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var program Program
	if err := json.NewDecoder(r.Body).Decode(&program); err != nil {
		log.Tracef("save program, unmarshal json: %s", err)
		http.Error(w, "save program failed, invalid program", http.StatusBadRequest)
		return
	}

	if err := handler.repo.SaveProgram(ctx, program); err != nil {
		writeError(w, err, "failed to save program")
		return
	}
	writeJSON(w, program, http.StatusOK)
}

func (handler *Handler) handleUpdateDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.update_day")
	defer span.End()

	day, ok := dayVar(r)
	if !ok {
		http.Error(w, "error, invalid day", http.StatusBadRequest)
		return
	}
	if !isJSON(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var update DayUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Tracef("update day, unmarshal json: %s", err)
		http.Error(w, "update day failed, invalid body", http.StatusBadRequest)
		return
	}

	updated, err := handler.repo.UpdateDay(ctx, day, update)
	if err != nil {
		writeError(w, err, "failed to update day")
		return
	}
	writeJSON(w, updated, http.StatusOK)
}

func (handler *Handler) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.add_exercise")
	defer span.End()

	day, ok := dayVar(r)
	if !ok {
		http.Error(w, "error, invalid day", http.StatusBadRequest)
		return
	}

	updated, err := handler.repo.AddExercise(ctx, day)
	if err != nil {
		writeError(w, err, "failed to add exercise")
		return
	}
	writeJSON(w, updated, http.StatusCreated)
}

func (handler *Handler) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.update_exercise")
	defer span.End()

	day, ok := dayVar(r)
	if !ok {
		http.Error(w, "error, invalid day", http.StatusBadRequest)
		return
	}
	idx, err := strconv.Atoi(mux.Vars(r)["idx"])
	if err != nil {
		http.Error(w, "error, exercise index NaN", http.StatusBadRequest)
		return
	}
	if !isJSON(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var update ExerciseUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Tracef("update exercise, unmarshal json: %s", err)
		http.Error(w, "update exercise failed, invalid body", http.StatusBadRequest)
		return
	}

	updated, err := handler.repo.UpdateExercise(ctx, day, idx, update)
	if err != nil {
		writeError(w, err, "failed to update exercise")
		return
	}
	writeJSON(w, updated, http.StatusOK)
}

func (handler *Handler) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.remove_exercise")
	defer span.End()

	day, ok := dayVar(r)
	if !ok {
		http.Error(w, "error, invalid day", http.StatusBadRequest)
		return
	}
	idx, err := strconv.Atoi(mux.Vars(r)["idx"])
	if err != nil {
		http.Error(w, "error, exercise index NaN", http.StatusBadRequest)
		return
	}

	updated, err := handler.repo.RemoveExercise(ctx, day, idx)
	if err != nil {
		writeError(w, err, "failed to remove exercise")
		return
	}
	writeJSON(w, updated, http.StatusOK)
}

func (handler *Handler) handleGetSchedules(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.get_schedules")
	defer span.End()

	schedules, err := handler.repo.Schedules(ctx)
	if err != nil {
		writeError(w, err, "failed to get schedules")
		return
	}
	writeJSON(w, schedules, http.StatusOK)
}

func (handler *Handler) handleSaveWeekSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.save_week_schedule")
	defer span.End()

	if !isJSON(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var slots []ScheduleSlot
	if err := json.NewDecoder(r.Body).Decode(&slots); err != nil {
		log.Tracef("save week schedule, unmarshal json: %s", err)
		http.Error(w, "save schedule failed, invalid body", http.StatusBadRequest)
		return
	}

	weekKey, days, err := handler.repo.SaveWeekSchedule(ctx, mux.Vars(r)["date"], slots)
	if err != nil {
		writeError(w, err, "failed to save week schedule")
		return
	}
	writeJSON(w, WeekScheduleResponse{WeekKey: weekKey, Days: days}, http.StatusOK)
}

func (handler *Handler) handleWorkoutForDate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.for_date")
	defer span.End()

	day, err := handler.repo.WorkoutForDate(ctx, mux.Vars(r)["date"])
	if err != nil {
		writeError(w, err, "failed to get workout for date")
		return
	}
	writeJSON(w, day, http.StatusOK)
}

func (handler *Handler) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.get_logs")
	defer span.End()

	workoutLog, err := handler.repo.Logs(ctx)
	if err != nil {
		writeError(w, err, "failed to get logs")
		return
	}
	writeJSON(w, workoutLog, http.StatusOK)
}

func (handler *Handler) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.get_entry")
	defer span.End()

	entry, err := handler.repo.Entry(ctx, mux.Vars(r)["date"])
	if err != nil {
		writeError(w, err, "failed to get log entry")
		return
	}
	writeJSON(w, entry, http.StatusOK)
}

func (handler *Handler) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.update_entry")
	defer span.End()

	if !isJSON(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var update LogUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Tracef("update log entry, unmarshal json: %s", err)
		http.Error(w, "update log failed, invalid body", http.StatusBadRequest)
		return
	}

	entry, err := handler.repo.UpdateEntry(ctx, mux.Vars(r)["date"], update)
	if err != nil {
		writeError(w, err, "failed to update log entry")
		return
	}
	writeJSON(w, entry, http.StatusOK)
}

func (handler *Handler) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.delete_entry")
	defer span.End()

	date := mux.Vars(r)["date"]
	if err := handler.repo.DeleteEntry(ctx, date); err != nil {
		writeError(w, err, "failed to delete log entry")
		return
	}
	pkg.WriteTextResponseOK(w, "deleted:"+date)
}

func (handler *Handler) handleSetCompleted(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.set_completed")
	defer span.End()

	if !isJSON(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req struct {
		Completed *bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("set completed, unmarshal json: %s", err)
		http.Error(w, "set completed failed, invalid body", http.StatusBadRequest)
		return
	}

	entry, err := handler.repo.SetCompleted(ctx, mux.Vars(r)["date"], req.Completed)
	if err != nil {
		writeError(w, err, "failed to set completed")
		return
	}
	writeJSON(w, entry, http.StatusOK)
}

func (handler *Handler) handleEditExercise(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.edit_exercise")
	defer span.End()

	vars := mux.Vars(r)
	date, slot := vars["date"], vars["idx"]
	if _, err := strconv.Atoi(slot); err != nil {
		http.Error(w, "error, exercise index NaN", http.StatusBadRequest)
		return
	}

	handler.queueEdits(w, r, date, func(field, value string) error {
		return handler.debouncer.EditExercise(date, slot, field, value)
	})
}

func (handler *Handler) handleEditRunning(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.edit_running")
	defer span.End()

	date := mux.Vars(r)["date"]
	handler.queueEdits(w, r, date, func(field, value string) error {
		return handler.debouncer.EditRunning(date, field, value)
	})
}

func (handler *Handler) handleEditNotes(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workout.edit_notes")
	defer span.End()

	date := mux.Vars(r)["date"]
	handler.queueEdits(w, r, date, func(field, value string) error {
		if field != "notes" {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		return handler.debouncer.EditNotes(date, value)
	})
}

func (handler *Handler) queueEdits(w http.ResponseWriter, r *http.Request, date string, edit func(field, value string) error) {
	if !isJSON(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		log.Tracef("edit fields, unmarshal json: %s", err)
		http.Error(w, "edit failed, expected field/value object", http.StatusBadRequest)
		return
	}
	if len(fields) == 0 {
		http.Error(w, "edit failed, no fields", http.StatusBadRequest)
		return
	}

	for field, value := range fields {
		if err := edit(field, value); err != nil {
			writeError(w, err, "failed to queue edit")
			return
		}
	}

	writeJSON(w, EditsQueuedResponse{Date: date, Queued: len(fields)}, http.StatusAccepted)
}
