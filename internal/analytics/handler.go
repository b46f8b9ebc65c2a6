package analytics

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/workouttracker/internal/telemetry/tracing"
	"github.com/2beens/workouttracker/internal/workout"
	"github.com/2beens/workouttracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultWeeks        = 12
	DefaultRecentDays   = 30
	DefaultHistoryLimit = 50
	defaultStatsDays    = 30

	// upper bounds for window and limit params
	MaxWeeks        = 520
	MaxRecentDays   = 3660
	MaxHistoryLimit = 10000
)

type Handler struct {
	analyzer *Analyzer
}

func NewHandler(analyzer *Analyzer) *Handler {
	return &Handler{
		analyzer: analyzer,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/history", handler.handleHistory).Methods("GET", "OPTIONS").Name("history")

	analyticsRouter := router.PathPrefix("/analytics").Subrouter()
	analyticsRouter.HandleFunc("/stats", handler.handleStats).Methods("GET", "OPTIONS").Name("analytics-stats")
	analyticsRouter.HandleFunc("/streak", handler.handleStreak).Methods("GET", "OPTIONS").Name("analytics-streak")
	analyticsRouter.HandleFunc("/volume", handler.handleVolume).Methods("GET", "OPTIONS").Name("analytics-volume")
	analyticsRouter.HandleFunc("/records", handler.handleRecords).Methods("GET", "OPTIONS").Name("analytics-records")
	analyticsRouter.HandleFunc("/running", handler.handleRunning).Methods("GET", "OPTIONS").Name("analytics-running")
	analyticsRouter.HandleFunc("/distribution", handler.handleDistribution).Methods("GET", "OPTIONS").Name("analytics-distribution")
	analyticsRouter.HandleFunc("/weekly", handler.handleWeekly).Methods("GET", "OPTIONS").Name("analytics-weekly")
	analyticsRouter.HandleFunc("/recent", handler.handleRecent).Methods("GET", "OPTIONS").Name("analytics-recent")
	analyticsRouter.HandleFunc("/dashboard", handler.handleDashboard).Methods("GET", "OPTIONS").Name("analytics-dashboard")
}

func writeJSON(w http.ResponseWriter, v any) {
	respJson, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal analytics response: %s", err)
		http.Error(w, "error, failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

// intParam reads an int query param in [0, upper], returning def when it is absent.
func intParam(r *http.Request, name string, def, upper int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > upper {
		return 0, false
	}
	return n, true
}

func dateParam(r *http.Request, name string, def time.Time) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	date, err := workout.ParseDate(raw)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

func (handler *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analytics.stats")
	defer span.End()

	today := handler.analyzer.Today()
	to, ok := dateParam(r, "to", today)
	if !ok {
		http.Error(w, "error, invalid to date", http.StatusBadRequest)
		return
	}
	from, ok := dateParam(r, "from", to.AddDate(0, 0, -(defaultStatsDays-1)))
	if !ok {
		http.Error(w, "error, invalid from date", http.StatusBadRequest)
		return
	}

	stats, err := handler.analyzer.Stats(ctx, from, to)
	if err != nil {
		log.Errorf("failed to get stats: %s", err)
		http.Error(w, "error, failed to get stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func (handler *Handler) handleStreak(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analytics.streak")
	defer span.End()

	streak, err := handler.analyzer.Streak(ctx)
	if err != nil {
		log.Errorf("failed to get streak: %s", err)
		http.Error(w, "error, failed to get streak", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int{"streak": streak})
}

func (handler *Handler) handleVolume(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analytics.volume")
	defer span.End()

	volume, err := handler.analyzer.Volume(ctx, r.URL.Query().Get("exercise"))
	if err != nil {
		log.Errorf("failed to get volume: %s", err)
		http.Error(w, "error, failed to get volume", http.StatusInternalServerError)
		return
	}
	writeJSON(w, volume)
}

func (handler *Handler) handleRecords(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analytics.records")
	defer span.End()

	records, err := handler.analyzer.PersonalRecords(ctx)
	if err != nil {
		log.Errorf("failed to get personal records: %s", err)
		http.Error(w, "error, failed to get personal records", http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

func (handler *Handler) handleRunning(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analytics.running")
	defer span.End()

	runType := r.URL.Query().Get("type")
	if runType == "" {
		runType = RunningAll
	}

	sessions, err := handler.analyzer.RunningStats(ctx, runType)
	if err != nil {
		log.Errorf("failed to get running stats: %s", err)
		http.Error(w, "error, failed to get running stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, sessions)
}

func (handler *Handler) handleDistribution(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analytics.distribution")
	defer span.End()

	distribution, err := handler.analyzer.Distribution(ctx)
	if err != nil {
		log.Errorf("failed to get distribution: %s", err)
		http.Error(w, "error, failed to get distribution", http.StatusInternalServerError)
		return
	}
	writeJSON(w, distribution)
}

func (handler *Handler) handleWeekly(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analytics.weekly")
	defer span.End()

	weeks, ok := intParam(r, "weeks", DefaultWeeks, MaxWeeks)
	if !ok {
		http.Error(w, "error, invalid weeks", http.StatusBadRequest)
		return
	}

	progress, err := handler.analyzer.WeeklyProgress(ctx, weeks)
	if err != nil {
		log.Errorf("failed to get weekly progress: %s", err)
		http.Error(w, "error, failed to get weekly progress", http.StatusInternalServerError)
		return
	}
	writeJSON(w, progress)
}

func (handler *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analytics.recent")
	defer span.End()

	days, ok := intParam(r, "days", DefaultRecentDays, MaxRecentDays)
	if !ok {
		http.Error(w, "error, invalid days", http.StatusBadRequest)
		return
	}

	activity, err := handler.analyzer.RecentActivity(ctx, days)
	if err != nil {
		log.Errorf("failed to get recent activity: %s", err)
		http.Error(w, "error, failed to get recent activity", http.StatusInternalServerError)
		return
	}
	writeJSON(w, activity)
}

func (handler *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analytics.dashboard")
	defer span.End()

	dashboard, err := handler.analyzer.Dashboard(ctx)
	if err != nil {
		log.Errorf("failed to get dashboard: %s", err)
		http.Error(w, "error, failed to get dashboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, dashboard)
}

func (handler *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.analytics.history")
	defer span.End()

	limit, ok := intParam(r, "limit", DefaultHistoryLimit, MaxHistoryLimit)
	if !ok {
		http.Error(w, "error, invalid limit", http.StatusBadRequest)
		return
	}

	history, err := handler.analyzer.History(ctx, limit)
	if err != nil {
		log.Errorf("failed to get history: %s", err)
		http.Error(w, "error, failed to get history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, history)
}
