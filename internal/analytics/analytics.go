package analytics

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/2beens/workouttracker/internal/workout"
)

const (
	RunningAll     = "all"
	RunningLong    = "long"
	RunningSprints = "sprints"

	unknownExercise = "Unknown"
	recentLogsLimit = 10
)

type Stats struct {
	Completed      int `json:"completed"`
	Skipped        int `json:"skipped"`
	Total          int `json:"total"`
	CompletionRate int `json:"completionRate"`
}

type VolumeEntry struct {
	Date     string  `json:"date"`
	Exercise string  `json:"exercise"`
	Weight   float64 `json:"weight"`
	// Reps is the total over all sets
	Reps   int     `json:"reps"`
	Sets   int     `json:"sets"`
	Volume float64 `json:"volume"`
}

// Record is the heaviest logged set of an exercise. Reps and Sets are kept as logged.
type Record struct {
	Weight float64 `json:"weight"`
	Date   string  `json:"date"`
	Reps   string  `json:"reps,omitempty"`
	Sets   string  `json:"sets,omitempty"`
}

// RunningSession is one run. Long runs fill Distance, Duration, Pace and HeartRate,
// sprint sessions fill SprintsCompleted, SprintDistance and BestTime.
// Raw is set only for the "all" listing, which reports the logged fields unchanged.
type RunningSession struct {
	Date             string
	Type             string
	Distance         float64
	Duration         float64
	Pace             string
	HeartRate        int
	SprintsCompleted int
	SprintDistance   int
	BestTime         string
	Raw              *workout.RunningLog
}

func (s RunningSession) MarshalJSON() ([]byte, error) {
	if s.Raw != nil {
		rawJson, err := json.Marshal(s.Raw)
		if err != nil {
			return nil, err
		}
		fields := map[string]any{}
		if err := json.Unmarshal(rawJson, &fields); err != nil {
			return nil, err
		}
		fields["date"] = s.Date
		fields["type"] = s.Type
		return json.Marshal(fields)
	}

	if s.Type == RunningSprints {
		return json.Marshal(struct {
			Date      string `json:"date"`
			Type      string `json:"type"`
			Completed int    `json:"completed"`
			Distance  int    `json:"distance"`
			BestTime  string `json:"bestTime,omitempty"`
		}{s.Date, s.Type, s.SprintsCompleted, s.SprintDistance, s.BestTime})
	}

	return json.Marshal(struct {
		Date      string  `json:"date"`
		Type      string  `json:"type"`
		Distance  float64 `json:"distance"`
		Duration  float64 `json:"duration"`
		Pace      string  `json:"pace,omitempty"`
		HeartRate int     `json:"heartRate"`
	}{s.Date, s.Type, s.Distance, s.Duration, s.Pace, s.HeartRate})
}

type WeekStats struct {
	WeekStart string `json:"weekStart"`
	WeekEnd   string `json:"weekEnd"`
	Stats
}

// DatedEntry is encoded as a [date, entry] pair.
type DatedEntry struct {
	Date  string
	Entry workout.LogEntry
}

func (e DatedEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Date, e.Entry})
}

type Activity struct {
	Total     int          `json:"total"`
	Completed int          `json:"completed"`
	Logs      []DatedEntry `json:"logs"`
}

type Dashboard struct {
	Streak                 int               `json:"streak"`
	TotalWorkouts          int               `json:"totalWorkouts"`
	PersonalRecordsCount   int               `json:"personalRecordsCount"`
	LastFourWeeksCompleted int               `json:"lastFourWeeksCompleted"`
	PersonalRecords        map[string]Record `json:"personalRecords"`
	Distribution           map[string]int    `json:"distribution"`
	WeeklyProgress         []WeekStats       `json:"weeklyProgress"`
}

type datedEntry struct {
	key   string
	date  time.Time
	entry workout.LogEntry
}

// datedEntries returns the entries with a valid date key, in log order.
func datedEntries(log *workout.Log) []datedEntry {
	entries := make([]datedEntry, 0, log.Len())
	log.Range(func(key string, entry workout.LogEntry) bool {
		date, err := workout.ParseDate(key)
		if err != nil {
			return true
		}
		entries = append(entries, datedEntry{key: key, date: date, entry: entry})
		return true
	})
	return entries
}

func sortNewestFirst(entries []datedEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].date.After(entries[j].date)
	})
}

// roundHalfUp rounds halves toward +Inf.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// DateRangeStats counts entries dated within [start, end], both calendar days inclusive.
func DateRangeStats(log *workout.Log, start, end time.Time) Stats {
	start, end = workout.CalendarDay(start), workout.CalendarDay(end)

	var stats Stats
	for _, e := range datedEntries(log) {
		if e.date.Before(start) || e.date.After(end) {
			continue
		}
		stats.Total++
		if e.entry.IsCompleted() {
			stats.Completed++
		} else if e.entry.IsSkipped() {
			stats.Skipped++
		}
	}

	if stats.Total > 0 {
		stats.CompletionRate = roundHalfUp(float64(stats.Completed) / float64(stats.Total) * 100)
	}
	return stats
}

// Streak counts consecutive completed days ending at the most recent completed day.
// The streak is 0 once that day is more than one day before today.
func Streak(log *workout.Log, today time.Time) int {
	today = workout.CalendarDay(today)

	var completed []datedEntry
	for _, e := range datedEntries(log) {
		if e.entry.IsCompleted() {
			completed = append(completed, e)
		}
	}
	if len(completed) == 0 {
		return 0
	}
	sortNewestFirst(completed)

	if daysBetween(completed[0].date, today) > 1 {
		return 0
	}

	streak := 1
	for i := 1; i < len(completed); i++ {
		if daysBetween(completed[i].date, completed[i-1].date) != 1 {
			break
		}
		streak++
	}
	return streak
}

func daysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

// totalReps sums "5/5/5" style per-set reps, or multiplies plain reps by the set count.
func totalReps(reps string, sets int) int {
	if strings.Contains(reps, "/") {
		total := 0
		for _, r := range strings.Split(reps, "/") {
			total += parseInt(r)
		}
		return total
	}

	if sets == 0 {
		sets = 1
	}
	return parseInt(reps) * sets
}

// Volume lists weight x reps per exercise slot, newest first. With a non-empty exerciseName
// only slots logged under that exact name are included. Zero volume rows are left out.
func Volume(log *workout.Log, exerciseName string) []VolumeEntry {
	entries := datedEntries(log)
	volumes := make([]VolumeEntry, 0)
	dates := make([]time.Time, 0)

	for _, e := range entries {
		for _, slot := range e.entry.Slots() {
			ex := e.entry.Exercises[slot]
			if exerciseName != "" && ex.Name != exerciseName {
				continue
			}

			weight := parseFloat(ex.Weight)
			sets := parseInt(ex.Sets)
			reps := totalReps(ex.Reps, sets)
			volume := weight * float64(reps)
			if volume <= 0 {
				continue
			}

			label := exerciseName
			if label == "" {
				label = ex.Name
			}
			if label == "" {
				label = unknownExercise
			}

			volumes = append(volumes, VolumeEntry{
				Date:     e.key,
				Exercise: label,
				Weight:   weight,
				Reps:     reps,
				Sets:     sets,
				Volume:   volume,
			})
			dates = append(dates, e.date)
		}
	}

	idx := make([]int, len(volumes))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return dates[idx[i]].After(dates[idx[j]])
	})
	sorted := make([]VolumeEntry, len(volumes))
	for i, k := range idx {
		sorted[i] = volumes[k]
	}
	return sorted
}

// PersonalRecords keeps the heaviest weight per exercise name. On equal weight the
// first one in log order stays.
func PersonalRecords(log *workout.Log) map[string]Record {
	records := make(map[string]Record)
	for _, e := range datedEntries(log) {
		for _, slot := range e.entry.Slots() {
			ex := e.entry.Exercises[slot]
			weight := parseFloat(ex.Weight)
			if weight == 0 {
				continue
			}

			name := ex.Name
			if name == "" {
				name = unknownExercise
			}

			current, ok := records[name]
			if !ok || weight > current.Weight {
				records[name] = Record{
					Weight: weight,
					Date:   e.key,
					Reps:   ex.Reps,
					Sets:   ex.Sets,
				}
			}
		}
	}
	return records
}

// RunningStats lists runs newest first. runType is one of "all", "long" or "sprints";
// any other value gives an empty list.
func RunningStats(log *workout.Log, runType string) []RunningSession {
	sessions := make([]RunningSession, 0)

	entries := datedEntries(log)
	sortNewestFirst(entries)

	for _, e := range entries {
		running := e.entry.Running
		if running == nil {
			continue
		}

		switch {
		case runType == RunningLong && running.Distance != "":
			sessions = append(sessions, RunningSession{
				Date:      e.key,
				Type:      RunningLong,
				Distance:  parseFloat(running.Distance),
				Duration:  parseFloat(running.Duration),
				Pace:      running.Pace,
				HeartRate: parseInt(running.HeartRate),
			})
		case runType == RunningSprints && running.SprintsCompleted != "":
			sessions = append(sessions, RunningSession{
				Date:             e.key,
				Type:             RunningSprints,
				SprintsCompleted: parseInt(running.SprintsCompleted),
				SprintDistance:   parseInt(running.SprintDistance),
				BestTime:         running.BestTime,
			})
		case runType == RunningAll && (running.Distance != "" || running.SprintsCompleted != ""):
			sessionType := RunningSprints
			if running.Distance != "" {
				sessionType = RunningLong
			}
			raw := *running
			sessions = append(sessions, RunningSession{
				Date: e.key,
				Type: sessionType,
				Raw:  &raw,
			})
		}
	}

	return sessions
}

// Distribution counts completed workouts per workout type of the program day of their weekday.
func Distribution(log *workout.Log, program workout.Program) map[string]int {
	distribution := make(map[string]int, len(workout.Categories))
	for _, category := range workout.Categories {
		distribution[category] = 0
	}

	for _, e := range datedEntries(log) {
		if !e.entry.IsCompleted() {
			continue
		}
		day, ok := program[int(e.date.Weekday())]
		if !ok || day.TypeEn == "" {
			continue
		}
		distribution[day.TypeEn]++
	}

	return distribution
}

// WeeklyProgress returns weeksBack trailing 7-day windows ending today, oldest first.
// weeksBack is capped at MaxWeeks.
func WeeklyProgress(log *workout.Log, weeksBack int, today time.Time) []WeekStats {
	today = workout.CalendarDay(today)
	weeksBack = min(weeksBack, MaxWeeks)

	weeks := make([]WeekStats, 0, max(weeksBack, 0))
	for i := weeksBack - 1; i >= 0; i-- {
		weekEnd := today.AddDate(0, 0, -7*i)
		weekStart := weekEnd.AddDate(0, 0, -6)
		weeks = append(weeks, WeekStats{
			WeekStart: workout.DateKey(weekStart),
			WeekEnd:   workout.DateKey(weekEnd),
			Stats:     DateRangeStats(log, weekStart, weekEnd),
		})
	}
	return weeks
}

// RecentActivity summarizes entries dated on or after today minus days, with the 10 newest.
// days is capped at MaxRecentDays.
func RecentActivity(log *workout.Log, days int, today time.Time) Activity {
	cutoff := workout.CalendarDay(today).AddDate(0, 0, -min(days, MaxRecentDays))

	var recent []datedEntry
	for _, e := range datedEntries(log) {
		if !e.date.Before(cutoff) {
			recent = append(recent, e)
		}
	}
	sortNewestFirst(recent)

	activity := Activity{
		Total: len(recent),
		Logs:  make([]DatedEntry, 0, min(len(recent), recentLogsLimit)),
	}
	for i, e := range recent {
		if e.entry.IsCompleted() {
			activity.Completed++
		}
		if i < recentLogsLimit {
			activity.Logs = append(activity.Logs, DatedEntry{Date: e.key, Entry: e.entry})
		}
	}
	return activity
}

func TotalCompleted(log *workout.Log) int {
	total := 0
	log.Range(func(_ string, entry workout.LogEntry) bool {
		if entry.IsCompleted() {
			total++
		}
		return true
	})
	return total
}

// History returns the newest entries first, at most limit of them. A limit <= 0 returns all.
func History(log *workout.Log, limit int) []DatedEntry {
	entries := datedEntries(log)
	sortNewestFirst(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	history := make([]DatedEntry, 0, len(entries))
	for _, e := range entries {
		history = append(history, DatedEntry{Date: e.key, Entry: e.entry})
	}
	return history
}

const dashboardWeeks = 8

func BuildDashboard(log *workout.Log, program workout.Program, today time.Time) Dashboard {
	records := PersonalRecords(log)
	weekly := WeeklyProgress(log, dashboardWeeks, today)

	lastFour := 0
	for _, week := range weekly[max(len(weekly)-4, 0):] {
		lastFour += week.Completed
	}

	return Dashboard{
		Streak:                 Streak(log, today),
		TotalWorkouts:          TotalCompleted(log),
		PersonalRecordsCount:   len(records),
		LastFourWeeksCompleted: lastFour,
		PersonalRecords:        records,
		Distribution:           Distribution(log, program),
		WeeklyProgress:         weekly,
	}
}
