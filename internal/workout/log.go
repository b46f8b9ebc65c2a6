package workout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var ErrUnknownField = errors.New("unknown field")

// ExerciseLog is what was actually done in one exercise slot. Numeric values stay strings as typed by the user.
type ExerciseLog struct {
	Name   string `json:"name,omitempty"`
	Weight string `json:"weight,omitempty"`
	Reps   string `json:"reps,omitempty"`
	Sets   string `json:"sets,omitempty"`
	Notes  string `json:"notes,omitempty"`

	// CrossFit
	WodName string `json:"wodName,omitempty"`
	Score   string `json:"score,omitempty"`
	Rx      string `json:"rx,omitempty"`
}

func (e *ExerciseLog) SetField(field, value string) error {
	switch field {
	case "name":
		e.Name = value
	case "weight":
		e.Weight = value
	case "reps":
		e.Reps = value
	case "sets":
		e.Sets = value
	case "notes":
		e.Notes = value
	case "wodName":
		e.WodName = value
	case "score":
		e.Score = value
	case "rx":
		e.Rx = value
	default:
		return fmt.Errorf("exercise field [%s]: %w", field, ErrUnknownField)
	}
	return nil
}

// RunningLog holds long run and sprint session metrics.
type RunningLog struct {
	Duration  string `json:"duration,omitempty"`
	Distance  string `json:"distance,omitempty"`
	Pace      string `json:"pace,omitempty"`
	HeartRate string `json:"heartRate,omitempty"`
	RPE       string `json:"rpe,omitempty"`
	Calories  string `json:"calories,omitempty"`
	Route     string `json:"route,omitempty"`

	SprintsCompleted string `json:"sprintsCompleted,omitempty"`
	SprintDistance   string `json:"sprintDistance,omitempty"`
	SprintTimes      string `json:"sprintTimes,omitempty"`
	BestTime         string `json:"bestTime,omitempty"`
	AvgTime          string `json:"avgTime,omitempty"`
	RestTime         string `json:"restTime,omitempty"`
	WarmupDuration   string `json:"warmupDuration,omitempty"`

	// fields written by other clients, kept as they were
	Extra map[string]json.RawMessage `json:"-"`
}

var runningFieldNames = []string{
	"duration", "distance", "pace", "heartRate", "rpe", "calories", "route",
	"sprintsCompleted", "sprintDistance", "sprintTimes", "bestTime", "avgTime", "restTime", "warmupDuration",
}

// runningLogFields has the fields of RunningLog without its JSON methods.
type runningLogFields RunningLog

func (r RunningLog) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(runningLogFields(r))
	if err != nil || len(r.Extra) == 0 {
		return known, err
	}

	fields := make(map[string]json.RawMessage, len(r.Extra)+len(runningFieldNames))
	for k, v := range r.Extra {
		fields[k] = v
	}
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

func (r *RunningLog) UnmarshalJSON(data []byte) error {
	var known runningLogFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var extra map[string]json.RawMessage
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	for _, name := range runningFieldNames {
		delete(extra, name)
	}

	known.Extra = nil
	if len(extra) > 0 {
		known.Extra = extra
	}
	*r = RunningLog(known)
	return nil
}

func (r *RunningLog) SetField(field, value string) error {
	switch field {
	case "duration":
		r.Duration = value
	case "distance":
		r.Distance = value
	case "pace":
		r.Pace = value
	case "heartRate":
		r.HeartRate = value
	case "rpe":
		r.RPE = value
	case "calories":
		r.Calories = value
	case "route":
		r.Route = value
	case "sprintsCompleted":
		r.SprintsCompleted = value
	case "sprintDistance":
		r.SprintDistance = value
	case "sprintTimes":
		r.SprintTimes = value
	case "bestTime":
		r.BestTime = value
	case "avgTime":
		r.AvgTime = value
	case "restTime":
		r.RestTime = value
	case "warmupDuration":
		r.WarmupDuration = value
	default:
		return fmt.Errorf("running field [%s]: %w", field, ErrUnknownField)
	}
	return nil
}

// LogEntry is the record of one calendar date.
// Completed is nil when the workout was not marked either way.
type LogEntry struct {
	Completed *bool                  `json:"completed"`
	Exercises map[string]ExerciseLog `json:"exercises,omitempty"`
	Running   *RunningLog            `json:"running,omitempty"`
	Notes     string                 `json:"notes,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

func (e LogEntry) IsCompleted() bool {
	return e.Completed != nil && *e.Completed
}

func (e LogEntry) IsSkipped() bool {
	return e.Completed != nil && !*e.Completed
}

// Slots returns exercise slot keys in ascending numeric order.
// Keys that are not numbers go last, in lexical order.
func (e LogEntry) Slots() []string {
	slots := make([]string, 0, len(e.Exercises))
	for slot := range e.Exercises {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		a, errA := strconv.Atoi(slots[i])
		b, errB := strconv.Atoi(slots[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return slots[i] < slots[j]
		}
	})
	return slots
}

func Bool(b bool) *bool {
	return &b
}

// Log maps date keys to entries and remembers the order in which dates were first written.
// A nil *Log behaves like an empty one.
type Log struct {
	dates   []string
	entries map[string]LogEntry
}

func NewLog() *Log {
	return &Log{
		entries: make(map[string]LogEntry),
	}
}

func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.dates)
}

func (l *Log) Get(date string) (LogEntry, bool) {
	if l == nil {
		return LogEntry{}, false
	}
	entry, ok := l.entries[date]
	return entry, ok
}

// Set replaces the entry for date. A new date is appended to the order, an existing one keeps its place.
func (l *Log) Set(date string, entry LogEntry) {
	if l.entries == nil {
		l.entries = make(map[string]LogEntry)
	}
	if _, ok := l.entries[date]; !ok {
		l.dates = append(l.dates, date)
	}
	l.entries[date] = entry
}

func (l *Log) Delete(date string) bool {
	if l == nil {
		return false
	}
	if _, ok := l.entries[date]; !ok {
		return false
	}
	delete(l.entries, date)
	for i, d := range l.dates {
		if d == date {
			l.dates = append(l.dates[:i], l.dates[i+1:]...)
			break
		}
	}
	return true
}

// Dates returns a copy of the date keys in log order.
func (l *Log) Dates() []string {
	if l == nil {
		return nil
	}
	dates := make([]string, len(l.dates))
	copy(dates, l.dates)
	return dates
}

// Range calls fn for every entry in log order until fn returns false.
func (l *Log) Range(fn func(date string, entry LogEntry) bool) {
	if l == nil {
		return
	}
	for _, date := range l.dates {
		if !fn(date, l.entries[date]) {
			return
		}
	}
}

func (l *Log) Clone() *Log {
	clone := NewLog()
	l.Range(func(date string, entry LogEntry) bool {
		clone.Set(date, entry)
		return true
	})
	return clone
}

func (l *Log) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, date := range l.dates {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJson, err := json.Marshal(date)
		if err != nil {
			return nil, err
		}
		entryJson, err := json.Marshal(l.entries[date])
		if err != nil {
			return nil, fmt.Errorf("marshal entry [%s]: %w", date, err)
		}
		buf.Write(keyJson)
		buf.WriteByte(':')
		buf.Write(entryJson)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the key order of the document. A repeated key keeps its first position and its last value.
func (l *Log) UnmarshalJSON(data []byte) error {
	l.dates = nil
	l.entries = make(map[string]LogEntry)

	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("read log: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read log key: %w", err)
		}
		date, ok := tok.(string)
		if !ok {
			return fmt.Errorf("read log key: unexpected %v", tok)
		}

		var entry LogEntry
		if err := dec.Decode(&entry); err != nil {
			return fmt.Errorf("read log entry [%s]: %w", date, err)
		}
		l.Set(date, entry)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read log end: %w", err)
	}

	return nil
}
