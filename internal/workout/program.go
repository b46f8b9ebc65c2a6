package workout

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrExerciseNotFound = errors.New("exercise not found")
)

type ExerciseTemplate struct {
	Name         string `json:"name" yaml:"name"`
	Sets         string `json:"sets" yaml:"sets"`
	TargetWeight string `json:"targetWeight,omitempty" yaml:"targetWeight"`
	TargetReps   string `json:"targetReps,omitempty" yaml:"targetReps"`
	Notes        string `json:"notes" yaml:"notes"`
}

type Day struct {
	Type      string             `json:"type" yaml:"type"`
	TypeEn    string             `json:"typeEn" yaml:"typeEn"`
	Color     string             `json:"color" yaml:"color"`
	Exercises []ExerciseTemplate `json:"exercises" yaml:"exercises"`
}

func (d Day) Clone() Day {
	clone := d
	clone.Exercises = make([]ExerciseTemplate, len(d.Exercises))
	copy(clone.Exercises, d.Exercises)
	return clone
}

// Program maps weekday (0 = Sunday) to the planned day.
type Program map[int]Day

// WeeklySchedules maps a week key (Sunday date) to per-weekday overrides of the program.
type WeeklySchedules map[string]map[int]Day

func ValidDay(day int) bool {
	return day >= 0 && day <= 6
}

func (p Program) Clone() Program {
	clone := make(Program, len(p))
	for day, d := range p {
		clone[day] = d.Clone()
	}
	return clone
}

// DayFor returns the effective day for date: the week override when present, else the program day.
func DayFor(program Program, schedules WeeklySchedules, date time.Time) (Day, bool) {
	weekday := int(CalendarDay(date).Weekday())
	if week, ok := schedules[WeekKey(date)]; ok {
		if day, ok := week[weekday]; ok {
			return day, true
		}
	}
	day, ok := program[weekday]
	return day, ok
}

// DayUpdate carries the fields to change on a program day; nil fields are left as they are.
type DayUpdate struct {
	Type      *string             `json:"type"`
	TypeEn    *string             `json:"typeEn"`
	Color     *string             `json:"color"`
	Exercises *[]ExerciseTemplate `json:"exercises"`
}

func (u DayUpdate) apply(day Day) Day {
	if u.Type != nil {
		day.Type = *u.Type
	}
	if u.TypeEn != nil {
		day.TypeEn = *u.TypeEn
	}
	if u.Color != nil {
		day.Color = *u.Color
	}
	if u.Exercises != nil {
		day.Exercises = append([]ExerciseTemplate{}, (*u.Exercises)...)
	}
	return day
}

type ExerciseUpdate struct {
	Name         *string `json:"name"`
	Sets         *string `json:"sets"`
	TargetWeight *string `json:"targetWeight"`
	TargetReps   *string `json:"targetReps"`
	Notes        *string `json:"notes"`
}

func (u ExerciseUpdate) apply(ex ExerciseTemplate) ExerciseTemplate {
	if u.Name != nil {
		ex.Name = *u.Name
	}
	if u.Sets != nil {
		ex.Sets = *u.Sets
	}
	if u.TargetWeight != nil {
		ex.TargetWeight = *u.TargetWeight
	}
	if u.TargetReps != nil {
		ex.TargetReps = *u.TargetReps
	}
	if u.Notes != nil {
		ex.Notes = *u.Notes
	}
	return ex
}

// ScheduleSlot assigns a workout type to a weekday of one week.
type ScheduleSlot struct {
	Day         int    `json:"day"`
	WorkoutType string `json:"workoutType"`
}

type programFile struct {
	Days map[int]Day `yaml:"days"`
}

// LoadProgramFile reads a weekly program from a YAML file:
//
//	days:
//	  0:
//	    type: Strength
//	    typeEn: Strength
//	    exercises:
//	      - name: Back Squats
//	        sets: "3"
func LoadProgramFile(path string) (Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program file: %w", err)
	}

	var pf programFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse program file: %w", err)
	}
	if len(pf.Days) == 0 {
		return nil, errors.New("program file has no days")
	}

	program := make(Program, len(pf.Days))
	for day, d := range pf.Days {
		if !ValidDay(day) {
			return nil, fmt.Errorf("program file: %w [%d]", ErrInvalidDay, day)
		}
		if d.Exercises == nil {
			d.Exercises = []ExerciseTemplate{}
		}
		program[day] = d
	}

	return program, nil
}
