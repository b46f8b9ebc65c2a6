package workout

const (
	TypeStrength = "Strength"
	TypeCrossFit = "CrossFit"
	TypeSprints  = "Sprints"
	TypeLongRun  = "Long Run"
	TypeRest     = "Rest"
)

// Categories are the workout types every distribution starts with.
var Categories = []string{TypeStrength, TypeCrossFit, TypeSprints, TypeLongRun, TypeRest}

const newExerciseName = "New Exercise"

func strengthDayA(color string) Day {
	return Day{
		Type:   "כוח",
		TypeEn: TypeStrength,
		Color:  color,
		Exercises: []ExerciseTemplate{
			{Name: "Back Squats", Sets: "3 super-sets: 5 reps", TargetWeight: "70", Notes: "+ 8 Weighted dips (2min rest between)"},
			{Name: "Weighted Dips", Sets: "3 super-sets: 8 reps", TargetWeight: "12", Notes: "Part of super-set with squats"},
			{Name: "Strict Press", Sets: "3 super-sets: 5 reps", TargetWeight: "45", Notes: "+ 8 Weighted pull ups (2min rest between)"},
			{Name: "Weighted Pull Ups", Sets: "3 super-sets: 8 reps", Notes: "Part of super-set with press"},
			{Name: "Max Reps Dips (B.W)", Sets: "1 set", TargetReps: "20"},
			{Name: "Max Reps Pull Ups (B.W)", Sets: "1 set", TargetReps: "20"},
		},
	}
}

func strengthDayB(color string) Day {
	return Day{
		Type:   "כוח",
		TypeEn: TypeStrength,
		Color:  color,
		Exercises: []ExerciseTemplate{
			{Name: "Deadlifts", Sets: "3 super-sets: 5 reps", Notes: "+ 8 Weighted dips (2min rest between)"},
			{Name: "Weighted Dips", Sets: "3 super-sets: 8 reps", Notes: "Part of super-set with deadlifts"},
			{Name: "Bench Press", Sets: "3 super-sets: 5 reps", Notes: "+ 8 Barbell bent over row (2min rest between)"},
			{Name: "Barbell Bent Over Row", Sets: "3 super-sets: 8 reps", Notes: "Part of super-set with bench"},
			{Name: "Max Reps Dips (B.W)", Sets: "1 set"},
			{Name: "Max Reps Pull Ups (B.W)", Sets: "1 set"},
		},
	}
}

func crossFitDay(color string) Day {
	return Day{
		Type:   "קרוספיט",
		TypeEn: TypeCrossFit,
		Color:  color,
		Exercises: []ExerciseTemplate{
			{Name: "CrossFit WOD", Sets: "Based on gym programming", Notes: "מבוסס על תכנית האימונים במועדון"},
		},
	}
}

func sprintsDay(color string) Day {
	return Day{
		Type:   "ריצה (ספרינטים)",
		TypeEn: TypeSprints,
		Color:  color,
		Exercises: []ExerciseTemplate{
			{Name: "Warm-up", Sets: "10 mins", Notes: "Easy jog + high knees, butt kicks, triple jump"},
			{Name: "150m Sprint", Sets: "8 sets", Notes: "RPE: 9-10, REST: 90-120sec walking to start line"},
			{Name: "Cool-down", Sets: "7-10 min", Notes: "Light jog"},
		},
	}
}

func longRunDay(color string) Day {
	return Day{
		Type:   "ריצה (Zone 2)",
		TypeEn: TypeLongRun,
		Color:  color,
		Exercises: []ExerciseTemplate{
			{Name: "30 min Long Run", Sets: "1 session", Notes: "Heart rate: 120-135bpm, Pace: 05:50-06:00, RPE: 4-5"},
		},
	}
}

func restDay(color string) Day {
	return Day{
		Type:   "מנוחה",
		TypeEn: TypeRest,
		Color:  color,
		Exercises: []ExerciseTemplate{
			{Name: "Rest Day", Notes: "Recovery and regeneration"},
		},
	}
}

// DefaultProgram is the built-in week used until a program is stored.
func DefaultProgram() Program {
	return Program{
		0: strengthDayA("bg-indigo-600"),
		1: crossFitDay("bg-amber-600"),
		2: crossFitDay("bg-amber-600"),
		3: sprintsDay("bg-lime-600"),
		4: strengthDayB("bg-indigo-600"),
		5: longRunDay("bg-teal-600"),
		6: restDay("bg-slate-600"),
	}
}

// TypeTemplate returns the template day used when a week schedule switches a day to workoutType.
// Unknown types get the rest day.
func TypeTemplate(workoutType string) Day {
	switch workoutType {
	case TypeStrength:
		return strengthDayA("bg-blue-500")
	case TypeCrossFit:
		return crossFitDay("bg-orange-500")
	case TypeSprints:
		return sprintsDay("bg-green-500")
	case TypeLongRun:
		return longRunDay("bg-emerald-500")
	default:
		return restDay("bg-gray-400")
	}
}

func newExerciseTemplate() ExerciseTemplate {
	return ExerciseTemplate{Name: newExerciseName}
}
