package workout_test

import (
	"encoding/json"
	"testing"

	"github.com/2beens/workouttracker/internal/workout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLog_KeepsDocumentOrder(t *testing.T) {
	doc := `{
		"2024-01-10": {"completed": true},
		"2024-01-02": {"completed": false},
		"2024-01-05": {"completed": null, "notes": "tired"}
	}`

	workoutLog := workout.NewLog()
	require.NoError(t, json.Unmarshal([]byte(doc), workoutLog))

	assert.Equal(t, []string{"2024-01-10", "2024-01-02", "2024-01-05"}, workoutLog.Dates())
	assert.Equal(t, 3, workoutLog.Len())

	entry, ok := workoutLog.Get("2024-01-05")
	require.True(t, ok)
	assert.Nil(t, entry.Completed)
	assert.Equal(t, "tired", entry.Notes)

	entry, ok = workoutLog.Get("2024-01-02")
	require.True(t, ok)
	assert.True(t, entry.IsSkipped())
	assert.False(t, entry.IsCompleted())

	out, err := json.Marshal(workoutLog)
	require.NoError(t, err)
	assert.Equal(t,
		`{"2024-01-10":{"completed":true},"2024-01-02":{"completed":false},"2024-01-05":{"completed":null,"notes":"tired"}}`,
		string(out),
	)
}

func TestLog_RepeatedKeyKeepsFirstPositionLastValue(t *testing.T) {
	doc := `{"2024-01-01":{"completed":false},"2024-01-02":{},"2024-01-01":{"completed":true}}`

	workoutLog := workout.NewLog()
	require.NoError(t, json.Unmarshal([]byte(doc), workoutLog))

	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, workoutLog.Dates())
	entry, _ := workoutLog.Get("2024-01-01")
	assert.True(t, entry.IsCompleted())
}

func TestLog_SetAndDelete(t *testing.T) {
	workoutLog := workout.NewLog()
	workoutLog.Set("2024-03-01", workout.LogEntry{Completed: workout.Bool(true)})
	workoutLog.Set("2024-02-01", workout.LogEntry{})
	workoutLog.Set("2024-03-01", workout.LogEntry{Completed: workout.Bool(false)})

	assert.Equal(t, []string{"2024-03-01", "2024-02-01"}, workoutLog.Dates())
	entry, _ := workoutLog.Get("2024-03-01")
	assert.True(t, entry.IsSkipped())

	assert.True(t, workoutLog.Delete("2024-03-01"))
	assert.False(t, workoutLog.Delete("2024-03-01"))
	assert.Equal(t, []string{"2024-02-01"}, workoutLog.Dates())
}

func TestLog_NilAndNull(t *testing.T) {
	var nilLog *workout.Log
	assert.Equal(t, 0, nilLog.Len())
	_, ok := nilLog.Get("2024-01-01")
	assert.False(t, ok)
	nilLog.Range(func(string, workout.LogEntry) bool {
		t.Fatal("range over nil log")
		return true
	})

	out, err := json.Marshal(nilLog)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))

	workoutLog := workout.NewLog()
	require.NoError(t, json.Unmarshal([]byte("null"), workoutLog))
	assert.Equal(t, 0, workoutLog.Len())

	assert.Error(t, json.Unmarshal([]byte(`["2024-01-01"]`), workoutLog))
}

func TestLog_Clone(t *testing.T) {
	workoutLog := workout.NewLog()
	workoutLog.Set("2024-01-01", workout.LogEntry{Notes: "a"})

	clone := workoutLog.Clone()
	clone.Set("2024-01-02", workout.LogEntry{Notes: "b"})

	assert.Equal(t, 1, workoutLog.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestLogEntry_Slots(t *testing.T) {
	entry := workout.LogEntry{
		Exercises: map[string]workout.ExerciseLog{
			"10": {}, "2": {}, "0": {}, "x": {}, "1": {},
		},
	}
	assert.Equal(t, []string{"0", "1", "2", "10", "x"}, entry.Slots())
}

func TestExerciseLog_SetField(t *testing.T) {
	var ex workout.ExerciseLog
	require.NoError(t, ex.SetField("weight", "70"))
	require.NoError(t, ex.SetField("reps", "5/5/5"))
	require.NoError(t, ex.SetField("wodName", "Fran"))
	assert.Equal(t, workout.ExerciseLog{Weight: "70", Reps: "5/5/5", WodName: "Fran"}, ex)

	assert.ErrorIs(t, ex.SetField("kilos", "1"), workout.ErrUnknownField)

	var running workout.RunningLog
	require.NoError(t, running.SetField("distance", "5.5"))
	require.NoError(t, running.SetField("sprintsCompleted", "8"))
	assert.Equal(t, "5.5", running.Distance)
	assert.Equal(t, "8", running.SprintsCompleted)
	assert.ErrorIs(t, running.SetField("speed", "1"), workout.ErrUnknownField)
}

func TestRunningLog_KeepsUnknownFields(t *testing.T) {
	doc := `{"distance": "8", "pace": "5:10", "surface": "trail", "splits": [5.2, 5.1]}`

	var running workout.RunningLog
	require.NoError(t, json.Unmarshal([]byte(doc), &running))
	assert.Equal(t, "8", running.Distance)
	assert.Equal(t, "5:10", running.Pace)
	require.Len(t, running.Extra, 2)
	assert.JSONEq(t, `"trail"`, string(running.Extra["surface"]))

	require.NoError(t, running.SetField("heartRate", "140"))
	runningJson, err := json.Marshal(running)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"distance": "8", "pace": "5:10", "heartRate": "140", "surface": "trail", "splits": [5.2, 5.1]
	}`, string(runningJson))

	var known workout.RunningLog
	require.NoError(t, json.Unmarshal([]byte(`{"duration": "30"}`), &known))
	assert.Equal(t, workout.RunningLog{Duration: "30"}, known)

	var bad workout.RunningLog
	assert.Error(t, json.Unmarshal([]byte(`{"distance": 8}`), &bad))
}

func TestLog_UnknownRunningFieldsSurviveRewrite(t *testing.T) {
	doc := `{"2024-01-09": {"completed": true, "running": {"distance": "5", "cadence": "172"}}}`

	workoutLog := workout.NewLog()
	require.NoError(t, json.Unmarshal([]byte(doc), workoutLog))
	logJson, err := json.Marshal(workoutLog)
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(logJson))
}
