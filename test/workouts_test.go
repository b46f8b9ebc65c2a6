package test

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestLogAndAnalytics() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := doLogin(ctx, t)

	today := time.Now().UTC()
	yesterday := today.AddDate(0, 0, -1)
	for _, day := range []time.Time{yesterday, today} {
		status, body := doRequest(ctx, t, "PUT", "/logs/"+day.Format("2006-01-02"), token, map[string]any{
			"completed": true,
			"exercises": map[string]any{
				"0": map[string]any{"weight": "100", "reps": "5", "sets": "3"},
			},
		})
		require.Equal(t, http.StatusOK, status, string(body))
	}

	status, body := doRequest(ctx, t, "GET", "/analytics/streak", token, nil)
	require.Equal(t, http.StatusOK, status)
	var streak struct {
		Streak int `json:"streak"`
	}
	require.NoError(t, json.Unmarshal(body, &streak))
	assert.GreaterOrEqual(t, streak.Streak, 2)

	status, body = doRequest(ctx, t, "GET", "/analytics/dashboard", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "streak")

	// the log went through the remote store as well
	remoteLogs, err := s.remoteValue("workout_logs")
	require.NoError(t, err)
	assert.Contains(t, remoteLogs, today.Format("2006-01-02"))
	assert.Contains(t, remoteLogs, yesterday.Format("2006-01-02"))
}

func (s *IntegrationTestSuite) TestExportImport() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := doLogin(ctx, t)

	date := "2023-05-02"
	status, _ := doRequest(ctx, t, "PUT", "/logs/"+date, token, map[string]any{"completed": false})
	require.Equal(t, http.StatusOK, status)

	status, exported := doRequest(ctx, t, "GET", "/export", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(exported), date)

	status, _ = doRequest(ctx, t, "DELETE", "/logs/"+date, token, nil)
	require.Equal(t, http.StatusOK, status)
	status, afterDelete := doRequest(ctx, t, "GET", "/export", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(afterDelete), date)

	var bundle map[string]any
	require.NoError(t, json.Unmarshal(exported, &bundle))
	status, body := doRequest(ctx, t, "POST", "/import", token, bundle)
	require.Equal(t, http.StatusOK, status, string(body))

	status, afterImport := doRequest(ctx, t, "GET", "/export", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(afterImport), date)
}
