package test

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestLogin() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, status := login(ctx, t, "bad-password")
	assert.Equal(t, http.StatusUnauthorized, status)

	_, status = login(ctx, t, "")
	assert.Equal(t, http.StatusBadRequest, status)

	token := doLogin(ctx, t)

	status, _ = doRequest(ctx, t, "GET", "/analytics/streak", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := doRequest(ctx, t, "GET", "/a/logout", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "logged-out", string(body))

	status, _ = doRequest(ctx, t, "GET", "/analytics/streak", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func (s *IntegrationTestSuite) TestChangePassword() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := doLogin(ctx, t)

	status, _ := doRequest(ctx, t, "POST", "/a/password", token, map[string]string{
		"currentPassword": "wrong",
		"newPassword":     "new-secret",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(ctx, t, "POST", "/a/password", token, map[string]string{
		"currentPassword": testPassword,
		"newPassword":     "new-secret",
	})
	require.Equal(t, http.StatusOK, status)

	// the new hash is synced to the remote store too
	stored, err := s.remoteValue("password_hash")
	require.NoError(t, err)
	assert.Contains(t, stored, "$2a$")

	_, status = login(ctx, t, testPassword)
	assert.Equal(t, http.StatusUnauthorized, status)
	newToken, status := login(ctx, t, "new-secret")
	require.Equal(t, http.StatusOK, status)

	// restore for the other tests
	status, _ = doRequest(ctx, t, "POST", "/a/password", newToken, map[string]string{
		"currentPassword": "new-secret",
		"newPassword":     testPassword,
	})
	require.Equal(t, http.StatusOK, status)
}
