package misc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/2beens/workouttracker/internal/auth"
	"github.com/2beens/workouttracker/internal/middleware"
	"github.com/2beens/workouttracker/internal/misc"
	"github.com/2beens/workouttracker/internal/storage"
	"github.com/2beens/workouttracker/internal/telemetry/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

// testpass
const testPasswordSHA = "13d249f2cb4127b40cfa757866850278793f814ded3c587fe5889e889a7a9f6c"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

type testRequestRateLimiter struct {
	// key to remaining requests
	Limits map[string]int
}

func (l *testRequestRateLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	res := &redis_rate.Result{Limit: limit}
	if l.Limits[key] <= 0 {
		return res, nil
	}
	res.Allowed = 1
	l.Limits[key]--
	return res, nil
}

func newRouter(authSvc interface {
	Login(ctx context.Context, password string, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
}, limiter middleware.RequestRateLimiter) *mux.Router {
	r := mux.NewRouter()
	misc.NewHandler("v1.2.3", authSvc).SetupRoutes(r, limiter, 10, metrics.NewTestManager())
	return r
}

func TestNewMiscHandler_Routes(t *testing.T) {
	mainRouter := newRouter(nil, nil)

	for caseName, route := range map[string]struct {
		name   string
		path   string
		method string
	}{
		"root-get":        {name: "root", path: "/", method: "GET"},
		"root-options":    {name: "root", path: "/", method: "OPTIONS"},
		"version":         {name: "version", path: "/version", method: "GET"},
		"login":           {name: "login", path: "/a/login", method: "POST"},
		"logout":          {name: "logout", path: "/a/logout", method: "GET"},
		"logout-options":  {name: "logout", path: "/a/logout", method: "OPTIONS"},
		"change-password": {name: "change-password", path: "/a/password", method: "POST"},
	} {
		t.Run(caseName, func(t *testing.T) {
			req, err := http.NewRequest(route.method, route.path, nil)
			require.NoError(t, err)

			routeMatch := &mux.RouteMatch{}
			r := mainRouter.Get(route.name)
			require.NotNil(t, r)
			assert.True(t, r.Match(req, routeMatch), caseName)
		})
	}
}

func TestHandler_RootAndVersion(t *testing.T) {
	r := newRouter(nil, nil)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/version", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "v1.2.3", rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHandler_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	authSvc := NewMockauthService(ctrl)
	limiter := &testRequestRateLimiter{Limits: map[string]int{"login": 10}}
	r := newRouter(authSvc, limiter)

	authSvc.EXPECT().Login(gomock.Any(), "secret", gomock.Any()).Return("tok-1", nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/a/login", strings.NewReader(`{"password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp misc.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "tok-1", resp.Token)

	authSvc.EXPECT().Login(gomock.Any(), "nope", gomock.Any()).Return("", auth.ErrWrongPassword)
	rr = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/a/login", strings.NewReader(`{"password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	authSvc.EXPECT().Login(gomock.Any(), "secret", gomock.Any()).Return("", errors.New("redis down"))
	rr = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/a/login", strings.NewReader(url.Values{"password": {"secret"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	// empty password never reaches the service
	rr = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/a/login", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/a/login", strings.NewReader(`{bad`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)
	authSvc := NewMockauthService(ctrl)
	limiter := &testRequestRateLimiter{Limits: map[string]int{"login": 10}}
	r := newRouter(authSvc, limiter)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/a/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	authSvc.EXPECT().Logout(gomock.Any(), "tok-1").Return(nil)
	rr = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/a/logout", nil)
	req.Header.Set(middleware.TokenHeader, "tok-1")
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "logged-out", rr.Body.String())

	authSvc.EXPECT().Logout(gomock.Any(), "tok-1").Return(auth.ErrNoSession)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandler_ChangePassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	authSvc := NewMockauthService(ctrl)
	limiter := &testRequestRateLimiter{Limits: map[string]int{"login": 10}}
	r := newRouter(authSvc, limiter)

	body := `{"currentPassword":"old","newPassword":"new"}`

	authSvc.EXPECT().ChangePassword(gomock.Any(), "old", "new").Return(nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/a/password", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rr.Code)

	authSvc.EXPECT().ChangePassword(gomock.Any(), "old", "new").Return(auth.ErrWrongPassword)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/a/password", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	authSvc.EXPECT().ChangePassword(gomock.Any(), "old", "").Return(auth.ErrEmptyPassword)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/a/password", strings.NewReader(`{"currentPassword":"old"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/a/password", strings.NewReader(`nope`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// Full login flow against a real session store, the same middleware stack as the server.
func TestLoginFlow_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() {
		assert.NoError(t, rdb.Close())
	}()

	authService := auth.NewAuthService(time.Hour, rdb, storage.NewMemoryStore(), testPasswordSHA, nil)
	authService.RandStringFunc = func(s int) (string, error) {
		return "test_token", nil
	}

	limiter := &testRequestRateLimiter{Limits: map[string]int{"login": 2}}
	r := mux.NewRouter()
	r.Use(middleware.NewAuthMiddlewareHandler(auth.NewLoginChecker(time.Hour, rdb)).AuthCheck())
	misc.NewHandler("dev", authService).SetupRoutes(r, limiter, 2, metrics.NewTestManager())

	loginReq := func() *http.Request {
		req := httptest.NewRequest("POST", "/a/login", strings.NewReader(`{"password":"testpass"}`))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, loginReq())
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"token":"test_token"}`, rr.Body.String())
	assert.True(t, mr.Exists("workout-tracker-session||test_token"))

	// password change needs a live session
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/a/password", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// rejected before reaching the rate limiter, one login is left
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, loginReq())
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, loginReq())
	assert.Equal(t, http.StatusTooEarly, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "retry after"))

	limiter.Limits["login"] = 1
	rr = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/a/logout", nil)
	req.Header.Set(middleware.TokenHeader, "test_token")
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, mr.Exists("workout-tracker-session||test_token"))
}
