package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/workouttracker/internal/analytics"
	workoutmcp "github.com/2beens/workouttracker/internal/analytics/mcp"
	"github.com/2beens/workouttracker/internal/auth"
	"github.com/2beens/workouttracker/internal/config"
	"github.com/2beens/workouttracker/internal/db"
	"github.com/2beens/workouttracker/internal/export"
	"github.com/2beens/workouttracker/internal/jobs"
	"github.com/2beens/workouttracker/internal/middleware"
	"github.com/2beens/workouttracker/internal/misc"
	"github.com/2beens/workouttracker/internal/storage"
	"github.com/2beens/workouttracker/internal/telemetry/metrics"
	"github.com/2beens/workouttracker/internal/telemetry/tracing"
	"github.com/2beens/workouttracker/internal/workout"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	metricsNamespace = "workouts"
	metricsSubsystem = "main"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client

	syncStore    *storage.FallbackStore
	repo         *workout.Repo
	debouncer    *workout.Debouncer
	analyzer     *analytics.Analyzer
	loginChecker auth.Checker
	authService  *auth.Service
	rateLimiter  middleware.RequestRateLimiter
	scheduler    *jobs.Scheduler

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	PostgresUser            string
	PostgresPassword        string
	InitialPasswordHash     string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "workout-tracker", rdb)
	if err != nil {
		return nil, err
	}

	var (
		dbPool     *pgxpool.Pool
		remote     *storage.PsqlStore
		collectors []prometheus.Collector
	)
	if cfg.RemoteSyncEnabled {
		dbPool, remote = setupRemoteStore(ctx, cfg, params)
		if dbPool != nil {
			collectors = append(collectors, pgxpoolprometheus.NewCollector(
				dbPool,
				map[string]string{"db_name": cfg.PostgresDBName},
			))
		}
	}

	promRegistry := metrics.SetupPrometheus(collectors...)
	metricsManager := metrics.NewManager(metricsNamespace, metricsSubsystem, promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	var (
		local     storage.Store = storage.NewRedisStore(rdb)
		store                   = local
		syncStore *storage.FallbackStore
	)
	if remote != nil {
		syncStore = storage.NewFallbackStore(remote, local, metricsManager)
		store = syncStore
	}
	if cfg.StoreCacheSizeBytes > 0 {
		store = storage.NewCachedStore(store, cfg.StoreCacheSizeBytes, cfg.StoreCacheTTLSec)
	}

	var seedProgram workout.Program
	if cfg.ProgramSeedPath != "" {
		seedProgram, err = workout.LoadProgramFile(cfg.ProgramSeedPath)
		if err != nil {
			return nil, fmt.Errorf("load program seed: %w", err)
		}
		log.Infof("program seed loaded from %s", cfg.ProgramSeedPath)
	}

	s := &Server{
		config:      cfg,
		versionInfo: params.VersionInfo,
		dbPool:      dbPool,
		redisClient: rdb,
		syncStore:   syncStore,
		rateLimiter: redis_rate.NewLimiter(rdb),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}
	s.setupWorkouts(store, seedProgram)
	s.authService = auth.NewAuthService(auth.DefaultTTL, rdb, store, params.InitialPasswordHash, metricsManager)
	s.authService.HashCost = cfg.PasswordHashCost
	s.loginChecker = auth.NewLoginChecker(auth.DefaultTTL, rdb)

	if err := s.setupJobs(); err != nil {
		return nil, err
	}

	return s, nil
}

// setupRemoteStore connects the postgres sync backend. A failure only disables remote sync,
// the service keeps working on the local store.
func setupRemoteStore(ctx context.Context, cfg *config.Config, params NewServerParams) (*pgxpool.Pool, *storage.PsqlStore) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         params.PostgresUser,
		DBPassword:     params.PostgresPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		log.Warnf("remote sync disabled, db pool: %s", err)
		return nil, nil
	}

	remote := storage.NewPsqlStore(dbPool)
	if err := remote.Migrate(ctx); err != nil {
		log.Warnf("remote sync disabled, migrate: %s", err)
		dbPool.Close()
		return nil, nil
	}

	log.Infof("remote sync enabled: %s:%s/%s", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDBName)
	return dbPool, remote
}

func (s *Server) setupWorkouts(store storage.Store, seedProgram workout.Program) {
	s.repo = workout.NewRepo(store, seedProgram, s.metricsManager)
	s.debouncer = workout.NewDebouncer(s.repo, s.config.DebounceDuration(), s.metricsManager)
	s.analyzer = analytics.NewAnalyzer(s.repo, time.Now)
}

func (s *Server) setupJobs() error {
	s.scheduler = jobs.NewScheduler(jobs.DefaultJobTimeout)

	if err := s.scheduler.Add("sessions-cleanup", s.config.SessionsCleanupSchedule, s.authService.ScanAndClean); err != nil {
		return err
	}

	if s.syncStore != nil {
		if err := s.scheduler.Add("remote-sync", s.config.RemoteSyncSchedule, s.syncStore.Sync); err != nil {
			return err
		}
	}

	if s.config.BackupDir == "" {
		log.Warnln("backup dir not set, scheduled backups disabled")
		return nil
	}
	backup := jobs.NewBackup(s.repo, s.config.BackupDir, s.config.BackupKeep, s.metricsManager)
	return s.scheduler.Add("backup", s.config.BackupSchedule, backup.Run)
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	miscHandler := misc.NewHandler(s.versionInfo, s.authService)
	miscHandler.SetupRoutes(r, s.rateLimiter, s.config.LoginRateLimitAllowedPerMin, s.metricsManager)

	workout.NewHandler(s.repo, s.debouncer).SetupRoutes(r)
	analytics.NewHandler(s.analyzer).SetupRoutes(r)
	export.NewHandler(s.repo, s.metricsManager).SetupRoutes(r)

	mcpServer := workoutmcp.NewServer(s.analyzer, s.repo)
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, nil)
	r.Handle("/mcp", otelhttp.NewHandler(mcpHandler, "mcp")).
		Methods("GET", "POST", "DELETE", "OPTIONS").Name("mcp")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.LimitAndDrainRequest(s.config.MaxRequestBodyBytes))

	return r
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.scheduler.Start()
	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	// no more requests, write what is still waiting in the debouncer
	if err := s.debouncer.Flush(ctx); err != nil {
		log.Errorf("flush pending edits: %s", err)
	}

	s.scheduler.Stop()
	log.Trace("scheduler stopped ...")

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}
