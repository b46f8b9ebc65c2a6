// Package main runs the workout analytics MCP server over stdio (for local MCP clients).
// The same MCP server is also mounted on the main backend at /mcp over HTTP,
// so either works: stdio (this cmd) or the backend URL.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2beens/workouttracker/internal/analytics"
	workoutmcp "github.com/2beens/workouttracker/internal/analytics/mcp"
	"github.com/2beens/workouttracker/internal/config"
	"github.com/2beens/workouttracker/internal/db"
	"github.com/2beens/workouttracker/internal/logging"
	"github.com/2beens/workouttracker/internal/storage"
	"github.com/2beens/workouttracker/internal/telemetry/metrics"
	"github.com/2beens/workouttracker/internal/workout"

	"github.com/go-redis/redis/v8"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development | ddev | dockerdev]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	// stdout carries the MCP protocol, logs go to stderr
	log.SetOutput(os.Stderr)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.SetLevel(logging.GetLevel(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: os.Getenv("WORKOUT_TRACKER_REDIS_PASS"),
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Errorf("close redis client: %s", err)
		}
	}()

	// nothing scrapes this process, the registry only satisfies the stores and the repo
	metricsManager := metrics.NewManager("workouts", "mcp", prometheus.NewRegistry())

	var store storage.Store = storage.NewRedisStore(rdb)
	if cfg.RemoteSyncEnabled {
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:     cfg.PostgresHost,
			DBPort:     cfg.PostgresPort,
			DBName:     cfg.PostgresDBName,
			DBUser:     os.Getenv("WORKOUT_TRACKER_DB_USER"),
			DBPassword: os.Getenv("WORKOUT_TRACKER_DB_PASS"),
		})
		if err != nil {
			log.Warnf("remote sync disabled, db pool: %s", err)
		} else {
			defer dbPool.Close()
			store = storage.NewFallbackStore(storage.NewPsqlStore(dbPool), store, metricsManager)
		}
	}

	repo := workout.NewRepo(store, nil, metricsManager)
	analyzer := analytics.NewAnalyzer(repo, time.Now)
	server := workoutmcp.NewServer(analyzer, repo)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}
