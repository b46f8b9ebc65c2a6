package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/workouttracker/internal/telemetry/tracing"

	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
)

const DefaultJobTimeout = 5 * time.Minute

// Scheduler runs named jobs on cron specs ("@daily", "@every 8h", "0 30 3 * * *").
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

func NewScheduler(timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	return &Scheduler{
		cron:    cron.New(),
		timeout: timeout,
	}
}

func (s *Scheduler) Add(name, spec string, job func(ctx context.Context) error) error {
	if err := s.cron.AddFunc(spec, func() {
		s.run(name, job)
	}); err != nil {
		return fmt.Errorf("add job [%s] with spec [%s]: %w", name, spec, err)
	}
	log.Debugf("job [%s] scheduled: %s", name, spec)
	return nil
}

func (s *Scheduler) run(name string, job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	ctx, span := tracing.GlobalTracer.Start(ctx, "job."+name)
	var err error
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	start := time.Now()
	if err = job(ctx); err != nil {
		log.Errorf("job [%s] failed after %s: %s", name, time.Since(start), err)
		return
	}
	log.Debugf("job [%s] done in %s", name, time.Since(start))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
