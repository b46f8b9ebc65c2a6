package analytics

import (
	"context"
	"time"

	"github.com/2beens/workouttracker/internal/telemetry/tracing"
	"github.com/2beens/workouttracker/internal/workout"

	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=analyzer_mocks_test.go -package=analytics_test

type workoutSource interface {
	Logs(ctx context.Context) (*workout.Log, error)
	Program(ctx context.Context) (workout.Program, error)
}

// Analyzer runs the analytics functions against the current workout log.
// Nothing is cached, every call reads the log again.
type Analyzer struct {
	source workoutSource
	now    func() time.Time
}

func NewAnalyzer(source workoutSource, now func() time.Time) *Analyzer {
	if now == nil {
		now = time.Now
	}
	return &Analyzer{
		source: source,
		now:    now,
	}
}

func (a *Analyzer) Today() time.Time {
	return workout.CalendarDay(a.now())
}

func (a *Analyzer) Stats(ctx context.Context, from, to time.Time) (_ Stats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.stats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("from", workout.DateKey(from)),
		attribute.String("to", workout.DateKey(to)),
	)

	log, err := a.source.Logs(ctx)
	if err != nil {
		return Stats{}, err
	}
	return DateRangeStats(log, from, to), nil
}

func (a *Analyzer) Streak(ctx context.Context) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.streak")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	log, err := a.source.Logs(ctx)
	if err != nil {
		return 0, err
	}
	return Streak(log, a.Today()), nil
}

func (a *Analyzer) Volume(ctx context.Context, exerciseName string) (_ []VolumeEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.volume")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise", exerciseName))

	log, err := a.source.Logs(ctx)
	if err != nil {
		return nil, err
	}
	return Volume(log, exerciseName), nil
}

func (a *Analyzer) PersonalRecords(ctx context.Context) (_ map[string]Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.personal_records")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	log, err := a.source.Logs(ctx)
	if err != nil {
		return nil, err
	}
	return PersonalRecords(log), nil
}

func (a *Analyzer) RunningStats(ctx context.Context, runType string) (_ []RunningSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.running_stats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("type", runType))

	log, err := a.source.Logs(ctx)
	if err != nil {
		return nil, err
	}
	return RunningStats(log, runType), nil
}

func (a *Analyzer) Distribution(ctx context.Context) (_ map[string]int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.distribution")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	log, err := a.source.Logs(ctx)
	if err != nil {
		return nil, err
	}
	program, err := a.source.Program(ctx)
	if err != nil {
		return nil, err
	}
	return Distribution(log, program), nil
}

func (a *Analyzer) WeeklyProgress(ctx context.Context, weeksBack int) (_ []WeekStats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.weekly_progress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("weeks", weeksBack))

	log, err := a.source.Logs(ctx)
	if err != nil {
		return nil, err
	}
	return WeeklyProgress(log, weeksBack, a.Today()), nil
}

func (a *Analyzer) RecentActivity(ctx context.Context, days int) (_ Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.recent_activity")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("days", days))

	log, err := a.source.Logs(ctx)
	if err != nil {
		return Activity{}, err
	}
	return RecentActivity(log, days, a.Today()), nil
}

func (a *Analyzer) History(ctx context.Context, limit int) (_ []DatedEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.history")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("limit", limit))

	log, err := a.source.Logs(ctx)
	if err != nil {
		return nil, err
	}
	return History(log, limit), nil
}

func (a *Analyzer) Dashboard(ctx context.Context) (_ *Dashboard, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.dashboard")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	log, err := a.source.Logs(ctx)
	if err != nil {
		return nil, err
	}
	program, err := a.source.Program(ctx)
	if err != nil {
		return nil, err
	}

	dashboard := BuildDashboard(log, program, a.Today())
	return &dashboard, nil
}
