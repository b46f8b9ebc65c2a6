package workout

import (
	"context"
	"sync"
	"time"

	"github.com/2beens/workouttracker/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

//go:generate mockgen -source=$GOFILE -destination=debouncer_mocks_test.go -package=workout_test

type editsWriter interface {
	ApplyEdits(ctx context.Context, date string, edits Edits) (LogEntry, error)
}

type pendingEdits struct {
	edits Edits
	timer *time.Timer
}

// Debouncer collects per-field edits of a date and writes them as one update once no
// new edit arrived for the configured delay.
type Debouncer struct {
	writer         editsWriter
	delay          time.Duration
	metricsManager *metrics.Manager

	mutex   sync.Mutex
	pending map[string]*pendingEdits
	// writes started by timers, idle is broadcast when it drops to zero
	inFlight int
	idle     *sync.Cond
}

func NewDebouncer(writer editsWriter, delay time.Duration, metricsManager *metrics.Manager) *Debouncer {
	d := &Debouncer{
		writer:         writer,
		delay:          delay,
		metricsManager: metricsManager,
		pending:        make(map[string]*pendingEdits),
	}
	d.idle = sync.NewCond(&d.mutex)
	return d
}

// EditExercise queues a change of one exercise slot field.
func (d *Debouncer) EditExercise(date, slot, field, value string) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	var check ExerciseLog
	if err := check.SetField(field, value); err != nil {
		return err
	}

	d.queue(date, func(edits *Edits) {
		if edits.Exercises == nil {
			edits.Exercises = make(map[string]map[string]string)
		}
		if edits.Exercises[slot] == nil {
			edits.Exercises[slot] = make(map[string]string)
		}
		edits.Exercises[slot][field] = value
	})
	return nil
}

// EditRunning queues a change of one running field.
func (d *Debouncer) EditRunning(date, field, value string) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	var check RunningLog
	if err := check.SetField(field, value); err != nil {
		return err
	}

	d.queue(date, func(edits *Edits) {
		if edits.Running == nil {
			edits.Running = make(map[string]string)
		}
		edits.Running[field] = value
	})
	return nil
}

// EditNotes queues a change of the general notes of a date.
func (d *Debouncer) EditNotes(date, notes string) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}

	d.queue(date, func(edits *Edits) {
		edits.Notes = &notes
	})
	return nil
}

func (d *Debouncer) queue(date string, add func(edits *Edits)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	p, ok := d.pending[date]
	if !ok {
		p = &pendingEdits{}
		d.pending[date] = p
	} else {
		p.timer.Stop()
	}
	add(&p.edits)

	p.timer = time.AfterFunc(d.delay, func() {
		d.fire(date, p)
	})
	d.metricsManager.GaugePendingEdits.Set(float64(len(d.pending)))
}

func (d *Debouncer) fire(date string, p *pendingEdits) {
	d.mutex.Lock()
	if d.pending[date] != p {
		// flushed or superseded meanwhile
		d.mutex.Unlock()
		return
	}
	delete(d.pending, date)
	d.inFlight++
	d.metricsManager.GaugePendingEdits.Set(float64(len(d.pending)))
	d.mutex.Unlock()

	defer func() {
		d.mutex.Lock()
		d.inFlight--
		if d.inFlight == 0 {
			d.idle.Broadcast()
		}
		d.mutex.Unlock()
	}()

	if _, err := d.writer.ApplyEdits(context.Background(), date, p.edits); err != nil {
		log.Errorf("debounced write of [%s] failed: %s", date, err)
	}
}

// Pending returns the number of dates with edits not yet written.
func (d *Debouncer) Pending() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.pending)
}

// Flush writes all pending edits now and waits for writes already started.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.mutex.Lock()
	toWrite := d.pending
	d.pending = make(map[string]*pendingEdits)
	for _, p := range toWrite {
		p.timer.Stop()
	}
	d.metricsManager.GaugePendingEdits.Set(0)
	d.mutex.Unlock()

	var err error
	for date, p := range toWrite {
		if p.edits.Empty() {
			continue
		}
		if _, writeErr := d.writer.ApplyEdits(ctx, date, p.edits); writeErr != nil {
			err = multierr.Append(err, writeErr)
		}
	}

	d.mutex.Lock()
	for d.inFlight > 0 {
		d.idle.Wait()
	}
	d.mutex.Unlock()

	if len(toWrite) > 0 {
		log.Debugf("debouncer flushed %d pending dates", len(toWrite))
	}
	return err
}
