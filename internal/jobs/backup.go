package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/2beens/workouttracker/internal/export"
	"github.com/2beens/workouttracker/internal/telemetry/metrics"
	"github.com/2beens/workouttracker/internal/workout"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=backup_mocks_test.go -package=jobs_test

type bundleExporter interface {
	Export(ctx context.Context) (*workout.Bundle, error)
}

// Backup writes the export bundle into dir as workout-tracker-backup-YYYY-MM-DD.json.
// A second run on the same day overwrites that day's file.
type Backup struct {
	repo           bundleExporter
	dir            string
	keep           int
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewBackup(repo bundleExporter, dir string, keep int, metricsManager *metrics.Manager) *Backup {
	return &Backup{
		repo:           repo,
		dir:            dir,
		keep:           keep,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

func (b *Backup) SetClock(now func() time.Time) {
	b.now = now
}

func (b *Backup) Run(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		b.metricsManager.HistBackupDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			b.metricsManager.CounterBackups.WithLabelValues("failure").Inc()
		} else {
			b.metricsManager.CounterBackups.WithLabelValues("success").Inc()
		}
	}()

	bundle, err := b.repo.Export(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	bundleJson, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(b.dir, export.FileName(b.now(), export.FormatJSON))
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, bundleJson, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename backup: %w", err)
	}
	log.Infof("backup written: %s (%d bytes)", path, len(bundleJson))

	if err := b.prune(); err != nil {
		log.Errorf("prune backups: %s", err)
	}
	return nil
}

// prune removes the oldest backups beyond keep. File names sort by date.
func (b *Backup) prune() error {
	if b.keep <= 0 {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(b.dir, "workout-tracker-backup-*.json"))
	if err != nil {
		return err
	}
	if len(files) <= b.keep {
		return nil
	}

	sort.Strings(files)
	for _, file := range files[:len(files)-b.keep] {
		if err := os.Remove(file); err != nil {
			return err
		}
		log.Debugf("old backup removed: %s", file)
	}
	return nil
}
