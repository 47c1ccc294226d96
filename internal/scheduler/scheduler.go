package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-history/internal/export"
	"github.com/i474232898/weather-history/internal/weather"
)

// HistorySource is the read side of the history used for snapshots.
type HistorySource interface {
	ListHistory(ctx context.Context) ([]weather.HistoryRecord, error)
}

// Scheduler periodically writes a JSON snapshot of the full history to a directory.
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    HistorySource
	dir       string
	interval  time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// New creates a new Scheduler. An empty dir disables snapshots.
func New(dir string, interval time.Duration, source HistorySource, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		source:    source,
		dir:       dir,
		interval:  interval,
		log:       log.Named("scheduler"),
		now:       time.Now,
	}
}

// Start schedules the snapshot job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.dir == "" {
		s.log.Info("no export directory configured; snapshots disabled")
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	interval := s.interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	// The first snapshot is taken one interval after start.
	_, err := s.scheduler.Every(interval).WaitForSchedule().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		path, err := s.RunOnce(ctx)
		if err != nil {
			s.log.Error("history snapshot failed", zap.Error(err))
			return
		}
		s.log.Info("history snapshot written", zap.String("path", path))
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce writes one snapshot and returns its path. The file appears atomically.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	records, err := s.source.ListHistory(ctx)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("weather-history-%s.json", s.now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := export.WriteJSON(tmp, records); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish snapshot: %w", err)
	}
	return path, nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
