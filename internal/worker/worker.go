// Package worker keeps the published feed fresh: it refreshes on a fixed
// interval and once a day shortly after midnight, when the window of days
// moves.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/ibad-al-rahman/azan/internal/config"
	"github.com/ibad-al-rahman/azan/internal/engine"
)

// Syncer produces the feed. *engine.Generator implements it.
type Syncer interface {
	RunSync(ctx context.Context, cfg engine.SyncConfig) ([]byte, []engine.Place, error)
}

// Publisher receives each successfully generated feed.
type Publisher interface {
	Update(data []byte)
}

// Worker runs the sync pipeline on a schedule.
type Worker struct {
	Syncer    Syncer
	Publisher Publisher

	// Config is read before every run, so that a rotated keyring password
	// is picked up without restart.
	Config func() engine.SyncConfig

	// Interval between refreshes. config.DisabledInterval keeps only the
	// daily run.
	Interval time.Duration

	// DailyAt is the "HH:MM" wall-clock time of the rollover run in Location.
	DailyAt  string
	Location *time.Location

	mu     sync.RWMutex
	places []engine.Place
}

// Run performs a first refresh, then schedules the next ones. It blocks
// until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	dailyAt := w.DailyAt
	if dailyAt == "" {
		dailyAt = config.DailyRefreshAt
	}

	w.Refresh(ctx)

	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()

	if w.Interval > config.DisabledInterval {
		if _, err := s.Every(w.Interval).WaitForSchedule().Do(w.Refresh, ctx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrWorkerSchedule, err)
		}
	}
	if _, err := s.Every(1).Day().At(dailyAt).Do(w.Refresh, ctx); err != nil {
		return fmt.Errorf("%s: %w", config.ErrWorkerSchedule, err)
	}

	s.StartAsync()
	log.Info(config.MsgWorkerStart,
		config.LogKeyInterval, w.Interval.String(),
		config.LogKeyDailyAt, dailyAt,
	)

	<-ctx.Done()
	s.Stop()
	log.Info(config.MsgWorkerStop)
	return nil
}

// Refresh runs one synchronization and publishes its result. It reports
// whether the feed was replaced.
func (w *Worker) Refresh(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	slog.Debug(config.MsgWorkerRun, config.LogKeyComponent, config.CompWorker)

	ics, places, err := w.Syncer.RunSync(ctx, w.Config())
	if err != nil {
		slog.Error(config.ErrSyncFailed,
			config.LogKeyComponent, config.CompWorker,
			config.LogKeyError, err,
		)
		return false
	}

	w.mu.Lock()
	w.places = places
	w.mu.Unlock()

	w.Publisher.Update(ics)
	return true
}

// Places returns the places of the last successful refresh.
func (w *Worker) Places() []engine.Place {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]engine.Place, len(w.places))
	copy(out, w.places)
	return out
}
