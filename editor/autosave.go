package editor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultAutosaveInterval is how often editor state is written back.
const DefaultAutosaveInterval = 5 * time.Second

// Autosaver periodically writes a state snapshot to a Repository.
type Autosaver struct {
	repo     *Repository
	source   func() State
	interval time.Duration
	logger   *zap.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewAutosaver returns an Autosaver saving source() to repo every interval.
// A non-positive interval uses DefaultAutosaveInterval.
func NewAutosaver(repo *Repository, source func() State, interval time.Duration, logger *zap.Logger) *Autosaver {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Autosaver{
		repo:     repo,
		source:   source,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the save loop. It runs until ctx is done or Stop is
// called. Calls after the first are no-ops.
func (a *Autosaver) Start(ctx context.Context) {
	a.startOnce.Do(func() {
		ctx, a.cancel = context.WithCancel(ctx)
		go a.loop(ctx)
	})
}

func (a *Autosaver) loop(ctx context.Context) {
	defer close(a.done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Flush(ctx); err != nil && ctx.Err() == nil {
				a.logger.Warn("autosave failed", zap.String("key", a.repo.Key()), zap.Error(err))
			}
		}
	}
}

// Flush saves the current snapshot immediately.
func (a *Autosaver) Flush(ctx context.Context) error {
	return a.repo.Save(ctx, a.source())
}

// Stop ends the save loop, waits for it to exit and writes one final
// snapshot.
func (a *Autosaver) Stop() error {
	var err error
	a.stopOnce.Do(func() {
		// A Start after Stop must not relaunch the loop.
		a.startOnce.Do(func() {})
		if a.cancel != nil {
			a.cancel()
			<-a.done
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err = a.Flush(ctx)
	})
	return err
}
