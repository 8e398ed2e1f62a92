package cache

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepInterval bounds memory growth even without read traffic that
// would trigger lazy eviction.
const DefaultSweepInterval = 60 * time.Second

// Sweepable is any cache the background sweeper can expire entries from.
type Sweepable interface {
	Sweep() int
}

// Sweeper periodically removes expired entries from a set of caches.
type Sweeper struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewSweeper schedules a sweep of the given caches on a fixed interval.
// Call Start to begin and Stop to shut down.
func NewSweeper(interval time.Duration, logger *slog.Logger, caches ...Sweepable) (*Sweeper, error) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		for _, target := range caches {
			if removed := target.Sweep(); removed > 0 {
				logger.Debug("cache sweep removed expired entries", "removed", removed)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	return &Sweeper{cron: c, logger: logger}, nil
}

// Start begins the sweep schedule in its own goroutine.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
