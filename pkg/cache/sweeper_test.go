package cache_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/mizuage/kioku/pkg/cache"
	"github.com/mizuage/kioku/pkg/utils/logging"
)

type countingSweepable struct {
	sweeps atomic.Int32
}

func (c *countingSweepable) Sweep() int {
	c.sweeps.Add(1)
	return 0
}

func TestSweeperRunsPeriodically(t *testing.T) {
	target := &countingSweepable{}

	sweeper, err := cache.NewSweeper(10*time.Millisecond, logging.Default(), target)
	gt.NoError(t, err)

	sweeper.Start()
	defer sweeper.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for target.sweeps.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper did not run within deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSweeperRemovesExpiredEntries(t *testing.T) {
	clock := newFakeClock()
	embedding := cache.NewEmbedding(
		cache.Policy{TTL: time.Minute, MaxEntries: 10},
		logging.Default(),
		cache.WithClock[[]float32](clock.Now),
	)

	embedding.Set("stale", []float32{0.1})
	clock.Advance(2 * time.Minute)
	embedding.Set("fresh", []float32{0.2})

	gt.Equal(t, embedding.Sweep(), 1)
	gt.Equal(t, embedding.Stats().Entries, 1)

	_, ok := embedding.Get("fresh")
	gt.True(t, ok)
}

func TestSweeperDefaultInterval(t *testing.T) {
	sweeper, err := cache.NewSweeper(0, logging.Default(), &countingSweepable{})
	gt.NoError(t, err)
	sweeper.Start()
	sweeper.Stop()
}
