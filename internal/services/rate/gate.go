package rate

import (
	"context"
	"sync"
	"time"
)

// Gate enforces a minimum interval between sequential calls to an upstream
// API. One caller at a time: the video pipeline analyzes frames strictly in
// order, so the gate is a pacing device, not a concurrency limiter.
type Gate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func NewGate(interval time.Duration) *Gate {
	if interval < 0 {
		interval = 0
	}

	return &Gate{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Wait blocks until at least the configured interval has passed since the
// previous Wait returned. The first call never blocks.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.interval > 0 && !g.last.IsZero() {
		elapsed := g.now().Sub(g.last)
		if remaining := g.interval - elapsed; remaining > 0 {
			if err := g.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}

	g.last = g.now()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
