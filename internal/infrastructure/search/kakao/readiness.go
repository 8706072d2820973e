package kakao

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const DefaultReadyTimeout = 10 * time.Second

// Readiness latches the first successful probe. Concurrent waiters share a
// single in-flight probe; a failed or timed-out probe is retried by the next
// waiter.
type Readiness struct {
	probe   func(context.Context) error
	timeout time.Duration

	ready atomic.Bool
	group singleflight.Group
}

func NewReadiness(probe func(context.Context) error, timeout time.Duration) *Readiness {
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	return &Readiness{probe: probe, timeout: timeout}
}

func (r *Readiness) Ready() bool {
	return r.ready.Load()
}

func (r *Readiness) Wait(ctx context.Context) error {
	if r.ready.Load() {
		return nil
	}
	if r.probe == nil {
		r.ready.Store(true)
		return nil
	}

	ch := r.group.DoChan("ready", func() (any, error) {
		probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		if err := r.probe(probeCtx); err != nil {
			return nil, err
		}
		r.ready.Store(true)
		return nil, nil
	})

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()
	select {
	case res := <-ch:
		return res.Err
	case <-timer.C:
		return fmt.Errorf("readiness probe timed out after %s", r.timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
