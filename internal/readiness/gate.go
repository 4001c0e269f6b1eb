// Package readiness gates audit-log writes on persistence initialization.
// The bound is deliberately loose: the gate only protects logging, never the
// delivery itself, so a slow database costs audit rows rather than sends.
package readiness

import (
	"context"
	"time"
)

const (
	defaultMaxAttempts  = 20
	defaultInitialDelay = 50 * time.Millisecond
	defaultDelayCap     = 2 * time.Second
	backoffFactor       = 1.5
)

// Probe reports whether the persistence layer has finished initializing.
type Probe interface {
	IsReady() bool
}

// ProbeFunc adapts a plain predicate to the Probe interface.
type ProbeFunc func() bool

func (f ProbeFunc) IsReady() bool { return f() }

// Gate polls a Probe with capped exponential backoff.
type Gate struct {
	probe        Probe
	maxAttempts  int
	initialDelay time.Duration
	delayCap     time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewGate(probe Probe) *Gate {
	return &Gate{
		probe:        probe,
		maxAttempts:  defaultMaxAttempts,
		initialDelay: defaultInitialDelay,
		delayCap:     defaultDelayCap,
		sleep:        sleepWithContext,
	}
}

// AwaitReady polls until the probe reports ready or the attempt budget runs
// out. Each failed check sleeps the current delay, then grows it by 1.5x up
// to the cap. Returns false when the budget is exhausted or the context ends;
// callers degrade to skipping the log write, never to failing the send.
func (g *Gate) AwaitReady(ctx context.Context) bool {
	if g == nil || g.probe == nil {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	delay := g.initialDelay
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if g.probe.IsReady() {
			return true
		}
		if attempt == g.maxAttempts {
			break
		}

		if err := g.sleep(ctx, delay); err != nil {
			return false
		}

		delay = time.Duration(float64(delay) * backoffFactor)
		if delay > g.delayCap {
			delay = g.delayCap
		}
	}

	return false
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
