// Package trigger provides the tick sources that drive periodic captures.
package trigger

import (
	"fmt"
	"time"

	"github.com/cjeanneret/ScreenGo/internal/debug"
)

// Source delivers capture ticks until stopped.
type Source interface {
	C() <-chan time.Time
	Stop()
}

// Interval ticks at a fixed rate. Its channel buffers a single tick; ticks
// that arrive while the previous one is still pending are dropped.
type Interval struct {
	ticker *time.Ticker
	period time.Duration
}

// NewInterval creates a source ticking rate times per second.
func NewInterval(rate int) (*Interval, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("rate must be > 0, got %d", rate)
	}
	period := Period(rate)
	debug.Info("Capture interval: %v (%d fps)", period, rate)
	return &Interval{
		ticker: time.NewTicker(period),
		period: period,
	}, nil
}

// Period returns the interval between ticks for rate ticks per second.
func Period(rate int) time.Duration {
	return time.Second / time.Duration(rate)
}

func (i *Interval) C() <-chan time.Time { return i.ticker.C }

func (i *Interval) Stop() { i.ticker.Stop() }

// Period returns the configured tick interval.
func (i *Interval) Period() time.Duration { return i.period }
