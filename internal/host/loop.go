package host

import (
	"context"
	"sync"
	"time"

	"github.com/banshee-data/gaze.bridge/internal/input"
	"github.com/banshee-data/gaze.bridge/internal/monitoring"
	"github.com/banshee-data/gaze.bridge/internal/timeutil"
)

// Driver is what the loop needs from a tracker driver.
type Driver interface {
	ShouldInitialize() bool
	RegisterInputs(host input.Host) error
	UpdateInputs(dt float64) error
}

// LoopStats counts loop activity.
type LoopStats struct {
	Ticks  int64 `json:"ticks"`
	Errors int64 `json:"errors"`
	Active int   `json:"active_drivers"`
}

// Loop initializes drivers against an Input and ticks them at a fixed rate.
type Loop struct {
	input  *Input
	clock  timeutil.Clock
	period time.Duration

	mu      sync.Mutex
	drivers []Driver
	active  []Driver
	stats   LoopStats
}

// NewLoop ticks drivers at rateHz. A nil clock uses the wall clock.
func NewLoop(in *Input, clock timeutil.Clock, rateHz float64, drivers ...Driver) *Loop {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if rateHz <= 0 {
		rateHz = 90
	}
	return &Loop{
		input:   in,
		clock:   clock,
		period:  timeutil.FrameInterval(rateHz),
		drivers: drivers,
	}
}

// Period returns the tick interval.
func (l *Loop) Period() time.Duration { return l.period }

// Init registers every driver that asks to be initialized. A driver whose
// registration fails is logged and left out of the tick; the others carry
// on. It returns the number of active drivers.
func (l *Loop) Init() int {
	var active []Driver
	for i, d := range l.drivers {
		if !d.ShouldInitialize() {
			monitoring.Logf("host: driver %d (%T) not initialized", i, d)
			continue
		}
		if err := d.RegisterInputs(l.input); err != nil {
			monitoring.Logf("host: driver %d (%T) failed to register: %v", i, d, err)
			continue
		}
		active = append(active, d)
	}

	l.mu.Lock()
	l.active = active
	l.stats.Active = len(active)
	l.mu.Unlock()
	return len(active)
}

// Tick runs UpdateInputs on every active driver with dt seconds. Errors are
// logged and do not stop the other drivers.
func (l *Loop) Tick(dt float64) {
	l.mu.Lock()
	active := l.active
	l.stats.Ticks++
	l.mu.Unlock()

	for _, d := range active {
		if err := d.UpdateInputs(dt); err != nil {
			l.mu.Lock()
			l.stats.Errors++
			l.mu.Unlock()
			monitoring.Logf("host: %T update failed: %v", d, err)
		}
	}
}

// Run ticks until ctx is cancelled. dt is measured on the loop's clock.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clock.NewTicker(l.period)
	defer ticker.Stop()

	last := l.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			dt := now.Sub(last).Seconds()
			last = now
			l.Tick(dt)
		}
	}
}

// Stats returns the loop counters.
func (l *Loop) Stats() LoopStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}
