// Package timeutil supplies the frame clock for the host tick loop, with a
// hand-stepped implementation for tests.
package timeutil

import (
	"sync"
	"time"
)

// Clock is where the tick loop reads time and frame ticks from.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the part of time.Ticker the loop uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// FrameInterval converts a tick rate in Hz to the period between frames.
// Rates at or below zero return zero.
func FrameInterval(hz float64) time.Duration {
	if hz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / hz)
}

// RealClock reads the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) NewTicker(d time.Duration) Ticker {
	return wallTicker{time.NewTicker(d)}
}

// wallTicker exposes the embedded ticker's channel through a method.
type wallTicker struct{ *time.Ticker }

func (w wallTicker) C() <-chan time.Time { return w.Ticker.C }

// MockClock only moves when Advance is called. Tickers created from it fire
// during Advance.
type MockClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers map[*MockTicker]struct{}
}

// NewMockClock returns a clock frozen at start.
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start, tickers: make(map[*MockTicker]struct{})}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance steps the clock by d, then gives each live ticker that came due a
// chance to fire.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	due := make([]*MockTicker, 0, len(c.tickers))
	for tk := range c.tickers {
		due = append(due, tk)
	}
	c.mu.Unlock()

	for _, tk := range due {
		tk.fire(now)
	}
}

func (c *MockClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	tk := &MockTicker{
		clock:  c,
		ch:     make(chan time.Time, 1),
		period: d,
		next:   c.now.Add(d),
	}
	c.tickers[tk] = struct{}{}
	return tk
}

func (c *MockClock) forget(tk *MockTicker) {
	c.mu.Lock()
	delete(c.tickers, tk)
	c.mu.Unlock()
}

// MockTicker belongs to a MockClock. Its channel holds one tick; ticks that
// arrive while it is full are dropped, as with time.Ticker.
type MockTicker struct {
	clock *MockClock
	ch    chan time.Time

	mu     sync.Mutex
	period time.Duration
	next   time.Time
}

func (t *MockTicker) C() <-chan time.Time { return t.ch }

// Stop detaches the ticker from its clock. A tick already buffered stays
// readable.
func (t *MockTicker) Stop() { t.clock.forget(t) }

func (t *MockTicker) fire(now time.Time) {
	t.mu.Lock()
	if now.Before(t.next) {
		t.mu.Unlock()
		return
	}
	if t.period > 0 {
		missed := now.Sub(t.next) / t.period
		t.next = t.next.Add((missed + 1) * t.period)
	} else {
		t.next = now
	}
	t.mu.Unlock()

	select {
	case t.ch <- now:
	default:
	}
}
