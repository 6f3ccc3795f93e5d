package oscnet

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"tailscale.com/tsweb"

	"github.com/banshee-data/gaze.bridge/internal/monitoring"
)

// Stats tracks receive statistics with thread-safe operations. Interval
// counters reset on every LogStats; totals never reset.
type Stats struct {
	mu        sync.Mutex
	packets   int64
	bytes     int64
	messages  int64
	malformed int64
	dropped   int64
	lastReset time.Time
	totals    Totals
}

// Totals are the lifetime counters.
type Totals struct {
	Packets   int64 `json:"packets"`
	Bytes     int64 `json:"bytes"`
	Messages  int64 `json:"messages"`
	Malformed int64 `json:"malformed"`
	Dropped   int64 `json:"dropped"`
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{lastReset: time.Now()}
}

// AddPacket counts one received datagram of the given size.
func (s *Stats) AddPacket(bytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packets++
	s.bytes += int64(bytes)
	s.totals.Packets++
	s.totals.Bytes += int64(bytes)
}

// AddMessages counts decoded OSC messages.
func (s *Stats) AddMessages(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages += int64(n)
	s.totals.Messages += int64(n)
}

// AddMalformed counts a datagram that failed OSC decoding.
func (s *Stats) AddMalformed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.malformed++
	s.totals.Malformed++
}

// AddDropped counts a datagram the forwarder had to drop.
func (s *Stats) AddDropped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped++
	s.totals.Dropped++
}

// Totals returns the lifetime counters.
func (s *Stats) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

// LogStats logs per-second rates for the interval since the previous call
// and resets the interval counters. Quiet intervals log nothing.
func (s *Stats) LogStats() {
	s.mu.Lock()
	now := time.Now()
	duration := now.Sub(s.lastReset)
	packets, bytes, messages, malformed, dropped := s.packets, s.bytes, s.messages, s.malformed, s.dropped
	s.packets, s.bytes, s.messages, s.malformed, s.dropped = 0, 0, 0, 0, 0
	s.lastReset = now
	s.mu.Unlock()

	if packets == 0 && dropped == 0 {
		return
	}
	secs := duration.Seconds()
	msg := fmt.Sprintf("OSC stats (/sec): %.1f packets, %.1f messages, %.2f KB",
		float64(packets)/secs, float64(messages)/secs, float64(bytes)/secs/1024)
	if malformed > 0 {
		msg += fmt.Sprintf(", %d malformed", malformed)
	}
	if dropped > 0 {
		msg += fmt.Sprintf(", %d dropped on forward", dropped)
	}
	monitoring.Logf("%s", msg)
}

// AttachAdminRoutes publishes the lifetime counters on the /debug/ index.
func (s *Stats) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.KVFunc("osc packets", func() any { return s.Totals().Packets })
	debug.KVFunc("osc messages", func() any { return s.Totals().Messages })
	debug.KVFunc("osc malformed", func() any { return s.Totals().Malformed })
	debug.KVFunc("osc forward drops", func() any { return s.Totals().Dropped })
}
