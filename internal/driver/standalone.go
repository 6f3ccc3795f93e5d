package driver

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/hypebeast/go-osc/osc"

	"github.com/banshee-data/gaze.bridge/internal/input"
	"github.com/banshee-data/gaze.bridge/internal/monitoring"
	"github.com/banshee-data/gaze.bridge/internal/oscnet"
)

// Standalone runs the bridge on its own OSC endpoint.
type Standalone struct {
	bridge   *Bridge
	listener *oscnet.Listener

	mu         sync.Mutex
	registered bool
	replay     bool
}

// NewStandalone returns a driver listening as described by lc. The
// listener's dispatcher is always the driver itself.
func NewStandalone(bridge *Bridge, lc oscnet.ListenerConfig) *Standalone {
	s := &Standalone{bridge: bridge}
	lc.Dispatcher = Dispatcher(s)
	s.listener = oscnet.NewListener(lc)
	return s
}

// Listener returns the driver's OSC listener.
func (s *Standalone) Listener() *oscnet.Listener { return s.listener }

// SetReplay switches the driver to replay input: RegisterInputs no longer
// binds the OSC port and packets are fed through Listener().HandlePacket.
// It must be called before RegisterInputs.
func (s *Standalone) SetReplay(on bool) {
	s.mu.Lock()
	s.replay = on
	s.mu.Unlock()
}

// ShouldInitialize follows the bridge's enable flag.
func (s *Standalone) ShouldInitialize() bool {
	return s.bridge.Enabled()
}

// RegisterInputs binds the OSC port and then registers the eyes device. If
// the port cannot be bound the error is returned, nothing is registered and
// later ticks do nothing. In replay mode the port is left alone.
func (s *Standalone) RegisterInputs(host input.Host) error {
	s.mu.Lock()
	replay := s.replay
	s.mu.Unlock()

	if !replay {
		if err := s.listener.Bind(); err != nil {
			monitoring.Logf("standalone: cannot listen for eye data: %v", err)
			return fmt.Errorf("standalone eyes driver: %w", err)
		}
	}
	s.bridge.Register(host)

	s.mu.Lock()
	s.registered = true
	s.mu.Unlock()
	return nil
}

// Registered reports whether RegisterInputs succeeded.
func (s *Standalone) Registered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registered
}

// UpdateInputs runs one bridge tick.
func (s *Standalone) UpdateInputs(dt float64) error {
	if !s.Registered() {
		return nil
	}
	return s.bridge.Tick(dt)
}

// UpdateData stores eye samples and ignores every other address.
func (s *Standalone) UpdateData(msg *osc.Message) {
	if !s.bridge.Handle(msg) && msg != nil {
		monitoring.Debugf("standalone: ignoring %q", msg.Address)
	}
}

// Serve receives OSC until ctx is cancelled.
func (s *Standalone) Serve(ctx context.Context) error {
	if !s.Registered() {
		return ErrNotRegistered
	}
	return s.listener.Serve(ctx)
}

// LocalAddr returns the bound OSC address, or nil before registration.
func (s *Standalone) LocalAddr() net.Addr {
	return s.listener.LocalAddr()
}
