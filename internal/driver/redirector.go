package driver

import (
	"errors"

	"github.com/hypebeast/go-osc/osc"

	"github.com/banshee-data/gaze.bridge/internal/input"
	"github.com/banshee-data/gaze.bridge/internal/monitoring"
)

// Redirector wraps an existing tracker driver and takes over its eye
// addresses. Everything else, including the wrapped driver's own devices and
// ticks, keeps working unchanged.
type Redirector struct {
	inner  Driver
	bridge *Bridge
}

// NewRedirector installs the bridge in front of inner. It must run before
// any message reaches inner.
func NewRedirector(inner Driver, bridge *Bridge) (*Redirector, error) {
	if inner == nil {
		return nil, ErrNilDriver
	}
	if bridge == nil {
		return nil, errors.New("driver: nil bridge")
	}
	return &Redirector{inner: inner, bridge: bridge}, nil
}

// Inner returns the wrapped driver.
func (r *Redirector) Inner() Driver { return r.inner }

// ShouldInitialize is true whenever the bridge is enabled, otherwise it is
// the wrapped driver's answer. The wrapped driver is always asked.
func (r *Redirector) ShouldInitialize() bool {
	innerOK := r.inner.ShouldInitialize()
	return r.bridge.Enabled() || innerOK
}

// RegisterInputs registers the eyes device, then the wrapped driver's
// devices, on the same host.
func (r *Redirector) RegisterInputs(host input.Host) error {
	r.bridge.Register(host)
	return r.inner.RegisterInputs(host)
}

// UpdateInputs ticks the bridge, then the wrapped driver. Both always run;
// their errors are joined.
func (r *Redirector) UpdateInputs(dt float64) error {
	bridgeErr := r.bridge.Tick(dt)
	innerErr := r.inner.UpdateInputs(dt)
	return errors.Join(bridgeErr, innerErr)
}

// UpdateData hands eye messages to the bridge and everything else to the
// wrapped driver.
func (r *Redirector) UpdateData(msg *osc.Message) {
	if msg == nil {
		return
	}
	if r.Route(msg) == RouteHandled {
		if !r.bridge.Handle(msg) {
			monitoring.Debugf("redirect: %s consumed without a usable value", msg.Address)
		}
		return
	}
	r.inner.UpdateData(msg)
}

// Route classifies msg without acting on it.
func (r *Redirector) Route(msg *osc.Message) Route {
	return Classify(msg.Address)
}
