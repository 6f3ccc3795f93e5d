// Package driver attaches the eye bridge to the host input system, either
// as its own OSC endpoint (Standalone) or by taking over the eye addresses of
// an existing tracker driver (Redirector).
package driver

import (
	"errors"

	"github.com/hypebeast/go-osc/osc"

	"github.com/banshee-data/gaze.bridge/internal/eyes"
	"github.com/banshee-data/gaze.bridge/internal/input"
)

var (
	// ErrNilDriver is returned when a Redirector has nothing to wrap.
	ErrNilDriver = errors.New("driver: nil inner driver")
	// ErrNotRegistered is returned by operations that need RegisterInputs to
	// have succeeded first.
	ErrNotRegistered = errors.New("driver: not registered")
)

// Driver is an OSC tracker driver as the host sees it.
type Driver interface {
	// ShouldInitialize reports whether the host should register the driver.
	ShouldInitialize() bool
	// RegisterInputs creates the driver's devices on host.
	RegisterInputs(host input.Host) error
	// UpdateInputs commits one tick, dt seconds after the previous one.
	UpdateInputs(dt float64) error
	// UpdateData consumes one received message.
	UpdateData(msg *osc.Message)
}

// Route says who handles a message.
type Route int

const (
	// RouteDelegate passes the message to the wrapped driver unchanged.
	RouteDelegate Route = iota
	// RouteHandled means the bridge consumed the message.
	RouteHandled
)

func (r Route) String() string {
	if r == RouteHandled {
		return "handled"
	}
	return "delegate"
}

// Classify routes addr. Only the six eye addresses are handled; an empty
// address is delegated.
func Classify(addr string) Route {
	if eyes.IsEyeAddress(addr) {
		return RouteHandled
	}
	return RouteDelegate
}

type dispatcherFunc func(osc.Packet)

func (f dispatcherFunc) Dispatch(p osc.Packet) { f(p) }

// Dispatcher feeds every message of a received packet to d.UpdateData, so a
// driver can sit behind an oscnet listener.
func Dispatcher(d Driver) osc.Dispatcher {
	return dispatcherFunc(func(p osc.Packet) {
		eyes.Walk(p, d.UpdateData)
	})
}
