package eyes

import (
	"github.com/hypebeast/go-osc/osc"

	"github.com/banshee-data/gaze.bridge/internal/monitoring"
)

// Dispatcher routes OSC messages carrying eye samples into a SampleStore.
// It satisfies osc.Dispatcher so it can sit directly behind a listener.
type Dispatcher struct {
	store    *SampleStore
	fallback osc.Handler
}

// NewDispatcher returns a Dispatcher writing into store.
func NewDispatcher(store *SampleStore) *Dispatcher {
	return &Dispatcher{store: store}
}

// SetFallback installs a handler for messages Apply rejects. With no fallback
// they are dropped.
func (d *Dispatcher) SetFallback(h osc.Handler) {
	d.fallback = h
}

// Store returns the SampleStore the dispatcher writes to.
func (d *Dispatcher) Store() *SampleStore {
	return d.store
}

// Apply writes msg into its channel and reports whether it did. Unknown or
// empty addresses and messages whose first argument is not numeric leave the
// store untouched.
func (d *Dispatcher) Apply(msg *osc.Message) bool {
	if msg == nil || msg.Address == "" {
		return false
	}
	ch, ok := ChannelForAddress(msg.Address)
	if !ok {
		return false
	}
	v, ok := ReadFloat(msg)
	if !ok {
		monitoring.Debugf("eyes: %s carries no numeric argument (%d args)", msg.Address, len(msg.Arguments))
		return false
	}
	d.store.Set(ch, v)
	return true
}

// HandleMessage implements osc.Handler.
func (d *Dispatcher) HandleMessage(msg *osc.Message) {
	if d.Apply(msg) {
		return
	}
	if d.fallback != nil {
		d.fallback.HandleMessage(msg)
	}
}

// Dispatch implements osc.Dispatcher, walking bundles depth first.
func (d *Dispatcher) Dispatch(packet osc.Packet) {
	Walk(packet, d.HandleMessage)
}

// Walk calls fn for every message in packet, descending into bundles.
func Walk(packet osc.Packet, fn func(*osc.Message)) {
	switch p := packet.(type) {
	case *osc.Message:
		fn(p)
	case *osc.Bundle:
		for _, m := range p.Messages {
			fn(m)
		}
		for _, b := range p.Bundles {
			Walk(b, fn)
		}
	}
}

// ReadFloat reads the first argument of msg as a float32. Integer, double and
// boolean arguments are converted; anything else is unreadable.
func ReadFloat(msg *osc.Message) (float32, bool) {
	if msg == nil || len(msg.Arguments) == 0 {
		return 0, false
	}
	switch v := msg.Arguments[0].(type) {
	case float32:
		return v, true
	case float64:
		return float32(v), true
	case int32:
		return float32(v), true
	case int64:
		return float32(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
