// Package host is the avatar input system the drivers register with. It
// keeps the committed state of every device, runs the update tick and can
// re-publish committed eye frames over OSC.
package host

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/gaze.bridge/internal/input"
)

// Input implements input.Host.
type Input struct {
	vr atomic.Bool

	mu         sync.Mutex
	eyes       map[string]*EyesTarget
	mouths     map[string]*MouthTarget
	publishers []Publisher
}

// NewInput returns a host with the given initial VR state.
func NewInput(vrActive bool) *Input {
	in := &Input{
		eyes:   make(map[string]*EyesTarget),
		mouths: make(map[string]*MouthTarget),
	}
	in.vr.Store(vrActive)
	return in
}

// VRActive reports whether a headset session is active.
func (in *Input) VRActive() bool {
	return in.vr.Load()
}

// SetVRActive flips the headset session state.
func (in *Input) SetVRActive(v bool) {
	in.vr.Store(v)
}

// AddPublisher registers p to receive every committed eye frame, including
// those of devices registered earlier.
func (in *Input) AddPublisher(p Publisher) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.publishers = append(in.publishers, p)
	for _, e := range in.eyes {
		e.addPublisher(p)
	}
}

// RegisterEyes returns the eyes device called name, creating it on first use.
func (in *Input) RegisterEyes(name string) input.Eyes {
	in.mu.Lock()
	defer in.mu.Unlock()
	if e, ok := in.eyes[name]; ok {
		return e
	}
	e := newEyesTarget(name)
	for _, p := range in.publishers {
		e.addPublisher(p)
	}
	in.eyes[name] = e
	return e
}

// RegisterMouth returns the mouth device called name, creating it on first
// use.
func (in *Input) RegisterMouth(name string) input.Mouth {
	in.mu.Lock()
	defer in.mu.Unlock()
	if m, ok := in.mouths[name]; ok {
		return m
	}
	m := newMouthTarget(name)
	in.mouths[name] = m
	return m
}

// Eyes looks up a registered eyes device.
func (in *Input) Eyes(name string) (*EyesTarget, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	e, ok := in.eyes[name]
	return e, ok
}

// Mouth looks up a registered mouth device.
func (in *Input) Mouth(name string) (*MouthTarget, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	m, ok := in.mouths[name]
	return m, ok
}

// Status summarizes every registered device.
type Status struct {
	VRActive bool            `json:"vr_active"`
	Eyes     []EyesSnapshot  `json:"eyes"`
	Mouths   []MouthSnapshot `json:"mouths"`
}

// Status returns the committed state of every device, sorted by name.
func (in *Input) Status() Status {
	in.mu.Lock()
	eyes := make([]*EyesTarget, 0, len(in.eyes))
	for _, e := range in.eyes {
		eyes = append(eyes, e)
	}
	mouths := make([]*MouthTarget, 0, len(in.mouths))
	for _, m := range in.mouths {
		mouths = append(mouths, m)
	}
	in.mu.Unlock()

	st := Status{VRActive: in.VRActive()}
	for _, e := range eyes {
		st.Eyes = append(st.Eyes, e.Snapshot())
	}
	for _, m := range mouths {
		st.Mouths = append(st.Mouths, m.Snapshot())
	}
	sort.Slice(st.Eyes, func(i, j int) bool { return st.Eyes[i].Device < st.Eyes[j].Device })
	sort.Slice(st.Mouths, func(i, j int) bool { return st.Mouths[i].Device < st.Mouths[j].Device })
	return st
}
