package eyes

import (
	"github.com/hypebeast/go-osc/osc"

	"github.com/banshee-data/gaze.bridge/internal/input"
)

type fakeEye struct {
	state     EyeState
	rawZeroed bool
	writes    int
}

func (e *fakeEye) SetDeviceActive(v bool) { e.state.IsDeviceActive = v; e.writes++ }
func (e *fakeEye) SetTracking(v bool)     { e.state.IsTracking = v; e.writes++ }
func (e *fakeEye) UpdateWithDirection(d input.Float3) {
	e.state.Direction = d
	e.rawZeroed = true
	e.writes++
}
func (e *fakeEye) SetOpenness(v float32) { e.state.Openness = v; e.writes++ }
func (e *fakeEye) SetSqueeze(v float32)  { e.state.Squeeze = v; e.writes++ }
func (e *fakeEye) SetFrown(v float32)    { e.state.Frown = v; e.writes++ }

type fakeEyes struct {
	trackingActive  bool
	activeCalls     int
	eyes            [3]*fakeEye
	combinedCalls   int
	convergence     float32
	convergenceSet  bool
	timestamp       float64
	finishCalls     int
	finishErr       error
	committedFrames []Frame
}

func newFakeEyes() *fakeEyes {
	return &fakeEyes{eyes: [3]*fakeEye{{}, {}, {}}}
}

func (f *fakeEyes) SetTrackingActive(v bool)      { f.trackingActive = v; f.activeCalls++ }
func (f *fakeEyes) Eye(s input.Side) input.Eye    { return f.eyes[s] }
func (f *fakeEyes) ComputeCombinedEyeParameters() { f.combinedCalls++ }
func (f *fakeEyes) SetConvergenceDistance(v float32) {
	f.convergence = v
	f.convergenceSet = true
}
func (f *fakeEyes) AdvanceTimestamp(dt float64) { f.timestamp += dt }
func (f *fakeEyes) FinishUpdate() error {
	f.finishCalls++
	f.committedFrames = append(f.committedFrames, Frame{
		Left:     f.eyes[input.Left].state,
		Right:    f.eyes[input.Right].state,
		Combined: f.eyes[input.Combined].state,
	})
	return f.finishErr
}

func (f *fakeEyes) eyeWrites() int {
	n := 0
	for _, e := range f.eyes {
		n += e.writes
	}
	return n
}

type fakeHost struct {
	vr      bool
	eyes    *fakeEyes
	devices []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{vr: true, eyes: newFakeEyes()}
}

func (h *fakeHost) VRActive() bool { return h.vr }
func (h *fakeHost) RegisterEyes(device string) input.Eyes {
	h.devices = append(h.devices, device)
	return h.eyes
}
func (h *fakeHost) RegisterMouth(string) input.Mouth { return nil }

func oscFloat(addr string, v float32) *osc.Message {
	return osc.NewMessage(addr, v)
}
