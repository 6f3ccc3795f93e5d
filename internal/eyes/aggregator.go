package eyes

import (
	"sync"

	"github.com/banshee-data/gaze.bridge/internal/config"
	"github.com/banshee-data/gaze.bridge/internal/input"
	"github.com/banshee-data/gaze.bridge/internal/monitoring"
)

// DeviceName is the name the eyes device is registered under.
const DeviceName = "Project Babble"

// EyeState is the state written to one eye slot for a tick.
type EyeState struct {
	Direction      GazeVector `json:"direction"`
	Openness       float32    `json:"openness"`
	Squeeze        float32    `json:"squeeze"`
	Frown          float32    `json:"frown"`
	IsTracking     bool       `json:"is_tracking"`
	IsDeviceActive bool       `json:"is_device_active"`
}

// Frame is the per-tick result: both eyes plus their average.
type Frame struct {
	Left     EyeState `json:"left"`
	Right    EyeState `json:"right"`
	Combined EyeState `json:"combined"`
}

// Openness converts an eyelid sample into openness under mode. The result is
// not clamped.
func Openness(lid float32, mode config.OpennessMode) float32 {
	if mode == config.OpennessDirect {
		return lid
	}
	return 1 - lid
}

// ComputeFrame derives a tracked Frame from one snapshot of samples.
func ComputeFrame(s Samples, alpha, beta float32, mode config.OpennessMode) Frame {
	left := EyeState{
		Direction:      Project(s.Get(LeftEyeX), s.Get(LeftEyeY), alpha, beta),
		Openness:       Openness(s.Get(LeftEyeLid), mode),
		IsTracking:     true,
		IsDeviceActive: true,
	}
	right := EyeState{
		Direction:      Project(s.Get(RightEyeX), s.Get(RightEyeY), alpha, beta),
		Openness:       Openness(s.Get(RightEyeLid), mode),
		IsTracking:     true,
		IsDeviceActive: true,
	}
	return Frame{
		Left:  left,
		Right: right,
		Combined: EyeState{
			Direction:      Average(left.Direction, right.Direction),
			Openness:       (left.Openness + right.Openness) / 2,
			IsTracking:     true,
			IsDeviceActive: true,
		},
	}
}

// Aggregator commits eye state into the host once per tick.
//
// It runs in two states. Inactive (host not in VR, or the bridge disabled):
// the device is flagged as not tracking and nothing else is written, so the
// last committed state stays as it was. Active: every eye slot is rewritten
// from the current samples and the frame is committed.
type Aggregator struct {
	store *SampleStore
	cfg   *config.Store

	mu   sync.Mutex
	host input.Host
	sink input.Eyes
}

// NewAggregator returns an Aggregator reading store and cfg. It does nothing
// until Register is called.
func NewAggregator(store *SampleStore, cfg *config.Store) *Aggregator {
	return &Aggregator{store: store, cfg: cfg}
}

// Register creates the eyes device on host. Calling it again replaces the
// device.
func (a *Aggregator) Register(host input.Host) {
	sink := host.RegisterEyes(DeviceName)
	a.mu.Lock()
	a.host = host
	a.sink = sink
	a.mu.Unlock()
	monitoring.Logf("eyes: registered %q device", DeviceName)
}

// Registered reports whether Register has run.
func (a *Aggregator) Registered() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sink != nil
}

// Active reports whether a tick right now would commit state.
func (a *Aggregator) Active() bool {
	a.mu.Lock()
	host := a.host
	a.mu.Unlock()
	return host != nil && host.VRActive() && a.cfg.Current().GetEnabled()
}

// Update runs one tick with dt seconds elapsed since the previous one. Errors
// from the device's FinishUpdate are returned as-is and are not retried.
func (a *Aggregator) Update(dt float64) error {
	a.mu.Lock()
	host, sink := a.host, a.sink
	a.mu.Unlock()
	if sink == nil {
		return nil
	}

	cfg := a.cfg.Current()
	if !host.VRActive() || !cfg.GetEnabled() {
		sink.SetTrackingActive(false)
		return nil
	}

	sink.SetTrackingActive(true)

	frame := ComputeFrame(a.store.Snapshot(), cfg.GetAlpha(), cfg.GetBeta(), cfg.GetOpennessMode())
	writeEye(sink.Eye(input.Left), frame.Left)
	writeEye(sink.Eye(input.Right), frame.Right)
	writeEye(sink.Eye(input.Combined), frame.Combined)
	sink.ComputeCombinedEyeParameters()

	sink.SetConvergenceDistance(0)
	sink.AdvanceTimestamp(dt)
	return sink.FinishUpdate()
}

func writeEye(eye input.Eye, s EyeState) {
	eye.SetDeviceActive(s.IsDeviceActive)
	eye.SetTracking(s.IsTracking)
	if s.IsTracking {
		eye.UpdateWithDirection(s.Direction)
	}
	eye.SetOpenness(s.Openness)
	eye.SetSqueeze(s.Squeeze)
	eye.SetFrown(s.Frown)
}
