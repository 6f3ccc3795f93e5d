package host

import (
	"errors"
	"fmt"
	"sync"

	"github.com/banshee-data/gaze.bridge/internal/eyes"
	"github.com/banshee-data/gaze.bridge/internal/input"
)

// EyeTarget holds one eye slot of an eyes device.
type EyeTarget struct {
	mu          sync.Mutex
	state       eyes.EyeState
	rawPosition input.Float3
}

func (e *EyeTarget) SetDeviceActive(v bool) {
	e.mu.Lock()
	e.state.IsDeviceActive = v
	e.mu.Unlock()
}

func (e *EyeTarget) SetTracking(v bool) {
	e.mu.Lock()
	e.state.IsTracking = v
	e.mu.Unlock()
}

// UpdateWithDirection sets the gaze direction. The tracker reports no eye
// position, so the raw position is reset.
func (e *EyeTarget) UpdateWithDirection(d input.Float3) {
	e.mu.Lock()
	e.state.Direction = d
	e.rawPosition = input.Zero
	e.mu.Unlock()
}

func (e *EyeTarget) SetOpenness(v float32) {
	e.mu.Lock()
	e.state.Openness = v
	e.mu.Unlock()
}

func (e *EyeTarget) SetSqueeze(v float32) {
	e.mu.Lock()
	e.state.Squeeze = v
	e.mu.Unlock()
}

func (e *EyeTarget) SetFrown(v float32) {
	e.mu.Lock()
	e.state.Frown = v
	e.mu.Unlock()
}

// SetRawPosition sets the eye's position relative to the head.
func (e *EyeTarget) SetRawPosition(p input.Float3) {
	e.mu.Lock()
	e.rawPosition = p
	e.mu.Unlock()
}

// RawPosition returns the eye's position relative to the head.
func (e *EyeTarget) RawPosition() input.Float3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rawPosition
}

// State returns the eye's current, possibly uncommitted, state.
func (e *EyeTarget) State() eyes.EyeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// EyesSnapshot is one committed eyes frame.
type EyesSnapshot struct {
	Device         string     `json:"device"`
	TrackingActive bool       `json:"tracking_active"`
	Frame          eyes.Frame `json:"frame"`
	// ClosedAmount is derived from the combined eye by
	// ComputeCombinedEyeParameters.
	ClosedAmount float32 `json:"closed_amount"`
	Convergence  float32 `json:"convergence_distance"`
	Timestamp    float64 `json:"timestamp"`
	Commits      int64   `json:"commits"`
}

// Publisher receives every committed eyes frame.
type Publisher interface {
	Publish(EyesSnapshot) error
}

// EyesTarget implements input.Eyes. Writes land in the working state;
// FinishUpdate copies it into the committed snapshot and publishes it.
type EyesTarget struct {
	device string
	slots  [3]*EyeTarget

	mu             sync.Mutex
	trackingActive bool
	closedAmount   float32
	convergence    float32
	timestamp      float64
	committed      EyesSnapshot
	commits        int64
	publishers     []Publisher
}

func newEyesTarget(device string) *EyesTarget {
	return &EyesTarget{
		device:    device,
		slots:     [3]*EyeTarget{{}, {}, {}},
		committed: EyesSnapshot{Device: device},
	}
}

func (t *EyesTarget) addPublisher(p Publisher) {
	t.mu.Lock()
	t.publishers = append(t.publishers, p)
	t.mu.Unlock()
}

// Device returns the name the device was registered under.
func (t *EyesTarget) Device() string { return t.device }

// SetTrackingActive takes effect immediately, without a commit.
func (t *EyesTarget) SetTrackingActive(v bool) {
	t.mu.Lock()
	t.trackingActive = v
	t.committed.TrackingActive = v
	t.mu.Unlock()
}

// TrackingActive reports the device-level tracking flag.
func (t *EyesTarget) TrackingActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trackingActive
}

// Eye returns the slot for side. Unknown sides panic.
func (t *EyesTarget) Eye(side input.Side) input.Eye {
	return t.slot(side)
}

func (t *EyesTarget) slot(side input.Side) *EyeTarget {
	if side < input.Left || side > input.Combined {
		panic(fmt.Sprintf("host: invalid eye side %d", side))
	}
	return t.slots[side]
}

// Slot returns the concrete slot for side.
func (t *EyesTarget) Slot(side input.Side) *EyeTarget {
	return t.slot(side)
}

// ComputeCombinedEyeParameters derives the closed amount from the combined
// eye's openness.
func (t *EyesTarget) ComputeCombinedEyeParameters() {
	openness := t.slots[input.Combined].State().Openness
	t.mu.Lock()
	t.closedAmount = 1 - openness
	t.mu.Unlock()
}

func (t *EyesTarget) SetConvergenceDistance(v float32) {
	t.mu.Lock()
	t.convergence = v
	t.mu.Unlock()
}

// AdvanceTimestamp adds dt seconds to the device timestamp.
func (t *EyesTarget) AdvanceTimestamp(dt float64) {
	t.mu.Lock()
	t.timestamp += dt
	t.mu.Unlock()
}

// FinishUpdate commits the working state and hands it to every publisher.
// Publisher errors are joined and returned; the commit itself stands.
func (t *EyesTarget) FinishUpdate() error {
	frame := eyes.Frame{
		Left:     t.slots[input.Left].State(),
		Right:    t.slots[input.Right].State(),
		Combined: t.slots[input.Combined].State(),
	}

	t.mu.Lock()
	t.commits++
	t.committed = EyesSnapshot{
		Device:         t.device,
		TrackingActive: t.trackingActive,
		Frame:          frame,
		ClosedAmount:   t.closedAmount,
		Convergence:    t.convergence,
		Timestamp:      t.timestamp,
		Commits:        t.commits,
	}
	snap := t.committed
	publishers := append([]Publisher(nil), t.publishers...)
	t.mu.Unlock()

	var errs []error
	for _, p := range publishers {
		if err := p.Publish(snap); err != nil {
			errs = append(errs, fmt.Errorf("publish %s frame: %w", t.device, err))
		}
	}
	return errors.Join(errs...)
}

// Snapshot returns the last committed frame.
func (t *EyesTarget) Snapshot() EyesSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.committed
}
