// Package input defines the contracts between tracker drivers and the host
// avatar input system: the host hands out per-device sinks at registration
// time and drivers write into them once per tick.
package input

// Float3 is the host's 3-component float vector.
type Float3 struct {
	X, Y, Z float32
}

// Zero is the origin.
var Zero = Float3{}

// Side selects one of the three eye slots of an eyes device.
type Side int

const (
	Left Side = iota
	Right
	Combined
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	case Combined:
		return "combined"
	default:
		return "unknown"
	}
}

// Eye receives the state of a single eye.
type Eye interface {
	SetDeviceActive(bool)
	SetTracking(bool)
	// UpdateWithDirection sets the gaze direction and resets the raw
	// position to Zero.
	UpdateWithDirection(Float3)
	SetOpenness(float32)
	SetSqueeze(float32)
	SetFrown(float32)
}

// Eyes is an eye-tracking device registered with the host.
type Eyes interface {
	SetTrackingActive(bool)
	Eye(Side) Eye
	// ComputeCombinedEyeParameters lets the host derive its own combined
	// parameters after all three eyes have been written.
	ComputeCombinedEyeParameters()
	SetConvergenceDistance(float32)
	// AdvanceTimestamp adds dt seconds to the device timestamp.
	AdvanceTimestamp(dt float64)
	// FinishUpdate commits the frame written since the previous call.
	FinishUpdate() error
}

// Mouth is a face-tracking device carrying named blendshape weights.
type Mouth interface {
	SetTrackingActive(bool)
	SetShape(name string, weight float32)
	FinishUpdate() error
}

// Host is the input system drivers register with.
type Host interface {
	// VRActive reports whether a headset session is currently active.
	VRActive() bool
	RegisterEyes(device string) Eyes
	RegisterMouth(device string) Mouth
}
