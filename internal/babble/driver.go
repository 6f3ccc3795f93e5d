// Package babble is the Project Babble mouth-tracking driver. It receives
// one OSC message per blendshape and commits the weights to a host mouth
// device once per tick.
package babble

import (
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hypebeast/go-osc/osc"

	"github.com/banshee-data/gaze.bridge/internal/config"
	"github.com/banshee-data/gaze.bridge/internal/eyes"
	"github.com/banshee-data/gaze.bridge/internal/input"
	"github.com/banshee-data/gaze.bridge/internal/monitoring"
)

// DeviceName is the name the mouth device is registered under.
const DeviceName = "Project Babble"

// Shapes lists the blendshapes the tracker sends, in commit order. Each one
// arrives on the address "/" + name.
var Shapes = []string{
	"cheekPuff",
	"cheekSuckLeft",
	"cheekSuckRight",
	"noseSneerLeft",
	"noseSneerRight",
	"jawOpen",
	"jawForward",
	"jawLeft",
	"jawRight",
	"mouthFunnel",
	"mouthPucker",
	"mouthLeft",
	"mouthRight",
	"mouthRollUpper",
	"mouthRollLower",
	"mouthShrugUpper",
	"mouthShrugLower",
	"mouthClose",
	"mouthSmileLeft",
	"mouthSmileRight",
	"mouthFrownLeft",
	"mouthFrownRight",
	"mouthDimpleLeft",
	"mouthDimpleRight",
	"mouthUpperUpLeft",
	"mouthUpperUpRight",
	"mouthLowerDownLeft",
	"mouthLowerDownRight",
	"mouthPressLeft",
	"mouthPressRight",
	"mouthStretchLeft",
	"mouthStretchRight",
	"tongueOut",
	"tongueUp",
	"tongueDown",
	"tongueLeft",
	"tongueRight",
	"tongueRoll",
	"tongueBendDown",
	"tongueCurlUp",
	"tongueSquish",
	"tongueFlat",
	"tongueTwistLeft",
	"tongueTwistRight",
}

var shapeIndex = func() map[string]int {
	m := make(map[string]int, len(Shapes))
	for i, s := range Shapes {
		m[s] = i
	}
	return m
}()

// ShapeForAddress returns the blendshape carried on addr.
func ShapeForAddress(addr string) (string, bool) {
	name, ok := strings.CutPrefix(addr, "/")
	if !ok {
		return "", false
	}
	if _, ok := shapeIndex[name]; !ok {
		return "", false
	}
	return name, true
}

// Counters reports how many messages the driver accepted and ignored.
type Counters struct {
	Handled int64 `json:"handled"`
	Unknown int64 `json:"unknown"`
}

// Driver is the mouth driver. Messages arrive on the receive goroutine and
// ticks on the host goroutine; weights are stored as atomic float bits.
type Driver struct {
	cfg     *config.Store
	weights []atomic.Uint32

	mu    sync.Mutex
	host  input.Host
	mouth input.Mouth

	handled atomic.Int64
	unknown atomic.Int64
}

// NewDriver returns a driver gated by cfg's legacy_enabled flag.
func NewDriver(cfg *config.Store) *Driver {
	return &Driver{
		cfg:     cfg,
		weights: make([]atomic.Uint32, len(Shapes)),
	}
}

// ShouldInitialize reports whether the host should register this driver.
func (d *Driver) ShouldInitialize() bool {
	return d.cfg.Current().GetLegacyEnabled()
}

// RegisterInputs creates the mouth device on host.
func (d *Driver) RegisterInputs(host input.Host) error {
	mouth := host.RegisterMouth(DeviceName)
	d.mu.Lock()
	d.host = host
	d.mouth = mouth
	d.mu.Unlock()
	monitoring.Logf("babble: registered %q mouth device", DeviceName)
	return nil
}

// UpdateInputs commits the current weights. Outside VR the device is marked
// inactive and nothing else is written.
func (d *Driver) UpdateInputs(dt float64) error {
	d.mu.Lock()
	host, mouth := d.host, d.mouth
	d.mu.Unlock()
	if mouth == nil {
		return nil
	}
	if !host.VRActive() {
		mouth.SetTrackingActive(false)
		return nil
	}

	mouth.SetTrackingActive(true)
	for i, name := range Shapes {
		mouth.SetShape(name, d.weight(i))
	}
	return mouth.FinishUpdate()
}

// UpdateData stores one blendshape sample. Unknown addresses are counted
// and dropped.
func (d *Driver) UpdateData(msg *osc.Message) {
	if msg == nil {
		return
	}
	name, ok := ShapeForAddress(msg.Address)
	if !ok {
		d.unknown.Add(1)
		monitoring.Debugf("babble: ignoring %q", msg.Address)
		return
	}
	v, ok := eyes.ReadFloat(msg)
	if !ok {
		d.unknown.Add(1)
		return
	}
	d.weights[shapeIndex[name]].Store(math.Float32bits(v))
	d.handled.Add(1)
}

// Weight returns the last value received for shape.
func (d *Driver) Weight(shape string) (float32, bool) {
	i, ok := shapeIndex[shape]
	if !ok {
		return 0, false
	}
	return d.weight(i), true
}

// Weights returns every non-zero weight keyed by shape name.
func (d *Driver) Weights() map[string]float32 {
	out := make(map[string]float32)
	for i, name := range Shapes {
		if w := d.weight(i); w != 0 {
			out[name] = w
		}
	}
	return out
}

// Counters returns the message counters.
func (d *Driver) Counters() Counters {
	return Counters{Handled: d.handled.Load(), Unknown: d.unknown.Load()}
}

func (d *Driver) weight(i int) float32 {
	return math.Float32frombits(d.weights[i].Load())
}
