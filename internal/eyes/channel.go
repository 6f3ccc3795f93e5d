// Package eyes turns raw eye-tracker samples into per-eye gaze state.
//
// Six independent channels (two 2D pupil offsets and two eyelid scalars)
// arrive as OSC messages and land in a SampleStore. Once per host tick the
// Aggregator projects the offsets into unit gaze vectors and commits left,
// right and combined eye state into the host's eyes device.
package eyes

import (
	"math"
	"sync/atomic"
)

// Channel identifies one of the six tracked scalars.
type Channel int

const (
	LeftEyeX Channel = iota
	LeftEyeY
	RightEyeX
	RightEyeY
	LeftEyeLid
	RightEyeLid

	numChannels
)

var channelNames = [numChannels]string{
	LeftEyeX:    "LeftEyeX",
	LeftEyeY:    "LeftEyeY",
	RightEyeX:   "RightEyeX",
	RightEyeY:   "RightEyeY",
	LeftEyeLid:  "LeftEyeLid",
	RightEyeLid: "RightEyeLid",
}

// Channels returns every channel in declaration order.
func Channels() []Channel {
	out := make([]Channel, numChannels)
	for i := range out {
		out[i] = Channel(i)
	}
	return out
}

func (c Channel) valid() bool { return c >= 0 && c < numChannels }

func (c Channel) String() string {
	if !c.valid() {
		return "Unknown"
	}
	return channelNames[c]
}

// Address returns the OSC address carrying this channel.
func (c Channel) Address() string {
	if !c.valid() {
		return ""
	}
	return "/" + channelNames[c]
}

// ChannelForAddress maps an OSC address to its channel. Matching is exact and
// case-sensitive; the empty address never matches.
func ChannelForAddress(addr string) (Channel, bool) {
	switch addr {
	case "/LeftEyeX":
		return LeftEyeX, true
	case "/LeftEyeY":
		return LeftEyeY, true
	case "/RightEyeX":
		return RightEyeX, true
	case "/RightEyeY":
		return RightEyeY, true
	case "/LeftEyeLid":
		return LeftEyeLid, true
	case "/RightEyeLid":
		return RightEyeLid, true
	default:
		return 0, false
	}
}

// IsEyeAddress reports whether addr is one of the six eye addresses.
func IsEyeAddress(addr string) bool {
	_, ok := ChannelForAddress(addr)
	return ok
}

// SampleStore holds the latest value of each channel, all 0 until written.
//
// The message path writes single channels while the tick path reads them, with
// no coordination between the two. Each channel is stored atomically so a
// value is never torn, but there is no atomicity across channels: a tick can
// observe a left X from one packet and a left Y from the next. That staleness
// is accepted; it matches how the tracker streams channels independently.
type SampleStore struct {
	values [numChannels]atomic.Uint32
}

// NewSampleStore returns a store with every channel at 0.
func NewSampleStore() *SampleStore {
	return &SampleStore{}
}

// Set writes v to channel c. Unknown channels are ignored.
func (s *SampleStore) Set(c Channel, v float32) {
	if !c.valid() {
		return
	}
	s.values[c].Store(math.Float32bits(v))
}

// Get returns the latest value of channel c, or 0 for unknown channels.
func (s *SampleStore) Get(c Channel) float32 {
	if !c.valid() {
		return 0
	}
	return math.Float32frombits(s.values[c].Load())
}

// Snapshot copies every channel once. The aggregator takes one snapshot per
// tick so left and right projections within a tick use the same reads.
func (s *SampleStore) Snapshot() Samples {
	var out Samples
	for i := range out {
		out[i] = math.Float32frombits(s.values[i].Load())
	}
	return out
}

// Samples is a point-in-time copy of the SampleStore.
type Samples [numChannels]float32

// Get returns the value of channel c, or 0 for unknown channels.
func (s Samples) Get(c Channel) float32 {
	if !c.valid() {
		return 0
	}
	return s[c]
}

// Map renders the samples keyed by channel name, for status output.
func (s Samples) Map() map[string]float32 {
	out := make(map[string]float32, numChannels)
	for i, v := range s {
		out[channelNames[i]] = v
	}
	return out
}
