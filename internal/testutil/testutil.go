// Package testutil provides shared test utilities and OSC fixtures.
package testutil

import (
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// EncodeMessage returns the wire encoding of an OSC message.
func EncodeMessage(t *testing.T, addr string, args ...interface{}) []byte {
	t.Helper()
	data, err := osc.NewMessage(addr, args...).MarshalBinary()
	AssertNoError(t, err)
	return data
}

// EncodeBundle returns the wire encoding of a bundle holding msgs.
func EncodeBundle(t *testing.T, msgs ...*osc.Message) []byte {
	t.Helper()
	b := osc.NewBundle(time.Unix(0, 0))
	for _, m := range msgs {
		AssertNoError(t, b.Append(m))
	}
	data, err := b.MarshalBinary()
	AssertNoError(t, err)
	return data
}

// EyeSample holds one value for each of the six tracker channels.
type EyeSample struct {
	LeftX, LeftY, RightX, RightY, LeftLid, RightLid float32
}

// Messages returns one message per channel, in the order the tracker sends
// them.
func (s EyeSample) Messages() []*osc.Message {
	return []*osc.Message{
		osc.NewMessage("/LeftEyeX", s.LeftX),
		osc.NewMessage("/LeftEyeY", s.LeftY),
		osc.NewMessage("/RightEyeX", s.RightX),
		osc.NewMessage("/RightEyeY", s.RightY),
		osc.NewMessage("/LeftEyeLid", s.LeftLid),
		osc.NewMessage("/RightEyeLid", s.RightLid),
	}
}

// Packets returns the wire encoding of Messages, one datagram each.
func (s EyeSample) Packets(t *testing.T) [][]byte {
	t.Helper()
	var out [][]byte
	for _, m := range s.Messages() {
		data, err := m.MarshalBinary()
		AssertNoError(t, err)
		out = append(out, data)
	}
	return out
}
