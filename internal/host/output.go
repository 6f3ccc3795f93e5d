package host

import (
	"fmt"
	"time"

	"github.com/hypebeast/go-osc/osc"
)

// OSC addresses used for re-published eye frames.
const (
	AddrLeftRightVec     = "/tracking/eye/LeftRightVec"
	AddrEyesClosedAmount = "/tracking/eye/EyesClosedAmount"
)

// Sender is the part of osc.Client the output needs.
type Sender interface {
	Send(osc.Packet) error
}

// OSCOutput publishes committed eye frames as an OSC bundle.
type OSCOutput struct {
	sender Sender
	now    func() time.Time
}

// NewOSCOutput sends to addr:port over UDP.
func NewOSCOutput(addr string, port int) *OSCOutput {
	return NewOSCOutputWithSender(osc.NewClient(addr, port))
}

// NewOSCOutputWithSender sends through s.
func NewOSCOutputWithSender(s Sender) *OSCOutput {
	return &OSCOutput{sender: s, now: time.Now}
}

// Publish implements Publisher. Frames committed while tracking is inactive
// are skipped.
func (o *OSCOutput) Publish(s EyesSnapshot) error {
	if !s.TrackingActive {
		return nil
	}
	if err := o.sender.Send(EncodeFrame(s, o.now())); err != nil {
		return fmt.Errorf("failed to send OSC frame: %w", err)
	}
	return nil
}

// EncodeFrame builds the bundle sent for s.
func EncodeFrame(s EyesSnapshot, at time.Time) *osc.Bundle {
	l, r := s.Frame.Left.Direction, s.Frame.Right.Direction
	b := osc.NewBundle(at)
	b.Messages = []*osc.Message{
		osc.NewMessage(AddrLeftRightVec, l.X, l.Y, l.Z, r.X, r.Y, r.Z),
		osc.NewMessage(AddrEyesClosedAmount, s.ClosedAmount),
	}
	return b
}
