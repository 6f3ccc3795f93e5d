//go:build pcap
// +build pcap

package oscnet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/banshee-data/gaze.bridge/internal/monitoring"
)

// ReplayPCAP feeds OSC datagrams captured on udpPort through handle, as if
// they had arrived on the live socket. With realtime set the original
// inter-packet timing is preserved so tick-rate behaviour can be reproduced.
// This function is only available when building with the 'pcap' build tag.
func ReplayPCAP(ctx context.Context, pcapFile string, udpPort int, handle func([]byte) error, realtime bool) error {
	h, err := pcap.OpenOffline(pcapFile)
	if err != nil {
		return fmt.Errorf("failed to open PCAP file %s: %w", pcapFile, err)
	}
	defer h.Close()

	filterStr := fmt.Sprintf("udp port %d", udpPort)
	if err := h.SetBPFFilter(filterStr); err != nil {
		return fmt.Errorf("failed to set BPF filter '%s': %w", filterStr, err)
	}
	monitoring.Logf("PCAP BPF filter set: %s", filterStr)

	packetSource := gopacket.NewPacketSource(h, h.LinkType())
	packetCount := 0
	startTime := time.Now()
	var firstCapture, replayStart time.Time

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("PCAP replay stopping due to context cancellation (replayed %d packets)", packetCount)
			return ctx.Err()
		case packet := <-packetSource.Packets():
			if packet == nil {
				monitoring.Logf("PCAP replay complete: %d packets in %v", packetCount, time.Since(startTime))
				return nil
			}

			udpLayer := packet.Layer(layers.LayerTypeUDP)
			if udpLayer == nil {
				continue
			}
			udp, ok := udpLayer.(*layers.UDP)
			if !ok || len(udp.Payload) == 0 {
				continue
			}

			if realtime {
				ts := packet.Metadata().Timestamp
				if firstCapture.IsZero() {
					firstCapture, replayStart = ts, time.Now()
				} else if wait := ts.Sub(firstCapture) - time.Since(replayStart); wait > 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(wait):
					}
				}
			}

			packetCount++
			if err := handle(udp.Payload); err != nil {
				monitoring.Debugf("PCAP packet %d: %v", packetCount, err)
			}
		}
	}
}
