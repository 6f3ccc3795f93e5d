//go:build !pcap
// +build !pcap

package oscnet

import (
	"context"
	"fmt"
)

// ReplayPCAP is a stub implementation when PCAP support is disabled.
// Build with -tags=pcap to enable PCAP replay.
func ReplayPCAP(ctx context.Context, pcapFile string, udpPort int, handle func([]byte) error, realtime bool) error {
	return fmt.Errorf("PCAP support not enabled: rebuild with -tags=pcap to enable PCAP replay")
}
