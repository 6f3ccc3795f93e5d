package oscnet

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/gaze.bridge/internal/monitoring"
)

// Forwarder copies raw datagrams to a second UDP destination without
// blocking the receive loop.
type Forwarder struct {
	conn        *net.UDPConn
	channel     chan []byte
	stats       *Stats
	logInterval time.Duration
	address     string
	once        sync.Once
}

// NewForwarder dials addr:port for forwarding.
func NewForwarder(addr string, port int, stats *Stats, logInterval time.Duration) (*Forwarder, error) {
	forwardAddress := net.JoinHostPort(addr, strconv.Itoa(port))
	udpAddr, err := net.ResolveUDPAddr("udp", forwardAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve forward address: %w", err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to create forward connection: %w", err)
	}

	if stats == nil {
		stats = NewStats()
	}
	if logInterval == 0 {
		logInterval = time.Minute
	}
	return &Forwarder{
		conn:        conn,
		channel:     make(chan []byte, 256),
		stats:       stats,
		logInterval: logInterval,
		address:     forwardAddress,
	}, nil
}

// Start runs the forwarding goroutine until ctx is cancelled. Only the first
// call has any effect.
func (f *Forwarder) Start(ctx context.Context) {
	f.once.Do(func() {
		go f.run(ctx)
		monitoring.Logf("Forwarding OSC packets to %s", f.address)
	})
}

func (f *Forwarder) run(ctx context.Context) {
	failed := 0
	var lastError error
	ticker := time.NewTicker(f.logInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case packet := <-f.channel:
			if _, err := f.conn.Write(packet); err != nil {
				failed++
				lastError = err
			}
		case <-ticker.C:
			if failed > 0 && lastError != nil {
				monitoring.Logf("Failed to forward %d packets (latest: %v)", failed, lastError)
				failed = 0
				lastError = nil
			}
		}
	}
}

// ForwardAsync queues a copy of packet. When the queue is full the packet is
// dropped and counted.
func (f *Forwarder) ForwardAsync(packet []byte) {
	packetCopy := make([]byte, len(packet))
	copy(packetCopy, packet)

	select {
	case f.channel <- packetCopy:
	default:
		f.stats.AddDropped()
	}
}

// Close closes the forwarding socket.
func (f *Forwarder) Close() error {
	return f.conn.Close()
}
