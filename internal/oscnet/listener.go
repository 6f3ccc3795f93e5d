// Package oscnet receives OSC datagrams over UDP and hands the decoded
// packets to an osc.Dispatcher.
package oscnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"github.com/banshee-data/gaze.bridge/internal/monitoring"
)

var (
	// ErrPortInUse is returned by Bind when another process owns the port.
	ErrPortInUse = errors.New("osc port already in use")
	// ErrNotBound is returned by Serve before a successful Bind.
	ErrNotBound = errors.New("osc listener not bound")
	// ErrAlreadyBound is returned by a second Bind.
	ErrAlreadyBound = errors.New("osc listener already bound")
	// ErrNotOSC is returned for a datagram that is neither a message nor a
	// bundle.
	ErrNotOSC = errors.New("datagram is not an OSC packet")
)

// maxDatagram bounds a single OSC datagram; tracker packets are a few dozen
// bytes but bundles from other senders can be larger.
const maxDatagram = 65507

// ListenerConfig contains configuration options for the listener.
type ListenerConfig struct {
	Address     string // bind host, empty for all interfaces
	Port        int
	RcvBuf      int
	LogInterval time.Duration
	Stats       *Stats
	Forwarder   *Forwarder
	Dispatcher  osc.Dispatcher
	Sockets     UDPSocketFactory
}

// Listener owns one UDP endpoint. Port ownership is an explicit step: Bind
// acquires the socket and reports failure, Serve runs the receive loop.
type Listener struct {
	address     string
	port        int
	rcvBuf      int
	logInterval time.Duration
	stats       *Stats
	forwarder   *Forwarder
	dispatcher  osc.Dispatcher
	sockets     UDPSocketFactory

	mu   sync.Mutex
	conn UDPSocket
}

// NewListener creates a listener with the provided configuration.
func NewListener(config ListenerConfig) *Listener {
	stats := config.Stats
	if stats == nil {
		stats = NewStats()
	}
	logInterval := config.LogInterval
	if logInterval == 0 {
		logInterval = time.Minute
	}
	sockets := config.Sockets
	if sockets == nil {
		sockets = RealUDPSocketFactory{}
	}
	return &Listener{
		address:     config.Address,
		port:        config.Port,
		rcvBuf:      config.RcvBuf,
		logInterval: logInterval,
		stats:       stats,
		forwarder:   config.Forwarder,
		dispatcher:  config.Dispatcher,
		sockets:     sockets,
	}
}

// Stats returns the listener's statistics.
func (l *Listener) Stats() *Stats {
	return l.stats
}

// Bind acquires the UDP port. A port held by someone else yields an error
// wrapping ErrPortInUse; no retry is attempted.
func (l *Listener) Bind() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return ErrAlreadyBound
	}

	hostPort := net.JoinHostPort(l.address, strconv.Itoa(l.port))
	addr, err := net.ResolveUDPAddr("udp", hostPort)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address %s: %w", hostPort, err)
	}

	conn, err := l.sockets.ListenUDP("udp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("%w: %s: %v", ErrPortInUse, hostPort, err)
		}
		return fmt.Errorf("failed to listen on UDP address %s: %w", hostPort, err)
	}

	if l.rcvBuf > 0 {
		if err := conn.SetReadBuffer(l.rcvBuf); err != nil {
			monitoring.Logf("Warning: Failed to set UDP receive buffer size to %d: %v", l.rcvBuf, err)
		}
	}
	l.conn = conn
	monitoring.Logf("OSC listener bound on %s", conn.LocalAddr())
	return nil
}

// LocalAddr returns the bound address, or nil before Bind.
func (l *Listener) LocalAddr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Serve receives datagrams until ctx is cancelled or the socket is closed.
func (l *Listener) Serve(ctx context.Context) error {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return ErrNotBound
	}
	defer l.Close()

	if l.forwarder != nil {
		l.forwarder.Start(ctx)
	}
	go l.startStatsLogging(ctx)

	buffer := make([]byte, maxDatagram)
	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("OSC listener stopping due to context cancellation")
			return ctx.Err()
		default:
			// Short deadline so cancellation is noticed between datagrams
			conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))

			n, addr, err := conn.ReadFromUDP(buffer)
			if err != nil {
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if errors.Is(err, net.ErrClosed) {
					return err
				}
				monitoring.Logf("UDP read error: %v", err)
				continue
			}

			if err := l.HandlePacket(buffer[:n]); err != nil {
				monitoring.Debugf("dropping packet from %v: %v", addr, err)
			}
		}
	}
}

func (l *Listener) startStatsLogging(ctx context.Context) {
	ticker := time.NewTicker(l.logInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.stats.LogStats()
		}
	}
}

// HandlePacket decodes one datagram and dispatches it. Malformed datagrams
// are counted and reported but never stop the receive loop.
func (l *Listener) HandlePacket(data []byte) error {
	l.stats.AddPacket(len(data))

	if l.forwarder != nil {
		l.forwarder.ForwardAsync(data)
	}

	// ParsePacket returns a nil packet and no error when the first byte is
	// neither '/' nor '#'.
	packet, err := osc.ParsePacket(string(data))
	if err != nil {
		l.stats.AddMalformed()
		return fmt.Errorf("failed to parse OSC packet: %w", err)
	}
	if packet == nil {
		l.stats.AddMalformed()
		return ErrNotOSC
	}
	l.stats.AddMessages(CountMessages(packet))

	if l.dispatcher != nil {
		l.dispatcher.Dispatch(packet)
	}
	return nil
}

// CountMessages returns the number of messages in packet, including those
// inside nested bundles.
func CountMessages(packet osc.Packet) int {
	switch p := packet.(type) {
	case *osc.Message:
		return 1
	case *osc.Bundle:
		n := len(p.Messages)
		for _, b := range p.Bundles {
			n += CountMessages(b)
		}
		return n
	default:
		return 0
	}
}

// Close releases the socket. It is safe to call more than once.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	err := l.conn.Close()
	l.conn = nil
	return err
}
