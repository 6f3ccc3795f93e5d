package oscnet

import (
	"net"
	"sync"
	"time"
)

// MockUDPPacket is one queued datagram and its sender.
type MockUDPPacket struct {
	Data []byte
	Addr *net.UDPAddr
}

var (
	mockLocal  = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8888}
	mockRemote = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}
)

// MockUDPSocket serves queued datagrams in order. Once the queue is empty
// every read looks like an expired deadline, so Serve keeps polling until its
// context ends.
type MockUDPSocket struct {
	// LocalAddress is reported by LocalAddr.
	LocalAddress *net.UDPAddr
	// ReadError, when set, fails the next read and is then cleared.
	ReadError error
	// SetReadBufferError fails SetReadBuffer.
	SetReadBufferError error
	// OnDrained is called once, on the first read that finds the queue empty.
	OnDrained func()

	// Closed and ReadBufferSize record what the listener did to the socket.
	Closed         bool
	ReadBufferSize int

	mu    sync.Mutex
	queue []MockUDPPacket
}

// NewMockUDPSocket queues each datagram as if sent from 127.0.0.1:40000.
func NewMockUDPSocket(datagrams ...[]byte) *MockUDPSocket {
	m := &MockUDPSocket{LocalAddress: mockLocal}
	for _, d := range datagrams {
		m.Push(d, mockRemote)
	}
	return m
}

// Push queues a datagram from the given sender.
func (m *MockUDPSocket) Push(data []byte, from *net.UDPAddr) {
	m.mu.Lock()
	m.queue = append(m.queue, MockUDPPacket{Data: data, Addr: from})
	m.mu.Unlock()
}

// Remaining reports how many datagrams are still queued.
func (m *MockUDPSocket) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *MockUDPSocket) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	m.mu.Lock()
	switch {
	case m.Closed:
		m.mu.Unlock()
		return 0, nil, net.ErrClosed
	case m.ReadError != nil:
		err := m.ReadError
		m.ReadError = nil
		m.mu.Unlock()
		return 0, nil, err
	case len(m.queue) == 0:
		drained := m.OnDrained
		m.OnDrained = nil
		m.mu.Unlock()
		if drained != nil {
			drained()
		}
		return 0, nil, errReadTimeout
	}
	head := m.queue[0]
	m.queue = m.queue[1:]
	m.mu.Unlock()
	return copy(b, head.Data), head.Addr, nil
}

func (m *MockUDPSocket) SetReadBuffer(bytes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetReadBufferError != nil {
		return m.SetReadBufferError
	}
	m.ReadBufferSize = bytes
	return nil
}

func (m *MockUDPSocket) SetReadDeadline(time.Time) error { return nil }

func (m *MockUDPSocket) LocalAddr() net.Addr { return m.LocalAddress }

func (m *MockUDPSocket) Close() error {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	return nil
}

// MockUDPSocketFactory hands out Socket, or fails with Error, and records
// every address it was asked to listen on.
type MockUDPSocketFactory struct {
	Socket      *MockUDPSocket
	Error       error
	ListenCalls []*net.UDPAddr
}

func (f *MockUDPSocketFactory) ListenUDP(_ string, laddr *net.UDPAddr) (UDPSocket, error) {
	f.ListenCalls = append(f.ListenCalls, laddr)
	if f.Error != nil {
		return nil, f.Error
	}
	return f.Socket, nil
}
