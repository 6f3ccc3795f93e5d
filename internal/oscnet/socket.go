package oscnet

import (
	"net"
	"time"
)

// UDPSocket is the slice of *net.UDPConn the listener reads through.
type UDPSocket interface {
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
	SetReadBuffer(bytes int) error
	SetReadDeadline(t time.Time) error
	LocalAddr() net.Addr
	Close() error
}

// UDPSocketFactory opens the listener's socket.
type UDPSocketFactory interface {
	ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error)
}

// RealUDPSocketFactory opens kernel sockets.
type RealUDPSocketFactory struct{}

func (RealUDPSocketFactory) ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error) {
	conn, err := net.ListenUDP(network, laddr)
	if err != nil {
		// Avoid returning a typed nil inside the interface.
		return nil, err
	}
	return conn, nil
}

// errReadTimeout is what a drained MockUDPSocket reports, shaped like the
// error an expired read deadline produces.
var errReadTimeout = &net.OpError{Op: "read", Net: "udp", Err: deadlineExceeded{}}

type deadlineExceeded struct{}

func (deadlineExceeded) Error() string   { return "i/o timeout" }
func (deadlineExceeded) Timeout() bool   { return true }
func (deadlineExceeded) Temporary() bool { return true }
