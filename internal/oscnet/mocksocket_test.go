package oscnet

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockUDPSocket_Reads(t *testing.T) {
	from := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 9000}
	transient := errors.New("transient")

	tests := []struct {
		name     string
		setup    func(*MockUDPSocket)
		wantData []string
		wantErrs []error
	}{
		{
			name:     "queue order",
			setup:    func(m *MockUDPSocket) { m.Push([]byte("b"), from) },
			wantData: []string{"a", "b", ""},
			wantErrs: []error{nil, nil, errReadTimeout},
		},
		{
			name:     "read error is one-shot",
			setup:    func(m *MockUDPSocket) { m.ReadError = transient },
			wantData: []string{"", "a"},
			wantErrs: []error{transient, nil},
		},
		{
			name:     "closed",
			setup:    func(m *MockUDPSocket) { _ = m.Close() },
			wantData: []string{""},
			wantErrs: []error{net.ErrClosed},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockUDPSocket([]byte("a"))
			tt.setup(m)

			buf := make([]byte, 8)
			for i := range tt.wantErrs {
				n, _, err := m.ReadFromUDP(buf)
				assert.ErrorIs(t, err, tt.wantErrs[i], "read %d", i)
				assert.Equal(t, tt.wantData[i], string(buf[:n]), "read %d", i)
			}
		})
	}
}

func TestMockUDPSocket_DrainedTimesOut(t *testing.T) {
	m := NewMockUDPSocket([]byte("x"))
	calls := 0
	m.OnDrained = func() { calls++ }
	assert.Equal(t, 1, m.Remaining())

	_, addr, err := m.ReadFromUDP(make([]byte, 4))
	require.NoError(t, err)
	assert.Equal(t, 40000, addr.Port)
	assert.Zero(t, m.Remaining())

	for i := 0; i < 2; i++ {
		_, _, err = m.ReadFromUDP(make([]byte, 4))
		var ne net.Error
		require.True(t, errors.As(err, &ne))
		assert.True(t, ne.Timeout())
	}
	assert.Equal(t, 1, calls, "OnDrained runs once")
}
