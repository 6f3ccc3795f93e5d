package host

import (
	"maps"
	"sync"
)

// MouthSnapshot is one committed mouth frame.
type MouthSnapshot struct {
	Device         string             `json:"device"`
	TrackingActive bool               `json:"tracking_active"`
	Shapes         map[string]float32 `json:"shapes"`
	Commits        int64              `json:"commits"`
}

// MouthTarget implements input.Mouth.
type MouthTarget struct {
	device string

	mu             sync.Mutex
	trackingActive bool
	working        map[string]float32
	committed      map[string]float32
	commits        int64
}

func newMouthTarget(device string) *MouthTarget {
	return &MouthTarget{
		device:    device,
		working:   make(map[string]float32),
		committed: make(map[string]float32),
	}
}

func (m *MouthTarget) SetTrackingActive(v bool) {
	m.mu.Lock()
	m.trackingActive = v
	m.mu.Unlock()
}

func (m *MouthTarget) SetShape(name string, weight float32) {
	m.mu.Lock()
	m.working[name] = weight
	m.mu.Unlock()
}

func (m *MouthTarget) FinishUpdate() error {
	m.mu.Lock()
	m.committed = maps.Clone(m.working)
	m.commits++
	m.mu.Unlock()
	return nil
}

// Snapshot returns the last committed weights.
func (m *MouthTarget) Snapshot() MouthSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MouthSnapshot{
		Device:         m.device,
		TrackingActive: m.trackingActive,
		Shapes:         maps.Clone(m.committed),
		Commits:        m.commits,
	}
}
