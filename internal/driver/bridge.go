package driver

import (
	"time"

	"github.com/google/uuid"
	"github.com/hypebeast/go-osc/osc"

	"github.com/banshee-data/gaze.bridge/internal/config"
	"github.com/banshee-data/gaze.bridge/internal/eyes"
	"github.com/banshee-data/gaze.bridge/internal/input"
	"github.com/banshee-data/gaze.bridge/internal/monitoring"
	"github.com/banshee-data/gaze.bridge/internal/version"
)

// Bridge is the eye-tracking core shared by both strategies: the sample
// store, the dispatcher writing into it and the aggregator reading it.
type Bridge struct {
	id         string
	started    time.Time
	cfg        *config.Store
	store      *eyes.SampleStore
	dispatcher *eyes.Dispatcher
	aggregator *eyes.Aggregator
}

// NewBridge returns a Bridge reading live settings from cfg.
func NewBridge(cfg *config.Store) *Bridge {
	store := eyes.NewSampleStore()
	b := &Bridge{
		id:         uuid.NewString(),
		started:    time.Now(),
		cfg:        cfg,
		store:      store,
		dispatcher: eyes.NewDispatcher(store),
		aggregator: eyes.NewAggregator(store, cfg),
	}
	monitoring.Logf("bridge: session %s", b.id)
	return b
}

// ID identifies this bridge instance in logs and the status page.
func (b *Bridge) ID() string { return b.id }

// Config returns the live configuration.
func (b *Bridge) Config() *config.Store { return b.cfg }

// Store returns the sample store.
func (b *Bridge) Store() *eyes.SampleStore { return b.store }

// Dispatcher returns the dispatcher writing into the store.
func (b *Bridge) Dispatcher() *eyes.Dispatcher { return b.dispatcher }

// Enabled reports the configured enable flag.
func (b *Bridge) Enabled() bool { return b.cfg.Current().GetEnabled() }

// Register creates the eyes device on host.
func (b *Bridge) Register(host input.Host) { b.aggregator.Register(host) }

// Registered reports whether Register has run.
func (b *Bridge) Registered() bool { return b.aggregator.Registered() }

// Tick runs one aggregator update.
func (b *Bridge) Tick(dt float64) error { return b.aggregator.Update(dt) }

// Handle stores msg if it carries an eye sample.
func (b *Bridge) Handle(msg *osc.Message) bool { return b.dispatcher.Apply(msg) }

// Status is the bridge state reported on the admin page.
type Status struct {
	Session    string             `json:"session"`
	Version    string             `json:"version"`
	Uptime     string             `json:"uptime"`
	Strategy   string             `json:"strategy"`
	Enabled    bool               `json:"enabled"`
	Registered bool               `json:"registered"`
	Active     bool               `json:"active"`
	Samples    map[string]float32 `json:"samples"`
}

// Status returns the current bridge state.
func (b *Bridge) Status() Status {
	cfg := b.cfg.Current()
	return Status{
		Session:    b.id,
		Version:    version.String(),
		Uptime:     time.Since(b.started).Round(time.Second).String(),
		Strategy:   string(cfg.GetStrategy()),
		Enabled:    cfg.GetEnabled(),
		Registered: b.aggregator.Registered(),
		Active:     b.aggregator.Active(),
		Samples:    b.store.Snapshot().Map(),
	}
}
