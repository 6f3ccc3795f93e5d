package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment override, e.g. GAZE_ALPHA=1.2.
const EnvPrefix = "GAZE_"

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Strategy selects how the bridge attaches to the host input system.
type Strategy string

const (
	// StrategyStandalone owns its own OSC endpoint.
	StrategyStandalone Strategy = "standalone"
	// StrategyRedirect wraps the legacy Babble driver and takes over only
	// the eye addresses.
	StrategyRedirect Strategy = "redirect"
)

// OpennessMode selects how an eyelid sample maps to openness. Both formulas
// shipped in different releases of the tracker integration and neither has
// been confirmed as the intended one, so the choice is explicit.
type OpennessMode string

const (
	// OpennessInverted treats the lid sample as closure: openness = 1 - lid.
	OpennessInverted OpennessMode = "inverted"
	// OpennessDirect passes the lid sample through as openness.
	OpennessDirect OpennessMode = "direct"
)

// Config is the bridge configuration. Pointer fields distinguish "unset" from
// zero so JSON files, environment variables and flags can be layered; the
// Get* accessors supply defaults for anything left nil.
type Config struct {
	Enabled          *bool    `json:"enabled,omitempty" env:"ENABLED"`
	Alpha            *float32 `json:"alpha,omitempty" env:"ALPHA"`
	Beta             *float32 `json:"beta,omitempty" env:"BETA"`
	OpennessMode     *string  `json:"openness_mode,omitempty" env:"OPENNESS_MODE"`
	StrictProjection *bool    `json:"strict_projection,omitempty" env:"STRICT_PROJECTION"`

	Strategy      *string  `json:"strategy,omitempty" env:"STRATEGY"`
	OSCAddress    *string  `json:"osc_address,omitempty" env:"OSC_ADDRESS"`
	OSCPort       *int     `json:"osc_port,omitempty" env:"OSC_PORT"`
	TickRateHz    *float64 `json:"tick_rate_hz,omitempty" env:"TICK_RATE_HZ"`
	VRActive      *bool    `json:"vr_active,omitempty" env:"VR_ACTIVE"`
	LegacyEnabled *bool    `json:"legacy_enabled,omitempty" env:"LEGACY_ENABLED"`

	// Raw packet tee, e.g. to keep a second consumer of the tracker fed.
	ForwardAddr *string `json:"forward_addr,omitempty" env:"FORWARD_ADDR"`
	ForwardPort *int    `json:"forward_port,omitempty" env:"FORWARD_PORT"`

	// Committed eye frames re-published as OSC to the avatar host.
	OutputAddr *string `json:"output_addr,omitempty" env:"OUTPUT_ADDR"`
	OutputPort *int    `json:"output_port,omitempty" env:"OUTPUT_PORT"`
}

// Helper functions to create pointers
func ptrBool(v bool) *bool          { return &v }
func ptrFloat32(v float32) *float32 { return &v }
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// Bool, Float32, Float64, String and Int return pointers for building
// partial configs in code and tests.
func Bool(v bool) *bool          { return ptrBool(v) }
func Float32(v float32) *float32 { return ptrFloat32(v) }
func Float64(v float64) *float64 { return ptrFloat64(v) }
func String(v string) *string    { return ptrString(v) }
func Int(v int) *int             { return ptrInt(v) }

// DefaultConfig returns a Config with every field populated with its default.
func DefaultConfig() *Config {
	return &Config{
		Enabled:          ptrBool(true),
		Alpha:            ptrFloat32(1.0),
		Beta:             ptrFloat32(1.0),
		OpennessMode:     ptrString(string(OpennessInverted)),
		StrictProjection: ptrBool(false),
		Strategy:         ptrString(string(StrategyStandalone)),
		OSCAddress:       ptrString("0.0.0.0"),
		OSCPort:          ptrInt(8888),
		TickRateHz:       ptrFloat64(90),
		VRActive:         ptrBool(true),
		LegacyEnabled:    ptrBool(false),
	}
}

// LoadConfig loads a Config from a JSON file. Fields omitted from the file stay
// nil and fall back to defaults through the Get* accessors.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays GAZE_* environment variables onto c. Variables that are
// not set leave the corresponding field untouched.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// Merge copies every non-nil field of o onto c.
func (c *Config) Merge(o *Config) {
	if o == nil {
		return
	}
	if o.Enabled != nil {
		c.Enabled = ptrBool(*o.Enabled)
	}
	if o.Alpha != nil {
		c.Alpha = ptrFloat32(*o.Alpha)
	}
	if o.Beta != nil {
		c.Beta = ptrFloat32(*o.Beta)
	}
	if o.OpennessMode != nil {
		c.OpennessMode = ptrString(*o.OpennessMode)
	}
	if o.StrictProjection != nil {
		c.StrictProjection = ptrBool(*o.StrictProjection)
	}
	if o.Strategy != nil {
		c.Strategy = ptrString(*o.Strategy)
	}
	if o.OSCAddress != nil {
		c.OSCAddress = ptrString(*o.OSCAddress)
	}
	if o.OSCPort != nil {
		c.OSCPort = ptrInt(*o.OSCPort)
	}
	if o.TickRateHz != nil {
		c.TickRateHz = ptrFloat64(*o.TickRateHz)
	}
	if o.VRActive != nil {
		c.VRActive = ptrBool(*o.VRActive)
	}
	if o.LegacyEnabled != nil {
		c.LegacyEnabled = ptrBool(*o.LegacyEnabled)
	}
	if o.ForwardAddr != nil {
		c.ForwardAddr = ptrString(*o.ForwardAddr)
	}
	if o.ForwardPort != nil {
		c.ForwardPort = ptrInt(*o.ForwardPort)
	}
	if o.OutputAddr != nil {
		c.OutputAddr = ptrString(*o.OutputAddr)
	}
	if o.OutputPort != nil {
		c.OutputPort = ptrInt(*o.OutputPort)
	}
}

// ApplyPreset fills in what the chosen strategy implies for fields the
// caller left unset. The redirect strategy keeps the legacy driver's
// openness convention and passes the lid sample through.
func (c *Config) ApplyPreset() {
	if c.OpennessMode == nil && c.GetStrategy() == StrategyRedirect {
		c.OpennessMode = ptrString(string(OpennessDirect))
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := &Config{}
	out.Merge(c)
	return out
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.OpennessMode != nil {
		switch OpennessMode(*c.OpennessMode) {
		case OpennessInverted, OpennessDirect:
		default:
			return fmt.Errorf("%w: openness_mode must be %q or %q, got %q",
				ErrInvalidConfig, OpennessInverted, OpennessDirect, *c.OpennessMode)
		}
	}

	if c.Strategy != nil {
		switch Strategy(*c.Strategy) {
		case StrategyStandalone, StrategyRedirect:
		default:
			return fmt.Errorf("%w: strategy must be %q or %q, got %q",
				ErrInvalidConfig, StrategyStandalone, StrategyRedirect, *c.Strategy)
		}
	}

	for name, port := range map[string]*int{"osc_port": c.OSCPort, "forward_port": c.ForwardPort, "output_port": c.OutputPort} {
		if port != nil && (*port < 0 || *port > 65535) {
			return fmt.Errorf("%w: %s must be between 0 and 65535, got %d", ErrInvalidConfig, name, *port)
		}
	}

	if c.TickRateHz != nil && !(*c.TickRateHz > 0) {
		return fmt.Errorf("%w: tick_rate_hz must be positive, got %v", ErrInvalidConfig, *c.TickRateHz)
	}

	if c.GetStrictProjection() {
		if err := checkProjectionMultiplier("alpha", c.GetAlpha()); err != nil {
			return err
		}
		if err := checkProjectionMultiplier("beta", c.GetBeta()); err != nil {
			return err
		}
	}

	return nil
}

// checkProjectionMultiplier rejects multipliers that can push tan() onto its
// asymptote for offsets in [-1, 1].
func checkProjectionMultiplier(name string, v float32) error {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidConfig, name, v)
	}
	if math.Abs(f) >= math.Pi/2 {
		return fmt.Errorf("%w: %s must be within (-pi/2, pi/2) with strict_projection, got %v", ErrInvalidConfig, name, v)
	}
	return nil
}

// GetEnabled returns the enabled value or the default.
func (c *Config) GetEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// GetAlpha returns the horizontal swing multiplier or the default.
func (c *Config) GetAlpha() float32 {
	if c.Alpha == nil {
		return 1.0
	}
	return *c.Alpha
}

// GetBeta returns the vertical swing multiplier or the default.
func (c *Config) GetBeta() float32 {
	if c.Beta == nil {
		return 1.0
	}
	return *c.Beta
}

// GetOpennessMode returns the openness formula or the default.
func (c *Config) GetOpennessMode() OpennessMode {
	if c.OpennessMode == nil || *c.OpennessMode == "" {
		return OpennessInverted
	}
	return OpennessMode(*c.OpennessMode)
}

// GetStrictProjection returns the strict_projection value or the default.
func (c *Config) GetStrictProjection() bool {
	if c.StrictProjection == nil {
		return false
	}
	return *c.StrictProjection
}

// GetStrategy returns the integration strategy or the default.
func (c *Config) GetStrategy() Strategy {
	if c.Strategy == nil || *c.Strategy == "" {
		return StrategyStandalone
	}
	return Strategy(*c.Strategy)
}

// GetOSCAddress returns the bind host or the default.
func (c *Config) GetOSCAddress() string {
	if c.OSCAddress == nil {
		return "0.0.0.0"
	}
	return *c.OSCAddress
}

// GetOSCPort returns the OSC listen port or the default.
func (c *Config) GetOSCPort() int {
	if c.OSCPort == nil {
		return 8888
	}
	return *c.OSCPort
}

// GetTickRateHz returns the host tick rate or the default.
func (c *Config) GetTickRateHz() float64 {
	if c.TickRateHz == nil {
		return 90
	}
	return *c.TickRateHz
}

// GetVRActive returns the initial host VR-active flag or the default.
func (c *Config) GetVRActive() bool {
	if c.VRActive == nil {
		return true
	}
	return *c.VRActive
}

// GetLegacyEnabled returns the legacy driver's own init gate or the default.
func (c *Config) GetLegacyEnabled() bool {
	if c.LegacyEnabled == nil {
		return false
	}
	return *c.LegacyEnabled
}

// GetForward returns the raw-packet tee destination; ok is false when
// forwarding is not configured.
func (c *Config) GetForward() (addr string, port int, ok bool) {
	if c.ForwardPort == nil || *c.ForwardPort == 0 {
		return "", 0, false
	}
	addr = "127.0.0.1"
	if c.ForwardAddr != nil && *c.ForwardAddr != "" {
		addr = *c.ForwardAddr
	}
	return addr, *c.ForwardPort, true
}

// GetOutput returns the OSC output destination; ok is false when output is
// not configured.
func (c *Config) GetOutput() (addr string, port int, ok bool) {
	if c.OutputPort == nil || *c.OutputPort == 0 {
		return "", 0, false
	}
	addr = "127.0.0.1"
	if c.OutputAddr != nil && *c.OutputAddr != "" {
		addr = *c.OutputAddr
	}
	return addr, *c.OutputPort, true
}
