package main

import (
	"flag"
	"fmt"

	"github.com/banshee-data/gaze.bridge/internal/config"
)

// options holds the command-line flags. Configuration flags only override
// the file and environment when they are given explicitly.
type options struct {
	configFile   *string
	listen       *string
	debug        *bool
	version      *bool
	pcapFile     *string
	pcapRealtime *bool

	strategy      *string
	address       *string
	port          *int
	alpha         *float64
	beta          *float64
	openness      *string
	strict        *bool
	tickRate      *float64
	vrActive      *bool
	enabled       *bool
	legacyEnabled *bool
	forwardAddr   *string
	forwardPort   *int
	outputAddr    *string
	outputPort    *int
}

func registerFlags(fs *flag.FlagSet) *options {
	return &options{
		configFile:   fs.String("config", "", "Path to a JSON configuration file"),
		listen:       fs.String("listen", "127.0.0.1:8089", "Admin HTTP listen address (empty to disable)"),
		debug:        fs.Bool("debug", false, "Log every rejected message and tick"),
		version:      fs.Bool("version", false, "Print version and exit"),
		pcapFile:     fs.String("pcap", "", "Replay OSC traffic from a PCAP file instead of listening (requires -tags=pcap)"),
		pcapRealtime: fs.Bool("pcap-realtime", true, "Replay PCAP packets at their captured pace"),

		strategy:      fs.String("strategy", string(config.StrategyStandalone), "Integration strategy: standalone or redirect"),
		address:       fs.String("address", "0.0.0.0", "OSC bind address"),
		port:          fs.Int("port", 8888, "OSC UDP port"),
		alpha:         fs.Float64("alpha", 1.0, "Horizontal eye swing multiplier"),
		beta:          fs.Float64("beta", 1.0, "Vertical eye swing multiplier"),
		openness:      fs.String("openness", string(config.OpennessInverted), "Eyelid mapping: inverted (1-lid) or direct (lid)"),
		strict:        fs.Bool("strict-projection", false, "Reject swing multipliers that can reach the tangent asymptote"),
		tickRate:      fs.Float64("tick-rate", 90, "Host update rate in Hz"),
		vrActive:      fs.Bool("vr-active", true, "Start with a headset session active"),
		enabled:       fs.Bool("enabled", true, "Enable the eye bridge"),
		legacyEnabled: fs.Bool("legacy-enabled", false, "Initialize the Babble mouth driver"),
		forwardAddr:   fs.String("forward-addr", "127.0.0.1", "Address to forward raw OSC packets to"),
		forwardPort:   fs.Int("forward-port", 0, "Port to forward raw OSC packets to (0 disables)"),
		outputAddr:    fs.String("output-addr", "127.0.0.1", "Address to publish committed eye frames to"),
		outputPort:    fs.Int("output-port", 0, "Port to publish committed eye frames to (0 disables)"),
	}
}

// overrides returns a Config holding only the flags set on fs.
func (o *options) overrides(fs *flag.FlagSet) *config.Config {
	c := &config.Config{}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "strategy":
			c.Strategy = config.String(*o.strategy)
		case "address":
			c.OSCAddress = config.String(*o.address)
		case "port":
			c.OSCPort = config.Int(*o.port)
		case "alpha":
			c.Alpha = config.Float32(float32(*o.alpha))
		case "beta":
			c.Beta = config.Float32(float32(*o.beta))
		case "openness":
			c.OpennessMode = config.String(*o.openness)
		case "strict-projection":
			c.StrictProjection = config.Bool(*o.strict)
		case "tick-rate":
			c.TickRateHz = config.Float64(*o.tickRate)
		case "vr-active":
			c.VRActive = config.Bool(*o.vrActive)
		case "enabled":
			c.Enabled = config.Bool(*o.enabled)
		case "legacy-enabled":
			c.LegacyEnabled = config.Bool(*o.legacyEnabled)
		case "forward-addr":
			c.ForwardAddr = config.String(*o.forwardAddr)
		case "forward-port":
			c.ForwardPort = config.Int(*o.forwardPort)
		case "output-addr":
			c.OutputAddr = config.String(*o.outputAddr)
		case "output-port":
			c.OutputPort = config.Int(*o.outputPort)
		}
	})
	return c
}

// buildConfig layers the configuration: file, then GAZE_* environment, then
// explicit flags. Unset fields fall back to defaults in the accessors.
func (o *options) buildConfig(fs *flag.FlagSet) (*config.Config, error) {
	cfg := &config.Config{}
	if *o.configFile != "" {
		fileCfg, err := config.LoadConfig(*o.configFile)
		if err != nil {
			return nil, err
		}
		cfg.Merge(fileCfg)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.Merge(o.overrides(fs))
	cfg.ApplyPreset()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}
	return cfg, nil
}
