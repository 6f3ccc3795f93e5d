// Command gazebridge receives eye-tracking OSC from a Project Babble tracker
// and drives the avatar host's eye input.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/gaze.bridge/internal/babble"
	"github.com/banshee-data/gaze.bridge/internal/config"
	"github.com/banshee-data/gaze.bridge/internal/driver"
	"github.com/banshee-data/gaze.bridge/internal/host"
	"github.com/banshee-data/gaze.bridge/internal/monitoring"
	"github.com/banshee-data/gaze.bridge/internal/oscnet"
	"github.com/banshee-data/gaze.bridge/internal/timeutil"
	"github.com/banshee-data/gaze.bridge/internal/version"
)

var opts = registerFlags(flag.CommandLine)

// receiver is the OSC input side of a strategy.
type receiver struct {
	listener *oscnet.Listener
	serve    func(ctx context.Context) error
}

func main() {
	flag.Parse()

	if *opts.version {
		fmt.Println(version.String())
		return
	}
	monitoring.SetDebug(*opts.debug)

	cfg, err := opts.buildConfig(flag.CommandLine)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("%s starting: strategy=%s openness=%s alpha=%.2f beta=%.2f",
		version.String(), cfg.GetStrategy(), cfg.GetOpennessMode(), cfg.GetAlpha(), cfg.GetBeta())

	store := config.NewStore(cfg)
	in := host.NewInput(cfg.GetVRActive())
	if addr, port, ok := cfg.GetOutput(); ok {
		in.AddPublisher(host.NewOSCOutput(addr, port))
		log.Printf("Publishing eye frames to %s:%d", addr, port)
	}

	stats := oscnet.NewStats()
	var forwarder *oscnet.Forwarder
	if addr, port, ok := cfg.GetForward(); ok {
		forwarder, err = oscnet.NewForwarder(addr, port, stats, time.Minute)
		if err != nil {
			log.Fatalf("Failed to create forwarder: %v", err)
		}
		defer forwarder.Close()
	}

	bridge := driver.NewBridge(store)
	lc := oscnet.ListenerConfig{
		Address:   cfg.GetOSCAddress(),
		Port:      cfg.GetOSCPort(),
		RcvBuf:    1 << 20,
		Stats:     stats,
		Forwarder: forwarder,
	}

	var drv host.Driver
	var rx receiver
	switch cfg.GetStrategy() {
	case config.StrategyRedirect:
		legacy := babble.NewDriver(store)
		redirector, err := driver.NewRedirector(legacy, bridge)
		if err != nil {
			log.Fatalf("Failed to install eye redirect: %v", err)
		}
		lc.Dispatcher = driver.Dispatcher(redirector)
		listener := oscnet.NewListener(lc)
		if *opts.pcapFile == "" {
			if err := listener.Bind(); err != nil {
				log.Fatalf("Failed to bind OSC port: %v", err)
			}
		}
		drv = redirector
		rx = receiver{listener: listener, serve: listener.Serve}
	default:
		standalone := driver.NewStandalone(bridge, lc)
		standalone.SetReplay(*opts.pcapFile != "")
		drv = standalone
		rx = receiver{listener: standalone.Listener(), serve: standalone.Serve}
	}

	loop := host.NewLoop(in, timeutil.RealClock{}, cfg.GetTickRateHz(), drv)
	if loop.Init() == 0 {
		log.Printf("No driver initialized; eye input will stay idle")
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// OSC input: live socket or PCAP replay
	wg.Add(1)
	go func() {
		defer wg.Done()
		if *opts.pcapFile != "" {
			err := oscnet.ReplayPCAP(ctx, *opts.pcapFile, cfg.GetOSCPort(), rx.listener.HandlePacket, *opts.pcapRealtime)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("PCAP replay failed: %v", err)
			}
			log.Print("PCAP replay routine terminated")
			return
		}
		if err := rx.serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("OSC receive stopped: %v", err)
		}
		log.Print("OSC receive routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("update loop failed: %v", err)
		}
		log.Print("update loop terminated")
	}()

	if *opts.listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()

			mux := http.NewServeMux()
			bridge.AttachAdminRoutes(mux)
			in.AttachAdminRoutes(mux)
			loop.AttachAdminRoutes(mux)
			stats.AttachAdminRoutes(mux)

			server := &http.Server{
				Addr:    *opts.listen,
				Handler: mux,
			}

			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Printf("admin server failed: %v", err)
				}
			}()

			<-ctx.Done()
			log.Println("shutting down HTTP server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
				if err := server.Close(); err != nil {
					log.Printf("HTTP server force close error: %v", err)
				}
			}
			log.Printf("HTTP server routine stopped")
		}()
	}

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
