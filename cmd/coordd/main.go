package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/invopop/jsonschema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/rhc-coord/internal/config"
	"github.com/marmos91/rhc-coord/internal/logger"
	"github.com/marmos91/rhc-coord/internal/telemetry"
	"github.com/marmos91/rhc-coord/pkg/api"
	"github.com/marmos91/rhc-coord/pkg/api/auth"
	"github.com/marmos91/rhc-coord/pkg/consensus"
	"github.com/marmos91/rhc-coord/pkg/crdt"
	"github.com/marmos91/rhc-coord/pkg/crypto"
	"github.com/marmos91/rhc-coord/pkg/hlc"
	"github.com/marmos91/rhc-coord/pkg/lease"
	"github.com/marmos91/rhc-coord/pkg/metrics"
	"github.com/marmos91/rhc-coord/pkg/node"
	"github.com/marmos91/rhc-coord/pkg/statemachine"
	badgerstore "github.com/marmos91/rhc-coord/pkg/statemachine/store/badger"
	memorystore "github.com/marmos91/rhc-coord/pkg/statemachine/store/memory"
	postgresstore "github.com/marmos91/rhc-coord/pkg/statemachine/store/postgres"
	"github.com/marmos91/rhc-coord/pkg/transport"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `coordd - geographically distributed filesystem coordination core

Usage:
  coordd <command> [flags]

Commands:
  start          Start the coordination core daemon
  config-schema  Print the JSON schema for the config file
  version        Show version information

Flags:
  --config string    Path to config file (default: $XDG_CONFIG_HOME/coordd/config.yaml)

Examples:
  coordd start
  coordd start --config /etc/coordd/config.yaml
  COORD_LOGGING_LEVEL=DEBUG coordd start
  coordd config-schema --output config.schema.json
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "start":
		runStart()
	case "config-schema":
		runConfigSchema()
	case "help", "--help", "-h":
		fmt.Print(usage)
	case "version", "--version", "-v":
		fmt.Printf("coordd %s (commit: %s, built: %s)\n", version, commit, date)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runStart() {
	startFlags := flag.NewFlagSet("start", flag.ExitOnError)
	configFile := startFlags.String("config", "", "Path to config file")
	if err := startFlags.Parse(os.Args[2:]); err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "coordd",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	logger.Info("coordd starting", "node_id", cfg.Node.ID, "version", version)

	n, group, err := buildNode(cfg)
	if err != nil {
		log.Fatalf("failed to assemble node: %v", err)
	}

	broadcaster := transport.NewHTTPBroadcaster(cfg.Group.PeerAddrs)
	group.UseBroadcaster(broadcaster)
	receiver := transport.NewReceiver(group, broadcaster)

	consensusServer := &http.Server{Addr: cfg.Group.Listen, Handler: receiver.Handler()}
	go func() {
		logger.Info("consensus transport listening", "addr", cfg.Group.Listen)
		if err := consensusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("consensus transport failed", "error", err)
		}
	}()
	defer func() { _ = consensusServer.Shutdown(context.Background()) }()

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		n.Metrics = metrics.New(registry)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}
		go func() {
			logger.Info("metrics listening", "addr", cfg.Metrics.Listen)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() { _ = metricsServer.Shutdown(context.Background()) }()
	}

	var apiServer *api.Server
	if cfg.API.IsEnabled() {
		jwtService, err := auth.NewService(auth.Config{Secret: cfg.API.JWTSecret, Issuer: cfg.API.JWTIssuer})
		if err != nil {
			log.Fatalf("failed to initialize operator auth: %v", err)
		}
		apiServer = api.NewServer(api.Config{Port: listenPort(cfg.API.Listen)}, n, jwtService)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverDone := make(chan error, 1)
	if apiServer != nil {
		go func() { serverDone <- apiServer.Start(ctx) }()
	}

	logger.Info("coordd is running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received")
		cancel()
		if apiServer != nil {
			if err := <-serverDone; err != nil {
				logger.Error("status API shutdown error", "error", err)
			}
		}
	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("status API error", "error", err)
		}
	}
	logger.Info("coordd stopped")
}

// buildNode wires the clock, lease manager, state machine, and consensus
// group together, resolving the construction cycle between Node (which
// needs to exist to be the group's validator/applier) and Group (which
// Node needs a reference back to) via Node.SetGroup.
func buildNode(cfg *config.Config) (*node.Node, *consensus.Group, error) {
	clock := hlc.New()
	self := crdt.ActorId(cfg.Node.ID)

	leases := lease.NewManager(self, clock)

	backend, err := openBackend(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open state machine backend: %w", err)
	}
	machine := statemachine.New(backend)

	threshold, err := crypto.LoadThresholdGroup(cfg.Group.ThresholdPublicPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load threshold public material: %w", err)
	}
	share, err := crypto.LoadShare(cfg.Group.ThresholdSharePath)
	if err != nil {
		return nil, nil, fmt.Errorf("load threshold share: %w", err)
	}

	n := node.New(node.Config{Self: self, Clock: clock, Leases: leases, Machine: machine})

	group, err := consensus.NewGroup(cfg.Node.ID, cfg.Group.Members, cfg.Group.Quorum, threshold, share, clock, n, n)
	if err != nil {
		return nil, nil, fmt.Errorf("build consensus group: %w", err)
	}
	n.SetGroup(group)

	return n, group, nil
}

func openBackend(cfg config.StoreConfig) (statemachine.Backend, error) {
	switch cfg.Backend {
	case "badger":
		return badgerstore.Open(cfg.BadgerDir)
	case "postgres":
		return postgresstore.Open(context.Background(), cfg.PostgresDSN)
	default:
		return memorystore.New(), nil
	}
}

func listenPort(addr string) int {
	var port int
	if _, err := fmt.Sscanf(addr, "127.0.0.1:%d", &port); err == nil {
		return port
	}
	if _, err := fmt.Sscanf(addr, ":%d", &port); err == nil {
		return port
	}
	return 8080
}

func runConfigSchema() {
	schemaFlags := flag.NewFlagSet("config-schema", flag.ExitOnError)
	output := schemaFlags.String("output", "", "Output file (default: stdout)")
	if err := schemaFlags.Parse(os.Args[2:]); err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "coordd configuration"
	schema.Description = "Configuration schema for the coordination core daemon"

	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("failed to generate schema: %v", err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, schemaJSON, 0644); err != nil {
			log.Fatalf("failed to write schema file: %v", err)
		}
		fmt.Printf("JSON schema written to %s\n", *output)
		return
	}

	fmt.Println(string(schemaJSON))
}
