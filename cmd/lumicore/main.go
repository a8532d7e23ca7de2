// lumicore - fixture parameter store for lighting rigs.
//
// This is the main entry point for the lumicore service. It keeps the rig's
// devices and their typed parameters in SQLite, applies parameter updates
// received over MQTT, mirrors committed state back to retained MQTT topics,
// records numeric telemetry to InfluxDB and serves a read-only HTTP API with
// a WebSocket change feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	_ "github.com/nerrad567/lumicore/migrations"

	"github.com/nerrad567/lumicore/internal/api"
	"github.com/nerrad567/lumicore/internal/device"
	"github.com/nerrad567/lumicore/internal/infrastructure/config"
	"github.com/nerrad567/lumicore/internal/infrastructure/database"
	"github.com/nerrad567/lumicore/internal/infrastructure/influxdb"
	"github.com/nerrad567/lumicore/internal/infrastructure/logging"
	"github.com/nerrad567/lumicore/internal/infrastructure/mqtt"
	"github.com/nerrad567/lumicore/internal/sinks"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

const (
	// defaultConfigPath is used when LUMICORE_CONFIG is unset.
	defaultConfigPath = "configs/config.yaml"

	// historyPruneInterval is how often expired history is deleted.
	historyPruneInterval = time.Hour

	// startupCheckTimeout bounds the health checks run before serving.
	startupCheckTimeout = 10 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // Linear startup sequence
	log := logging.Default()
	log.Info("starting lumicore",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"site", cfg.Site.ID,
		"level", cfg.Logging.Level,
	)

	// Database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Device registry
	deviceRepo := device.NewSQLiteRepository(db.DB)
	deviceRepo.SetLogger(log.Component("device-repo"))
	registry := device.NewRegistry(deviceRepo)
	registry.SetLogger(log.Component("registry"))
	if loadErr := registry.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading device registry: %w", loadErr)
	}
	log.Info("device registry loaded", "devices", registry.Count())

	checks := map[string]api.HealthChecker{"database": db}
	var sinkList []sinks.Sink

	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	go hub.Run(ctx)
	sinkList = append(sinkList, hub)

	// MQTT (optional)
	var publisher *sinks.StatePublisher
	if cfg.MQTT.Enabled {
		mqttClient, connErr := mqtt.Connect(cfg.MQTT, cfg.Site.ID)
		if connErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", connErr)
		}
		mqttClient.SetLogger(log.Component("mqtt"))
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		checks["mqtt"] = mqttClient

		qos := byte(cfg.MQTT.QoS) //nolint:gosec // Validated to 0..2 by config
		publisher = sinks.NewStatePublisher(mqttClient, mqttClient.Topics(), qos, 0)
		publisher.SetLogger(log.Component("state-publisher"))

		// Registered after the client's Close so queued state is published
		// before the connection goes away.
		pubCtx, stopPublisher := context.WithCancel(context.Background())
		pubDone := make(chan struct{})
		go func() {
			defer close(pubDone)
			publisher.Run(pubCtx)
		}()
		defer func() {
			stopPublisher()
			<-pubDone
		}()
		sinkList = append(sinkList, publisher)

		commands := sinks.NewCommandHandler(registry, mqttClient.Topics(), log.Component("commands"))
		if subErr := mqttClient.Subscribe(mqttClient.Topics().AllDeviceSets(), qos, commands.Handle); subErr != nil {
			return fmt.Errorf("subscribing to set commands: %w", subErr)
		}
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional)
	influxClient, err := influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		checks["influxdb"] = influxClient
		sinkList = append(sinkList, sinks.NewTelemetryRecorder(influxClient))
	}

	// Local history (optional)
	var historyRepo *device.SQLiteHistoryRepository
	var recorder *sinks.HistoryRecorder
	if cfg.History.Enabled {
		historyRepo = device.NewSQLiteHistoryRepository(db.DB)
		recorder = sinks.NewHistoryRecorder(historyRepo, log.Component("history"))
		sinkList = append(sinkList, recorder)
		go sinks.RunPruner(ctx, historyRepo, cfg.GetHistoryRetention(), historyPruneInterval, log.Component("history"))
	}

	// Metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := sinks.NewMetrics(promRegistry, registry.Count)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	if publisher != nil {
		if err := metrics.WatchPublisher(promRegistry, publisher); err != nil {
			return fmt.Errorf("registering publisher metrics: %w", err)
		}
	}
	sinkList = append(sinkList, metrics)

	// Every loaded device is reported to the sinks as added here.
	dispatcher := sinks.NewDispatcher(log.Component("sinks"), sinkList...)
	defer registry.Unwatch(dispatcher.Follow(registry))
	log.Info("sinks attached", "sinks", len(sinkList), "devices", dispatcher.Attached())

	if cfg.Fixtures.Path != "" {
		if importErr := importFixtures(ctx, cfg.Fixtures, registry, recorder, log); importErr != nil {
			return fmt.Errorf("importing fixtures: %w", importErr)
		}
	}

	// API
	var history device.HistoryRepository
	if historyRepo != nil {
		history = historyRepo
	}
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log.Component("api"),
		Registry: registry,
		History:  history,
		Checks:   checks,
		Gatherer: promRegistry,
		Hub:      hub,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()
	if err := healthCheck(checkCtx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LUMICORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LUMICORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck runs every dependency check and returns the first failure.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	for name, c := range checks {
		if err := c.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// importFixtures loads the fixtures document and registers its devices.
// Each device that was added or replaced gets an import history snapshot
// when a recorder is given.
//
// Parameters:
//   - ctx: Context for repository writes
//   - cfg: Fixtures file path and overwrite policy
//   - registry: Registry to import into
//   - recorder: History recorder (may be nil if history is disabled)
//   - log: Logger for document warnings and the summary
//
// Returns:
//   - error: If the file cannot be read, is not a device document, or a
//     repository write fails
func importFixtures(ctx context.Context, cfg config.FixturesConfig, registry *device.Registry, recorder *sinks.HistoryRecorder, log *logging.Logger) error {
	data, err := os.ReadFile(cfg.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", cfg.Path, err)
	}

	devices, err := device.LoadDocument(data, log.Component("fixtures"))
	if err != nil {
		return fmt.Errorf("decoding %s: %w", cfg.Path, err)
	}

	res, err := registry.Import(ctx, devices, cfg.Overwrite)
	if err != nil {
		return err
	}

	if recorder != nil {
		for _, d := range devices {
			if current, getErr := registry.Get(d.ID()); getErr == nil && current == d {
				recorder.Snapshot(d, device.HistorySourceImport)
			}
		}
	}

	log.Info("fixtures imported",
		"path", cfg.Path,
		"added", res.Added,
		"replaced", res.Replaced,
		"skipped", res.Skipped,
	)
	return nil
}
