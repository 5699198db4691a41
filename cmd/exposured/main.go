// Exposure Core - selective entity exposure for Home Assistant.
//
// This is the main entry point for the Exposure Core service. It keeps
// a rule document describing which entities should be exposed to voice
// assistants, computes the exposure set against the live entity
// registry, and maintains the managed google_assistant_entities.yaml
// file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/exposure-core/migrations"

	"github.com/nerrad567/exposure-core/internal/api"
	"github.com/nerrad567/exposure-core/internal/exposure"
	"github.com/nerrad567/exposure-core/internal/hass"
	"github.com/nerrad567/exposure-core/internal/infrastructure/config"
	"github.com/nerrad567/exposure-core/internal/infrastructure/database"
	"github.com/nerrad567/exposure-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/exposure-core/internal/infrastructure/logging"
	"github.com/nerrad567/exposure-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/exposure-core/internal/output"
	"github.com/nerrad567/exposure-core/internal/sync"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals for graceful shutdown
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
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Exposure Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
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
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	repo := exposure.NewSQLiteRepository(db)

	// Home Assistant registry provider
	provider, err := hass.NewClient(cfg.HomeAssistant, log)
	if err != nil {
		return fmt.Errorf("creating registry client: %w", err)
	}
	log.Info("registry provider initialised", "url", cfg.HomeAssistant.URL)

	// Managed output file
	writer := output.NewWriter(cfg.Output, log)
	if err := writer.EnsureFile(); err != nil {
		return fmt.Errorf("preparing managed file: %w", err)
	}
	log.Info("managed file ready", "path", writer.Path())

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log)
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
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Sync manager. The typed-nil checks matter: assigning a nil
	// *mqtt.Client to the Broker interface would make it non-nil.
	var broker sync.Broker
	if mqttClient != nil {
		broker = mqttClient
	}
	var stats sync.StatsWriter
	if influxClient != nil {
		stats = influxClient
	}

	manager := sync.NewManager(sync.Options{
		Repository: repo,
		Provider:   provider,
		Writer:     writer,
		Broker:     broker,
		Stats:      stats,
		Logger:     log,
		Debounce:   cfg.GetSyncDebounce(),
	})
	defer manager.Stop()

	if mqttClient != nil {
		if err := manager.StartAutoSync(ctx); err != nil {
			log.Warn("auto-sync subscription failed", "error", err)
		} else {
			log.Info("auto-sync armed", "debounce", cfg.GetSyncDebounce().String())
		}
	}

	// HTTP API
	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Logger:     log,
		Repository: repo,
		Provider:   provider,
		Syncer:     manager,
		Version:    version,
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

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, provider, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("Exposure Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses EXPOSURE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("EXPOSURE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - provider: Registry client to check
//   - mqttClient: MQTT client (may be nil if disabled)
//   - influxClient: InfluxDB client (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, provider *hass.Client, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := provider.HealthCheck(ctx); err != nil {
		return fmt.Errorf("home assistant: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
