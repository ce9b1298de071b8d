package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nerrad567/greenhouse-core/internal/catalog"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/config"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/database"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/kafka"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/logging"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/greenhouse-core/internal/simulation"
	"github.com/nerrad567/greenhouse-core/migrations"
)

// store bundles the opened catalog database with its repository and
// in-memory registry.
type store struct {
	db       *database.DB
	repo     *catalog.SQLiteRepository
	registry *catalog.Registry
}

// openStore opens and migrates the catalog database. When seedFile is set
// and the catalog holds no zones yet, the seed is imported first. The
// registry cache is loaded before returning.
//
// Parameters:
//   - ctx: Context for migrations and queries
//   - cfg: Database section of config.yaml
//   - seedFile: Optional seed YAML imported into an empty catalog
//   - log: Logger for progress messages
//
// Returns:
//   - *store: Ready catalog; the caller must call close
//   - error: If opening, migrating, seeding or loading fails
func openStore(ctx context.Context, cfg config.DatabaseConfig, seedFile string, log *logging.Logger) (*store, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	log.Info("database connected", "path", cfg.Path)

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // best effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete")

	s := &store{db: db, repo: catalog.NewSQLiteRepository(db.DB)}

	if seedFile != "" {
		if err := s.seedIfEmpty(ctx, seedFile, log); err != nil {
			s.close(log)
			return nil, err
		}
	}

	s.registry = catalog.NewRegistry(s.repo)
	s.registry.SetLogger(log)
	if err := s.registry.RefreshCache(ctx); err != nil {
		s.close(log)
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	ds := s.registry.Dataset()
	log.Info("catalog loaded",
		"zones", len(ds.Zones),
		"sensors", len(ds.Sensors),
		"rules", len(ds.Rules),
	)
	return s, nil
}

func (s *store) seedIfEmpty(ctx context.Context, path string, log *logging.Logger) error {
	zones, err := s.repo.ListZones(ctx)
	if err != nil {
		return fmt.Errorf("checking catalog: %w", err)
	}
	if len(zones) > 0 {
		log.Debug("catalog already populated, seed skipped", "seed", path)
		return nil
	}
	n, err := importSeedFile(ctx, s.repo, path)
	if err != nil {
		return err
	}
	log.Info("seed imported", "path", path, "readings", n)
	return nil
}

func (s *store) close(log *logging.Logger) {
	log.Info("closing database")
	if err := s.db.Close(); err != nil {
		log.Error("error closing database", "error", err)
	}
}

// importSeedFile loads, validates and writes a seed file. It returns the
// number of readings imported.
func importSeedFile(ctx context.Context, repo catalog.Repository, path string) (int, error) {
	seed, err := catalog.LoadSeed(path)
	if err != nil {
		return 0, fmt.Errorf("loading seed: %w", err)
	}
	if err := repo.ImportSeed(ctx, seed); err != nil {
		return 0, fmt.Errorf("importing seed: %w", err)
	}
	return len(seed.Readings), nil
}

// sinks holds the optional outbound connections. Each field is nil when
// its section is disabled.
type sinks struct {
	mqtt   *mqtt.Client
	influx *influxdb.Client
	kafka  *kafka.Writer
}

// connectSinks connects every enabled outbound integration. On error the
// sinks connected so far are closed.
func connectSinks(cfg *config.Config, log *logging.Logger) (*sinks, error) {
	s := &sinks{}

	if cfg.MQTT.Enabled {
		client, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("connecting to MQTT: %w", err)
		}
		client.SetLogger(log.Component("mqtt"))
		s.mqtt = client
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			s.close(log)
			return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		client.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		s.influx = client
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	if cfg.Kafka.Enabled {
		writer, err := kafka.Connect(cfg.Kafka)
		if err != nil {
			s.close(log)
			return nil, fmt.Errorf("connecting to Kafka: %w", err)
		}
		s.kafka = writer
		log.Info("Kafka export enabled", "brokers", cfg.Kafka.Brokers, "topic", writer.Topic())
	} else {
		log.Info("Kafka export disabled")
	}

	return s, nil
}

// publisher fans reports out to the repository and every connected sink.
// Nil clients are left as nil interfaces so the publisher skips them.
func (s *sinks) publisher(repo simulation.ReportStore) *simulation.Publisher {
	p := &simulation.Publisher{Store: repo}
	if s.mqtt != nil {
		p.Messages = s.mqtt
	}
	if s.kafka != nil {
		p.Exporter = s.kafka
	}
	if s.influx != nil {
		p.Telemetry = s.influx
	}
	return p
}

func (s *sinks) close(log *logging.Logger) {
	if s.kafka != nil {
		log.Info("closing Kafka writer")
		if err := s.kafka.Close(); err != nil {
			log.Error("error closing Kafka", "error", err)
		}
	}
	if s.influx != nil {
		log.Info("closing InfluxDB connection")
		if err := s.influx.Close(); err != nil {
			log.Error("error closing InfluxDB", "error", err)
		}
	}
	if s.mqtt != nil {
		log.Info("disconnecting from MQTT")
		if err := s.mqtt.Close(); err != nil {
			log.Error("error closing MQTT", "error", err)
		}
	}
}

// loadConfig loads path and builds the configured logger. When optional
// is set a missing file falls back to the defaults. A non-nil logTo
// replaces the configured log output.
func loadConfig(path string, optional bool, logTo io.Writer) (*config.Config, *logging.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if optional {
		cfg, err = config.LoadOrDefault(path)
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if logTo != nil {
		return cfg, logging.NewWithWriter(cfg.Logging, version, logTo), nil
	}
	return cfg, logging.New(cfg.Logging, version), nil
}
