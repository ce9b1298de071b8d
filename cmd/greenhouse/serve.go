package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nerrad567/greenhouse-core/internal/api"
	"github.com/nerrad567/greenhouse-core/internal/bus"
	"github.com/nerrad567/greenhouse-core/internal/control"
	"github.com/nerrad567/greenhouse-core/internal/forecast"
	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/config"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/logging"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/greenhouse-core/internal/metrics"
	"github.com/nerrad567/greenhouse-core/internal/simulation"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the control loop and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *configPath)
		},
	}
}

// run is the long-running service, separated from the command for
// testability. Returning an error allows main to handle exit codes
// consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: Path to config.yaml
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Greenhouse Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, log, err := loadConfig(configPath, false, nil)
	if err != nil {
		return err
	}
	log.Info("configuration loaded", "path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	st, err := openStore(ctx, cfg.Database, cfg.Control.SeedFile, log)
	if err != nil {
		return err
	}
	defer st.close(log)

	out, err := connectSinks(cfg, log)
	if err != nil {
		return err
	}
	defer out.close(log)

	m := metrics.New(prometheus.NewRegistry())
	eventBus := newBus(cfg.Control.BusMaxEntries, out.mqtt, m, log)

	engine := forecast.NewEngine()
	engine.SetObserver(m)
	orchestrator := simulation.New(engine,
		simulation.WithForecastWindow(cfg.Control.ForecastWindow),
		simulation.WithObserver(m),
		simulation.WithLogger(log.Component("simulation")),
	)

	svc := control.New(eventBus, st.registry, controlOptions(cfg, st, out, m, log)...)

	server, err := api.New(api.Deps{
		Config:         cfg.API,
		WS:             cfg.WebSocket,
		Security:       cfg.Security,
		Logger:         log.Component("api"),
		Catalog:        st.registry,
		Repo:           st.repo,
		Bus:            eventBus,
		Orchestrator:   orchestrator,
		Control:        svc,
		Publisher:      out.publisher(st.repo),
		Metrics:        m,
		MQTT:           out.mqtt,
		DB:             st.db,
		ForecastWindow: cfg.Control.ForecastWindow,
		Version:        version,
	})
	if err != nil {
		svc.Close()
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		svc.Close()
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	controlDone := make(chan error, 1)
	go func() {
		controlDone <- svc.Run(ctx)
	}()

	log.Info("Greenhouse Core started successfully")

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping...")
		if runErr := <-controlDone; runErr != nil {
			log.Error("control loop stopped with error", "error", runErr)
		}
	case runErr := <-controlDone:
		if runErr != nil {
			return fmt.Errorf("control loop: %w", runErr)
		}
	}

	log.Info("Greenhouse Core stopped")
	return nil
}

// newBus builds the event bus with the built-in handlers, counting every
// publish and mirroring it to MQTT when a client is connected. A positive
// maxEntries caps the store lists.
func newBus(maxEntries int, mqttClient *mqtt.Client, m *metrics.Metrics, log *logging.Logger) *bus.Bus {
	b := bus.NewWithBuiltins(
		bus.WithLogger(log.Component("bus")),
		bus.WithMaxEntries(maxEntries),
	)
	b.Observe(func(ev greenhouse.Event, _ *bus.Store) {
		m.BusPublished(ev)
	})
	if mqttClient != nil {
		topics := mqtt.Topics{}
		b.Observe(func(ev greenhouse.Event, _ *bus.Store) {
			if err := mqttClient.PublishJSON(topics.BusEvent(string(ev.Name)), ev, false); err != nil {
				log.Warn("bus mirror publish failed", "event", ev.Name, "error", err)
			}
		})
		log.Debug("bus events mirrored to MQTT")
	}
	return b
}

func controlOptions(cfg *config.Config, st *store, out *sinks, m *metrics.Metrics, log *logging.Logger) []control.Option {
	opts := []control.Option{
		control.WithHistory(st.repo),
		control.WithMetrics(m),
		control.WithLogger(log.Component("control")),
		control.WithDefaultCooldown(cfg.GetDefaultCooldown()),
		control.WithTickInterval(cfg.GetModeTickInterval()),
	}
	if out.mqtt != nil {
		opts = append(opts, control.WithMQTT(out.mqtt, byte(cfg.MQTT.QoS))) //nolint:gosec // qos validated to 0..2
	}
	if out.influx != nil {
		opts = append(opts, control.WithTelemetry(out.influx))
	}
	return opts
}
