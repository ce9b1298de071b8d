package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/greenhouse-core/internal/bus"
	"github.com/nerrad567/greenhouse-core/internal/catalog"
	"github.com/nerrad567/greenhouse-core/internal/control"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/config"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/database"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/logging"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/greenhouse-core/internal/metrics"
	"github.com/nerrad567/greenhouse-core/internal/simulation"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config       config.APIConfig
	WS           config.WebSocketConfig
	Security     config.SecurityConfig
	Logger       *logging.Logger
	Catalog      *catalog.Registry
	Repo         catalog.Repository
	Bus          *bus.Bus
	Orchestrator *simulation.Orchestrator

	// Optional components.
	Control   *control.Service
	Publisher *simulation.Publisher
	Metrics   *metrics.Metrics
	MQTT      *mqtt.Client
	DB        *database.DB

	// ForecastWindow is used when a forecast request carries no window.
	ForecastWindow int
	Version        string

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Server is the HTTP API server for Greenhouse Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg            config.APIConfig
	wsCfg          config.WebSocketConfig
	secCfg         config.SecurityConfig
	logger         *logging.Logger
	catalog        *catalog.Registry
	repo           catalog.Repository
	bus            *bus.Bus
	orchestrator   *simulation.Orchestrator
	control        *control.Service
	publisher      *simulation.Publisher
	metrics        *metrics.Metrics
	mqtt           *mqtt.Client
	db             *database.DB
	forecastWindow int
	version        string
	now            func() time.Time
	startTime      time.Time
	server         *http.Server
	hub            *Hub
	cancel         context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The WebSocket hub is created here and registered as a bus observer, so
// events published before Start are already relayed. The listener is not
// started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, catalog, repository, bus, orchestrator)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog registry is required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	if deps.Bus == nil {
		return nil, fmt.Errorf("event bus is required")
	}
	if deps.Orchestrator == nil {
		return nil, fmt.Errorf("simulation orchestrator is required")
	}

	s := &Server{
		cfg:            deps.Config,
		wsCfg:          deps.WS,
		secCfg:         deps.Security,
		logger:         deps.Logger,
		catalog:        deps.Catalog,
		repo:           deps.Repo,
		bus:            deps.Bus,
		orchestrator:   deps.Orchestrator,
		control:        deps.Control,
		publisher:      deps.Publisher,
		metrics:        deps.Metrics,
		mqtt:           deps.MQTT,
		db:             deps.DB,
		forecastWindow: deps.ForecastWindow,
		version:        deps.Version,
		now:            deps.Clock,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.forecastWindow <= 0 {
		s.forecastWindow = simulation.DefaultForecastWindow
	}
	s.startTime = s.now()

	s.hub = NewHub(s.wsCfg, s.logger)
	s.bus.Observe(s.hub.Observe)

	return s, nil
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the fully wired router. Useful for embedding the API in
// another server and for tests.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and launches the HTTP listener in a
// background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
