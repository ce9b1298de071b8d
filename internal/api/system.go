package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system status response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	WebSocket     WSMetrics       `json:"websocket"`
	MQTT          MQTTMetrics     `json:"mqtt"`
	Catalog       CatalogMetrics  `json:"catalog"`
	Bus           BusMetrics      `json:"bus"`
	Database      DatabaseMetrics `json:"database"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

// CatalogMetrics counts the cached catalog entities.
type CatalogMetrics struct {
	Loaded    bool `json:"loaded"`
	Zones     int  `json:"zones"`
	Profiles  int  `json:"profiles"`
	Sensors   int  `json:"sensors"`
	Actuators int  `json:"actuators"`
	Rules     int  `json:"rules"`
	Modes     int  `json:"modes"`
}

// BusMetrics summarises the current bus store.
type BusMetrics struct {
	Readings     int    `json:"readings"`
	Commands     int    `json:"commands"`
	ActiveAlerts int    `json:"active_alerts"`
	Mode         string `json:"mode,omitempty"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleSystem returns runtime, connectivity, catalog and bus figures.
func (s *Server) handleSystem(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	now := s.now()
	metrics := SystemMetrics{
		Timestamp:     now.UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(now.Sub(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
	}

	// MQTT metrics (if available)
	if s.mqtt != nil {
		metrics.MQTT = MQTTMetrics{
			Connected: s.mqtt.IsConnected(),
		}
	}

	ds := s.catalog.Dataset()
	metrics.Catalog = CatalogMetrics{
		Loaded:    s.catalog.Loaded(),
		Zones:     len(ds.Zones),
		Profiles:  len(ds.Profiles),
		Sensors:   len(ds.Sensors),
		Actuators: len(ds.Actuators),
		Rules:     len(ds.Rules),
		Modes:     len(ds.Modes),
	}

	store := s.bus.Store()
	metrics.Bus = BusMetrics{
		Readings:     len(store.Readings),
		Commands:     len(store.Commands),
		ActiveAlerts: len(store.Alerts),
	}
	if store.Mode != nil {
		metrics.Bus.Mode = store.Mode.Mode
	}

	// Database stats (if available)
	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
