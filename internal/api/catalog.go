package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
	"github.com/nerrad567/greenhouse-core/internal/simulation"
)

// handleGetCatalog returns the cached catalog.
func (s *Server) handleGetCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Dataset())
}

// handleListZones returns all zones.
func (s *Server) handleListZones(w http.ResponseWriter, _ *http.Request) {
	zones := s.catalog.Zones()
	writeJSON(w, http.StatusOK, map[string]any{
		"zones": zones,
		"count": len(zones),
	})
}

// handleZoneDescendants returns the subtree rooted at a zone (root first,
// depth first) and the sensors placed anywhere in it.
func (s *Server) handleZoneDescendants(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ds := s.catalog.Dataset()
	if _, ok := ds.Zone(id); !ok {
		writeNotFound(w, "zone not found")
		return
	}

	sensors := greenhouse.SensorsInZone(ds.Zones, ds.Sensors, id)
	ids := make([]string, 0, len(sensors))
	for _, sn := range sensors {
		ids = append(ids, sn.ID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"zone_id":     id,
		"descendants": greenhouse.Descendants(ds.Zones, id),
		"sensors":     ids,
	})
}

// handleZoneState returns the live snapshot, profile and active alerts of
// a zone as seen by the control loop.
func (s *Server) handleZoneState(w http.ResponseWriter, r *http.Request) {
	if s.control == nil {
		writeUnavailable(w, "control loop is not running")
		return
	}

	id := chi.URLParam(r, "id")
	ds := s.catalog.Dataset()
	if _, ok := ds.Zone(id); !ok && id != simulation.UnassignedZone {
		writeNotFound(w, "zone not found")
		return
	}

	snapshot, ok := s.control.Snapshot(id)
	if !ok {
		snapshot = greenhouse.Snapshot{}
	}
	resp := map[string]any{
		"zone_id":       id,
		"active":        ok,
		"snapshot":      snapshot,
		"active_alerts": s.control.ActiveAlerts(id),
	}
	if p, ok := ds.ProfileForZone(id); ok {
		resp["profile_id"] = p.ID
	}

	writeJSON(w, http.StatusOK, resp)
}
