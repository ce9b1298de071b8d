package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
)

// handleBusStore returns the current bus store.
func (s *Server) handleBusStore(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.bus.Store())
}

// handlePublishEvent publishes an event on the bus. The body is the event
// payload and may be empty. A handler failure leaves the store unchanged
// and is reported as a validation error.
func (s *Server) handlePublishEvent(w http.ResponseWriter, r *http.Request) {
	name := greenhouse.EventName(strings.ToUpper(chi.URLParam(r, "name")))

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ev, err := s.bus.Publish(name, payload)
	if err != nil {
		s.metrics.BusFailed(name)
		writeValidationError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, ev)
}
