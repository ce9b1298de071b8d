package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/greenhouse-core/internal/control"
	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
	"github.com/nerrad567/greenhouse-core/internal/validation"
)

// readingRequest is the body of POST /readings. ID and TS are optional;
// the control loop fills them in.
type readingRequest struct {
	ID       string   `json:"id"`
	SensorID string   `json:"sensor_id"`
	TS       string   `json:"ts"`
	Value    *float64 `json:"value"`
}

// handlePostReading feeds one reading into the control loop and returns
// its outcome.
func (s *Server) handlePostReading(w http.ResponseWriter, r *http.Request) {
	if s.control == nil {
		writeUnavailable(w, "control loop is not running")
		return
	}

	var req readingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.SensorID == "" {
		writeBadRequest(w, "sensor_id is required")
		return
	}

	reading := greenhouse.Reading{ID: req.ID, SensorID: req.SensorID, Value: req.Value}
	if req.TS != "" {
		ts, err := greenhouse.ParseTimestamp(req.TS)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		reading.TS = ts
	}

	out, err := s.control.HandleReading(r.Context(), reading)
	switch {
	case errors.Is(err, control.ErrClosed):
		writeUnavailable(w, "control loop has shut down")
		return
	case errors.Is(err, control.ErrNoProfile):
		writeValidationError(w, err.Error())
		return
	case err != nil:
		s.logger.Error("reading rejected", "sensor", req.SensorID, "error", err)
		writeInternalError(w, "failed to process reading")
		return
	}

	if out.Status == validation.StatusError {
		writeJSON(w, http.StatusUnprocessableEntity, out)
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}
