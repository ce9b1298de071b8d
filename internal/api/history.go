package api

import "net/http"

// Page sizes for the history endpoints.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// handleCommandHistory returns the most recent emitted commands.
func (s *Server) handleCommandHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultHistoryLimit, 1, maxHistoryLimit)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	cmds, err := s.repo.RecentCommands(r.Context(), limit)
	if err != nil {
		s.logger.Error("loading command history", "error", err)
		writeInternalError(w, "failed to load command history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"commands": cmds,
		"count":    len(cmds),
	})
}

// handleAlertHistory returns the most recent alert raises and clears.
func (s *Server) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultHistoryLimit, 1, maxHistoryLimit)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	alerts, err := s.repo.RecentAlerts(r.Context(), limit)
	if err != nil {
		s.logger.Error("loading alert history", "error", err)
		writeInternalError(w, "failed to load alert history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}
