package api

import (
	"net/http"

	"github.com/mkedev/planning-sync/internal/progress/sinks"
)

// SnapshotSource yields the most recent sync run snapshot. *sinks.StateSink
// satisfies this.
type SnapshotSource interface {
	Latest() *sinks.RunSnapshot
}

// getProgress handles GET /progress. It returns {"run": {...}} for the most
// recent run, 404 before the first run of the process, or 503 when no
// snapshot source is wired.
func (s *Server) getProgress(w http.ResponseWriter, _ *http.Request) {
	if s.snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, "progress unavailable")
		return
	}
	snap := s.snapshots.Latest()
	if snap == nil {
		writeError(w, http.StatusNotFound, "no runs observed yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": snap})
}
