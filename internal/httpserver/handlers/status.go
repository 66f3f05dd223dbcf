package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/jobwatch/internal/httpserver/deps"
)

// Status returns the scheduler's last known state.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Scheduler.Status())
	}
}
