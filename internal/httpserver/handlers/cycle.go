package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/jobwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
)

// TriggerCycle cuts the scheduler's sleep short. A trigger that is already
// pending is reported as 429.
func TriggerCycle(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Scheduler.Trigger() {
			d.Logger.Info("manual cycle triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte("✅ Cycle triggered successfully\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
			return
		}

		d.Logger.Warn("cycle trigger already pending",
			logger.String("remote_ip", r.RemoteAddr))
		w.WriteHeader(http.StatusTooManyRequests)
		if _, err := w.Write([]byte("⏳ Cycle already requested, please wait\n")); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}
