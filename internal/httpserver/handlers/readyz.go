package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/jobwatch/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready    bool   `json:"ready"`
	Phase    string `json:"phase,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
}

// Readyz reports 200 once the scheduler is running and 503 before that.
// A degraded ledger is reported but still counts as ready.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := d.Ready == nil || d.Ready()
		resp := readyzResponse{Ready: ready}
		if d.Scheduler != nil {
			st := d.Scheduler.Status()
			resp.Phase = st.Phase
			resp.Degraded = st.Degraded
		}

		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}
