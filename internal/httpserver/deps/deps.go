package deps

import (
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/commands"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
	"github.com/MrSnakeDoc/jobwatch/internal/metrics"
	"github.com/MrSnakeDoc/jobwatch/internal/scheduler"
)

// Scheduler is the part of the cycle loop the admin API needs.
type Scheduler interface {
	Trigger() bool
	Status() scheduler.Status
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time    // for testing, defaults to time.Now
	AllowedHosts []string            // Host headers allowed to reach /api
	AllowedCIDRS []string            // IPs allowed to reach the admin endpoints
	TrustProxy   bool                // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Scheduler    Scheduler           // cycle loop (status and manual trigger)
	Blacklist    *commands.Blacklist // blacklist editor shared with the chat listener
	Metrics      *metrics.Metrics    // nil disables /metrics
	Ready        func() bool         // nil means always ready
}

func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
