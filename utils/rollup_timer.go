package utils

import (
	"time"

	"github.com/dayproof/dayproof/config"
)

// StartRollupTimer launches a background goroutine that periodically offers
// the nightly rollup a chance to run. The rollup itself is idempotent per
// calendar day, so firing every interval is safe; this is a fallback for
// deployments without an external cron hitting the admin endpoint.
func StartRollupTimer(interval time.Duration, run func() error) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)

			c := config.Get()
			if time.Now().UTC().Hour() < c.RollupHourUTC {
				continue
			}
			if err := run(); err != nil {
				Sugar.Errorf("scheduled rollup failed: %v", err)
			}
		}
	}()
}
