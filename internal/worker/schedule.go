package worker

import (
	"context"
	"time"
)

// Schedule runs the job once immediately and then every interval until ctx
// is cancelled. A run still in progress when a tick fires delays the next
// run rather than overlapping it.
func (j *RefreshJob) Schedule(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.logger.Info().Dur("interval", interval).Msg("refresh schedule started")
	j.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("refresh schedule stopped")
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}
