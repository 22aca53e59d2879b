package bootstrap

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Purger drops expired cache entries.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// Janitor periodically purges expired discovery cache entries.
type Janitor struct {
	cron   *cron.Cron
	store  Purger
	logger zerolog.Logger
}

// NewJanitor schedules store purges on a cron spec such as "@every 5m".
func NewJanitor(schedule string, store Purger, logger zerolog.Logger) (*Janitor, error) {
	j := &Janitor{
		cron:   cron.New(),
		store:  store,
		logger: logger,
	}
	if _, err := j.cron.AddFunc(schedule, j.purge); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start runs the schedule in the background.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule. The returned context is done once a running
// purge has finished.
func (j *Janitor) Stop() context.Context {
	return j.cron.Stop()
}

func (j *Janitor) purge() {
	n, err := j.store.PurgeExpired(context.Background())
	if err != nil {
		j.logger.Error().Err(err).Msg("cache purge failed")
		return
	}
	if n > 0 {
		j.logger.Debug().Int("purged", n).Msg("expired cache entries removed")
	}
}
