// Package maintenance runs periodic housekeeping on a cron schedule.
package maintenance

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Pruner forgets terminal campaigns finished before cutoff.
type Pruner interface {
	Prune(cutoff time.Time) int
}

// StartPruner runs PruneJob on spec (standard cron or @every descriptors).
// The caller stops the returned cron.
func StartPruner(spec string, ttl time.Duration, p Pruner) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, PruneJob(ttl, p)); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}
	c.Start()
	log.Info().Str("schedule", spec).Dur("ttl", ttl).Msg("campaign pruning scheduled")
	return c, nil
}

func PruneJob(ttl time.Duration, p Pruner) func() {
	return func() {
		if n := p.Prune(time.Now().Add(-ttl)); n > 0 {
			log.Info().Int("campaigns", n).Msg("pruned terminal campaigns")
		}
	}
}
