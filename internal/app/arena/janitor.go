package arena

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartJanitor periodically evicts sessions untouched for longer than ttl.
// Abandoned waiting sessions are reclaimed here without the absent client
// ever calling leave; the redis backend expires keys on its own and the
// sweep reports zero there.
func (s *Service) StartJanitor(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				cutoff := now.Add(-ttl).UnixMilli()
				n, err := s.store.SweepStale(ctx, cutoff)
				if err != nil {
					log.Error().Err(err).Msg("stale session sweep failed")
					continue
				}
				if n > 0 {
					log.Info().Int("evicted", n).Msg("stale sessions swept")
				}
			}
		}
	}()
}
