// Package sweepers hosts periodic maintenance loops.
package sweepers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/staffmeal/validation-service/internal/store"
)

// RetentionSweeper periodically deletes validation records older than
// the retention window. Records are an append-only log; retention is
// the only deletion path.
type RetentionSweeper struct {
	store     *store.PostgresStore
	logger    zerolog.Logger
	interval  time.Duration
	retention time.Duration
	stopChan  chan struct{}
}

// NewRetentionSweeper creates a sweeper that keeps records for the
// given retention duration and sweeps at the given interval.
func NewRetentionSweeper(st *store.PostgresStore, logger zerolog.Logger, interval, retention time.Duration) *RetentionSweeper {
	return &RetentionSweeper{
		store:     st,
		logger:    logger,
		interval:  interval,
		retention: retention,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the periodic sweep. Blocks until the context is
// cancelled or Stop is called; run it in a goroutine.
func (s *RetentionSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("retention", s.retention).
		Msg("Starting record retention sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Retention sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Retention sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Retention sweep failed")
			}
		}
	}
}

// Stop signals the sweeper to stop
func (s *RetentionSweeper) Stop() {
	close(s.stopChan)
}

// Sweep deletes records older than the retention cutoff.
func (s *RetentionSweeper) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-s.retention)

	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info().
			Int64("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("Expired validation records removed")
	}
	return nil
}
