// Package jobs runs periodic maintenance next to the HTTP server.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/neocare-api/internal/store"
)

type Scheduler struct {
	cron    *cron.Cron
	store   *store.Store
	log     zerolog.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewScheduler(s *store.Store, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		store:   s,
		log:     log.With().Str("component", "jobs").Logger(),
		timeout: time.Minute,
		now:     time.Now,
	}
}

// Schedule registers the reset-grant cleanup under a cron spec such as "@every 15m".
// An empty spec disables it.
func (s *Scheduler) Schedule(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.PurgeExpiredResets(context.Background()) }); err != nil {
		return fmt.Errorf("schedule reset cleanup %q: %w", spec, err)
	}
	s.log.Info().Str("spec", spec).Msg("reset cleanup scheduled")
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PurgeExpiredResets deletes expired password reset grants. The Mongo TTL monitor
// does the same lazily; the memory store has no other cleanup.
func (s *Scheduler) PurgeExpiredResets(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.store.Resets.PurgeExpired(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("reset cleanup failed")
		return 0
	}
	if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("expired reset grants purged")
	}
	return n
}
