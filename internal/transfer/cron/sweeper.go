// Package cronjob schedules the TTL eviction sweep that bounds the leak of
// registered-but-never-downloaded archives.
package cronjob

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/openterra/reproject-backend/internal/logger"
	"github.com/openterra/reproject-backend/internal/transfer/service"
)

type Sweeper struct {
	transfers *service.Service
	ttl       time.Duration
	every     time.Duration
	log       *logger.Logger
	c         *cron.Cron
}

func NewSweeper(transfers *service.Service, ttl, every time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{transfers: transfers, ttl: ttl, every: every, log: log}
}

// Start schedules the sweep to run on its interval.
func (s *Sweeper) Start() error {
	s.c = cron.New()
	if _, err := s.c.AddFunc(fmt.Sprintf("@every %s", s.every), s.run); err != nil {
		return fmt.Errorf("schedule transfer sweep: %w", err)
	}
	s.c.Start()
	s.log.Info().Dur("interval", s.every).Dur("ttl", s.ttl).Msg("transfer sweep scheduled")
	return nil
}

// Stop halts the schedule; a sweep already running finishes.
func (s *Sweeper) Stop() {
	if s.c != nil {
		s.c.Stop()
	}
}

func (s *Sweeper) run() {
	evicted, err := s.transfers.Sweep(context.Background(), s.ttl)
	if err != nil {
		s.log.Error().Err(err).Msg("transfer sweep failed")
		return
	}
	if evicted > 0 {
		s.log.Info().Int("evicted", evicted).Msg("transfer sweep completed")
	}
}
