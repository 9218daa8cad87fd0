// Package service implements the transfer registry: single-use bookkeeping
// of generated archives and the scratch directories owed to them.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/openterra/reproject-backend/internal/logger"
	"github.com/openterra/reproject-backend/internal/scratch"
	"github.com/openterra/reproject-backend/internal/transfer/domain"
	"github.com/openterra/reproject-backend/internal/transfer/store"
)

type Service struct {
	store store.Store
	log   *logger.Logger

	// mu serializes every path that releases scratch directories, so a
	// re-registration racing an in-flight consume cannot double-free.
	mu sync.Mutex
}

func New(st store.Store, log *logger.Logger) *Service {
	return &Service{store: st, log: log}
}

// Register records a downloadable archive. Re-registering an identifier
// releases the directories of the record it replaces, so overwriting
// cannot leak.
func (s *Service) Register(ctx context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, err := s.store.Get(ctx, rec.FileID); err == nil {
		s.release(old)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return s.store.Put(ctx, rec)
}

// Resolve is a read-only lookup; it does not consume the record.
func (s *Service) Resolve(ctx context.Context, fileID string) (domain.Record, error) {
	return s.store.Get(ctx, fileID)
}

// Consume releases the record's scratch directories and removes it from
// the registry. The first caller wins; later calls get domain.ErrNotFound.
func (s *Service) Consume(ctx context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.store.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, fileID); err != nil {
		return err
	}
	s.release(rec)
	return nil
}

// Sweep evicts every record older than ttl, releasing its directories, and
// returns how many records were evicted.
func (s *Service) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired, err := s.store.ExpiredBefore(ctx, time.Now().Add(-ttl))
	if err != nil {
		return 0, err
	}

	evicted := 0
	for _, rec := range expired {
		if err := s.store.Delete(ctx, rec.FileID); err != nil {
			s.log.Warn().Err(err).Str("file_id", rec.FileID).Msg("evicting transfer record")
			continue
		}
		s.release(rec)
		evicted++
	}
	return evicted, nil
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) release(rec domain.Record) {
	if err := scratch.RemoveAll(rec.ScratchDirs...); err != nil {
		s.log.Error().Err(err).Str("file_id", rec.FileID).Msg("scratch cleanup failed")
	}
}
