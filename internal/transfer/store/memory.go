package store

import (
	"context"
	"sync"
	"time"

	"github.com/openterra/reproject-backend/internal/transfer/domain"
)

// Memory is the default in-process Store.
type Memory struct {
	mu      sync.RWMutex
	records map[string]domain.Record
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]domain.Record)}
}

func (m *Memory) Put(_ context.Context, rec domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.FileID] = rec
	return nil
}

func (m *Memory) Get(_ context.Context, fileID string) (domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[fileID]
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	return rec, nil
}

func (m *Memory) Delete(_ context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[fileID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.records, fileID)
	return nil
}

func (m *Memory) ExpiredBefore(_ context.Context, cutoff time.Time) ([]domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var expired []domain.Record
	for _, rec := range m.records {
		if rec.CreatedAt.Before(cutoff) {
			expired = append(expired, rec)
		}
	}
	return expired, nil
}

func (m *Memory) Ping(_ context.Context) error {
	return nil
}
