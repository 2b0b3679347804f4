package memory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryBackend is an in-process Backend for tests and single-node use.
// All data is lost when the process exits.
type InMemoryBackend struct {
	mu      sync.RWMutex
	records map[string]map[string]*Record // owner -> id -> record
}

// NewInMemoryBackend creates a new in-memory backend.
func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		records: make(map[string]map[string]*Record),
	}
}

// Insert stores a new record.
func (b *InMemoryBackend) Insert(ctx context.Context, rec *Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	byID, ok := b.records[rec.Owner]
	if !ok {
		byID = make(map[string]*Record)
		b.records[rec.Owner] = byID
	}
	byID[rec.ID] = rec.Clone()
	return nil
}

// Get returns a record by ID, or nil when absent.
func (b *InMemoryBackend) Get(ctx context.Context, owner, id string) (*Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.records[owner][id]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

// Delete removes a record.
func (b *InMemoryBackend) Delete(ctx context.Context, owner, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.records[owner], id)
	return nil
}

// List returns the owner's records in the given order.
func (b *InMemoryBackend) List(ctx context.Context, owner string, order Order, limit int) ([]*Record, error) {
	b.mu.RLock()
	recs := make([]*Record, 0, len(b.records[owner]))
	for _, rec := range b.records[owner] {
		recs = append(recs, rec.Clone())
	}
	b.mu.RUnlock()

	sortRecords(recs, order)
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// ListByTopic returns the owner's records under a topic, most recent first.
func (b *InMemoryBackend) ListByTopic(ctx context.Context, owner, topic string, limit int) ([]*Record, error) {
	b.mu.RLock()
	var recs []*Record
	for _, rec := range b.records[owner] {
		if rec.Topic == topic {
			recs = append(recs, rec.Clone())
		}
	}
	b.mu.RUnlock()

	sortRecords(recs, OrderRecent)
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// MarkRecalled increments RecallCount and stamps LastRecalled.
func (b *InMemoryBackend) MarkRecalled(ctx context.Context, owner, id string, at time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.records[owner][id]
	if !ok {
		return nil
	}
	rec.RecallCount++
	rec.LastRecalled = at
	rec.UpdatedAt = at
	return nil
}

// Close implements Backend.
func (b *InMemoryBackend) Close() error {
	return nil
}

// sortRecords orders records in place.
func sortRecords(recs []*Record, order Order) {
	switch order {
	case OrderImportance:
		sort.SliceStable(recs, func(i, j int) bool {
			if recs[i].Importance != recs[j].Importance {
				return recs[i].Importance > recs[j].Importance
			}
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		})
	default:
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		})
	}
}
