// Package adjustcache stores AI score adjustments per lead so repeated
// scoring runs do not call the model again until the lead changes.
package adjustcache

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Cache maps lead ids to clamped adjustments. Concurrent writers for the
// same key are allowed; the last write wins.
type Cache interface {
	Get(ctx context.Context, leadID uuid.UUID) (int, bool)
	Set(ctx context.Context, leadID uuid.UUID, adjustment int)
	Invalidate(ctx context.Context, leadID uuid.UUID)
	Clear(ctx context.Context)
}

// Memory is a process-local Cache.
type Memory struct {
	entries sync.Map // uuid.UUID -> int
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Get(_ context.Context, leadID uuid.UUID) (int, bool) {
	v, ok := m.entries.Load(leadID)
	if !ok {
		return 0, false
	}
	return v.(int), true
}

func (m *Memory) Set(_ context.Context, leadID uuid.UUID, adjustment int) {
	m.entries.Store(leadID, adjustment)
}

func (m *Memory) Invalidate(_ context.Context, leadID uuid.UUID) {
	m.entries.Delete(leadID)
}

func (m *Memory) Clear(_ context.Context) {
	m.entries.Clear()
}
