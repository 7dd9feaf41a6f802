package activity

import (
	"context"
	"sort"
	"sync"

	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-masker"
	"github.com/google/uuid"
)

// MemorySink keeps decisions in process. It satisfies the same sink and
// repository contracts as the Bun repository.
type MemorySink struct {
	mu      sync.RWMutex
	clock   types.Clock
	idGen   types.IDGenerator
	masker  *masker.Masker
	records []types.DecisionRecord
}

var (
	_ types.DecisionSink       = (*MemorySink)(nil)
	_ types.DecisionRepository = (*MemorySink)(nil)
)

// NewMemorySink constructs an empty in-memory decision log.
func NewMemorySink(clock types.Clock, idGen types.IDGenerator) *MemorySink {
	if clock == nil {
		clock = types.SystemClock{}
	}
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	return &MemorySink{
		clock:  clock,
		idGen:  idGen,
		masker: DefaultMasker(),
	}
}

// LogDecision implements types.DecisionSink.
func (m *MemorySink) LogDecision(_ context.Context, event types.DecisionEvent) error {
	event = SanitizeEvent(m.masker, event)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.clock.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, types.DecisionRecord{
		ID:            m.idGen.UUID(),
		DecisionEvent: event,
	})
	return nil
}

// ListDecisions implements types.DecisionRepository with the ordering and
// paging rules of the Bun repository.
func (m *MemorySink) ListDecisions(_ context.Context, filter types.DecisionFilter) (types.DecisionPage, error) {
	pagination := normalizePagination(filter.Pagination, 50, 200)

	m.mu.RLock()
	matched := make([]types.DecisionRecord, 0, len(m.records))
	for _, record := range m.records {
		if matchesFilter(record, filter) {
			matched = append(matched, record)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return newer(matched[i], matched[j])
	})
	total := len(matched)

	if filter.Cursor != nil {
		cursor := types.DecisionRecord{
			ID:            filter.Cursor.ID,
			DecisionEvent: types.DecisionEvent{OccurredAt: filter.Cursor.OccurredAt},
		}
		start := len(matched)
		for idx, record := range matched {
			if newer(cursor, record) {
				start = idx
				break
			}
		}
		matched = matched[start:]
		if len(matched) > pagination.Limit {
			matched = matched[:pagination.Limit]
		}
		return types.DecisionPage{
			Records: matched,
			Total:   total,
			HasMore: len(matched) == pagination.Limit,
		}, nil
	}

	start := pagination.Offset
	if start > total {
		start = total
	}
	end := start + pagination.Limit
	if end > total {
		end = total
	}
	return types.DecisionPage{
		Records:    matched[start:end],
		Total:      total,
		NextOffset: pagination.Offset + pagination.Limit,
		HasMore:    pagination.Offset+pagination.Limit < total,
	}, nil
}

// Len returns the number of stored decisions.
func (m *MemorySink) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func newer(a, b types.DecisionRecord) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.After(b.OccurredAt)
	}
	return compareUUID(a.ID, b.ID) > 0
}

func compareUUID(a, b uuid.UUID) int {
	for idx := range a {
		if a[idx] != b[idx] {
			if a[idx] > b[idx] {
				return 1
			}
			return -1
		}
	}
	return 0
}

func matchesFilter(record types.DecisionRecord, filter types.DecisionFilter) bool {
	if filter.ActorID != uuid.Nil && record.ActorID != filter.ActorID {
		return false
	}
	if filter.Resource != "" && record.Resource != filter.Resource {
		return false
	}
	if len(filter.States) > 0 {
		found := false
		for _, state := range filter.States {
			if record.State == state {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Since != nil && !filter.Since.IsZero() && record.OccurredAt.Before(*filter.Since) {
		return false
	}
	if filter.Until != nil && !filter.Until.IsZero() && record.OccurredAt.After(*filter.Until) {
		return false
	}
	return true
}
