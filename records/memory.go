package records

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-campus-authz/registry"
	"github.com/google/uuid"
)

// MemoryStore keeps rows in process. It implements the row, profile and
// cascade contracts of the Bun stores and is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	schema   *Schema
	registry registry.RoleRegistry
	idGen    types.IDGenerator
	rows     map[types.ResourceType]map[uuid.UUID]types.Record
	order    map[types.ResourceType][]uuid.UUID
}

var (
	_ types.RowRepository     = (*MemoryStore)(nil)
	_ types.ProfileRepository = (*MemoryStore)(nil)
	_ types.ProfileCascade    = (*MemoryStore)(nil)
)

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithSchema replaces the default schema.
func WithSchema(schema *Schema) MemoryOption {
	return func(m *MemoryStore) {
		if schema != nil {
			m.schema = schema
		}
	}
}

// WithRegistry replaces the registry used to find profile tables.
func WithRegistry(reg registry.RoleRegistry) MemoryOption {
	return func(m *MemoryStore) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// WithIDGenerator replaces the UUID generator used for new rows.
func WithIDGenerator(gen types.IDGenerator) MemoryOption {
	return func(m *MemoryStore) {
		if gen != nil {
			m.idGen = gen
		}
	}
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		schema:   DefaultSchema(),
		registry: registry.New(),
		idGen:    types.UUIDGenerator{},
		rows:     make(map[types.ResourceType]map[uuid.UUID]types.Record),
		order:    make(map[types.ResourceType][]uuid.UUID),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Seed stores rows as given. Rows without an ID get one.
func (m *MemoryStore) Seed(rows ...types.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		if _, err := m.schema.Table(row.Type); err != nil {
			return err
		}
		if row.ID == uuid.Nil {
			row.ID = m.idGen.UUID()
		}
		m.put(row)
	}
	return nil
}

// Lookup implements types.RelationSource.
func (m *MemoryStore) Lookup(_ context.Context, resource types.ResourceType, id uuid.UUID) (*types.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[resource][id]
	if !ok {
		return nil, fmt.Errorf("records: %s %s: %w", resource, id, types.ErrRecordNotFound)
	}
	out := row.Clone()
	return &out, nil
}

// FetchRows implements types.RowRepository. Rows come back in insertion
// order.
func (m *MemoryStore) FetchRows(_ context.Context, resource types.ResourceType, filter types.RowFilter) ([]types.Record, error) {
	if _, err := m.schema.Table(resource); err != nil {
		return nil, err
	}
	var wanted map[uuid.UUID]struct{}
	if len(filter.IDs) > 0 {
		wanted = make(map[uuid.UUID]struct{}, len(filter.IDs))
		for _, id := range filter.IDs {
			wanted[id] = struct{}{}
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Record, 0)
	skipped := 0
	for _, id := range m.order[resource] {
		if wanted != nil {
			if _, ok := wanted[id]; !ok {
				continue
			}
		}
		row := m.rows[resource][id]
		if !matchesRefs(row, filter.Refs) {
			continue
		}
		if filter.Pagination.Limit > 0 && skipped < filter.Pagination.Offset {
			skipped++
			continue
		}
		out = append(out, row.Clone())
		if filter.Pagination.Limit > 0 && len(out) == filter.Pagination.Limit {
			break
		}
	}
	return out, nil
}

// SaveRow implements types.RowRepository.
func (m *MemoryStore) SaveRow(_ context.Context, record types.Record) (*types.Record, error) {
	table, err := m.schema.Table(record.Type)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = m.idGen.UUID()
	}
	stored := types.Record{
		Type: record.Type,
		ID:   record.ID,
		Refs: make(map[string]uuid.UUID, len(table.Refs)),
	}
	for _, ref := range table.Refs {
		if id := record.Ref(ref); id != uuid.Nil {
			stored.Refs[ref] = id
		}
	}
	if existing, ok := m.rows[record.Type][record.ID]; ok && len(existing.Attrs) > 0 {
		stored.Attrs = make(map[string]any, len(existing.Attrs))
		for k, v := range existing.Attrs {
			stored.Attrs[k] = v
		}
	}
	for _, attr := range table.Attrs {
		if value, ok := record.Attrs[attr]; ok {
			if stored.Attrs == nil {
				stored.Attrs = make(map[string]any, len(table.Attrs))
			}
			stored.Attrs[attr] = value
		}
	}
	m.put(stored)
	out := stored.Clone()
	return &out, nil
}

// DeleteRows implements types.RowRepository. Nothing is removed unless every
// identifier exists. Profile rows take their user rows with them.
func (m *MemoryStore) DeleteRows(_ context.Context, resource types.ResourceType, ids []uuid.UUID) error {
	if _, err := m.schema.Table(resource); err != nil {
		return err
	}
	ids = uniqueIDs(ids)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.rows[resource][id]; !ok {
			return fmt.Errorf("records: delete %s %s: %w", resource, id, types.ErrRecordNotFound)
		}
	}
	cascade := types.IsProfileResource(resource)
	for _, id := range ids {
		owner := m.rows[resource][id].Ref(types.RefUser)
		m.remove(resource, id)
		if cascade && owner != uuid.Nil {
			m.remove(types.ResourceUser, owner)
		}
	}
	return nil
}

// FetchProfile implements types.ProfileRepository by matching the user ref of
// the role's profile table.
func (m *MemoryStore) FetchProfile(_ context.Context, role types.RoleTag, actorID uuid.UUID) (*types.ProfileRecord, error) {
	if actorID == uuid.Nil {
		return nil, types.ErrActorRequired
	}
	resource, err := m.profileResource(role)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.order[resource] {
		row := m.rows[resource][id]
		if row.Ref(types.RefUser) == actorID {
			return toProfile(role, row), nil
		}
	}
	return nil, types.ErrProfileNotFound
}

// DeleteProfile implements types.ProfileCascade.
func (m *MemoryStore) DeleteProfile(_ context.Context, role types.RoleTag, profileID uuid.UUID) (*types.ProfileRecord, error) {
	resource, err := m.profileResource(role)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[resource][profileID]
	if !ok {
		return nil, types.ErrProfileNotFound
	}
	profile := toProfile(role, row)
	m.remove(resource, profileID)
	if profile.ActorID != uuid.Nil {
		m.remove(types.ResourceUser, profile.ActorID)
	}
	return profile, nil
}

// Len returns the number of stored rows of resource.
func (m *MemoryStore) Len(resource types.ResourceType) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows[resource])
}

func (m *MemoryStore) profileResource(role types.RoleTag) (types.ResourceType, error) {
	descriptor, err := m.registry.Describe(string(role))
	if err != nil {
		return "", err
	}
	if descriptor.Profile == "" {
		return "", types.ErrProfileNotFound
	}
	return descriptor.Profile, nil
}

func (m *MemoryStore) put(row types.Record) {
	bucket, ok := m.rows[row.Type]
	if !ok {
		bucket = make(map[uuid.UUID]types.Record)
		m.rows[row.Type] = bucket
	}
	if _, exists := bucket[row.ID]; !exists {
		m.order[row.Type] = append(m.order[row.Type], row.ID)
	}
	bucket[row.ID] = row.Clone()
}

func (m *MemoryStore) remove(resource types.ResourceType, id uuid.UUID) {
	if _, ok := m.rows[resource][id]; !ok {
		return
	}
	delete(m.rows[resource], id)
	order := m.order[resource]
	for idx, candidate := range order {
		if candidate == id {
			m.order[resource] = append(order[:idx:idx], order[idx+1:]...)
			break
		}
	}
}

func matchesRefs(row types.Record, refs map[string]uuid.UUID) bool {
	for ref, id := range refs {
		if row.Ref(ref) != id {
			return false
		}
	}
	return true
}

func toProfile(role types.RoleTag, row types.Record) *types.ProfileRecord {
	clone := row.Clone()
	return &types.ProfileRecord{
		ID:      row.ID,
		ActorID: row.Ref(types.RefUser),
		Role:    role,
		Refs:    clone.Refs,
	}
}
