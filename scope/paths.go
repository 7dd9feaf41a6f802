package scope

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/google/uuid"
)

// Hop follows the Ref relation of the current row to a row of Target.
type Hop struct {
	Ref    string
	Target types.ResourceType
}

// Path is a relation chain. The identifier read by the last hop is the
// result; an empty path resolves to the row's own ID.
type Path []Hop

// String renders the path for logs, e.g. "building>faculty".
func (p Path) String() string {
	if len(p) == 0 {
		return "self"
	}
	parts := make([]string, 0, len(p))
	for _, hop := range p {
		parts = append(parts, hop.Ref)
	}
	return strings.Join(parts, ">")
}

// ErrRelationSourceRequired indicates a multi-hop walk without a source.
var ErrRelationSourceRequired = errors.New("go-campus-authz: relation source required for multi-hop path")

type lookupKey struct {
	resource types.ResourceType
	id       uuid.UUID
}

// walker memoizes intermediate rows for the duration of one Scope call.
type walker struct {
	source types.RelationSource
	rows   map[lookupKey]*types.Record
}

func newWalker(source types.RelationSource) *walker {
	return &walker{
		source: source,
		rows:   make(map[lookupKey]*types.Record),
	}
}

// resolve follows path from row. ok is false when any relation on the way is
// null or dangling.
func (w *walker) resolve(ctx context.Context, row types.Record, path Path) (uuid.UUID, bool, error) {
	if len(path) == 0 {
		return row.ID, row.ID != uuid.Nil, nil
	}
	current := row
	for idx, hop := range path {
		id := current.Ref(hop.Ref)
		if id == uuid.Nil {
			return uuid.Nil, false, nil
		}
		if idx == len(path)-1 {
			return id, true, nil
		}
		next, err := w.lookup(ctx, hop.Target, id)
		if err != nil {
			return uuid.Nil, false, err
		}
		if next == nil {
			return uuid.Nil, false, nil
		}
		current = *next
	}
	return uuid.Nil, false, nil
}

func (w *walker) lookup(ctx context.Context, resource types.ResourceType, id uuid.UUID) (*types.Record, error) {
	key := lookupKey{resource: resource, id: id}
	if row, ok := w.rows[key]; ok {
		return row, nil
	}
	if w.source == nil {
		return nil, ErrRelationSourceRequired
	}
	row, err := w.source.Lookup(ctx, resource, id)
	if err != nil {
		if errors.Is(err, types.ErrRecordNotFound) {
			w.rows[key] = nil
			return nil, nil
		}
		return nil, fmt.Errorf("scope: lookup %s %s: %w", resource, id, err)
	}
	w.rows[key] = row
	return row, nil
}

// UnitOf resolves the unit owning row through a one-off walk.
func UnitOf(ctx context.Context, source types.RelationSource, path Path, row types.Record) (uuid.UUID, bool, error) {
	return newWalker(source).resolve(ctx, row, path)
}
