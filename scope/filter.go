package scope

import (
	"context"

	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/google/uuid"
)

// TenantScopeFilter narrows candidate rows to what an identity may see.
type TenantScopeFilter interface {
	Scope(ctx context.Context, identity types.ResolvedIdentity, resource types.ResourceType, rows []types.Record) ([]types.Record, error)
	Visible(ctx context.Context, identity types.ResolvedIdentity, resource types.ResourceType, row types.Record) (bool, error)
}

// FilterConfig wires the filter dependencies.
type FilterConfig struct {
	Catalog *Catalog
	Source  types.RelationSource
	Logger  types.Logger
}

// Filter is the default TenantScopeFilter.
type Filter struct {
	catalog *Catalog
	source  types.RelationSource
	logger  types.Logger
}

var _ TenantScopeFilter = (*Filter)(nil)

// NewFilter builds a filter. A nil catalog falls back to DefaultCatalog.
func NewFilter(cfg FilterConfig) *Filter {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Filter{
		catalog: catalog,
		source:  cfg.Source,
		logger:  logger,
	}
}

// Catalog exposes the declarations used by the filter.
func (f *Filter) Catalog() *Catalog {
	return f.catalog
}

// Scope returns rows unchanged for universal roles, an empty set for
// unresolved or faulted identities, and otherwise the rows whose unit path
// resolves to the identity's unit and that satisfy every owner binding of the
// role. Rows with a null relation anywhere on a path are dropped.
func (f *Filter) Scope(ctx context.Context, identity types.ResolvedIdentity, resource types.ResourceType, rows []types.Record) ([]types.Record, error) {
	if identity.Role.Universal {
		return rows, nil
	}
	if !f.resolvable(identity) {
		return []types.Record{}, nil
	}
	w := newWalker(f.source)
	out := make([]types.Record, 0, len(rows))
	for _, row := range rows {
		ok, err := f.visible(ctx, w, identity, resource, row)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	if len(out) < len(rows) {
		f.logger.Debug("scope narrowed rows",
			"role", identity.Role.Tag,
			"resource", resource,
			"candidates", len(rows),
			"visible", len(out),
		)
	}
	return out, nil
}

// Visible applies Scope to a single row.
func (f *Filter) Visible(ctx context.Context, identity types.ResolvedIdentity, resource types.ResourceType, row types.Record) (bool, error) {
	if identity.Role.Universal {
		return true, nil
	}
	if !f.resolvable(identity) {
		return false, nil
	}
	return f.visible(ctx, newWalker(f.source), identity, resource, row)
}

// UnitOf resolves the unit owning row. ok is false for unscoped types and for
// rows with a null relation on their path.
func (f *Filter) UnitOf(ctx context.Context, resource types.ResourceType, row types.Record) (uuid.UUID, bool, error) {
	path, scoped := f.catalog.UnitPath(resource)
	if !scoped {
		return uuid.Nil, false, nil
	}
	return newWalker(f.source).resolve(ctx, row, path)
}

func (f *Filter) resolvable(identity types.ResolvedIdentity) bool {
	return identity.Role.Scoped && !identity.Incomplete() && identity.HasUnit()
}

func (f *Filter) visible(ctx context.Context, w *walker, identity types.ResolvedIdentity, resource types.ResourceType, row types.Record) (bool, error) {
	if path, scoped := f.catalog.UnitPath(resource); scoped {
		unit, ok, err := w.resolve(ctx, row, path)
		if err != nil {
			return false, err
		}
		if !ok || unit != identity.Unit {
			return false, nil
		}
	}
	for _, binding := range f.catalog.Owners(resource, identity.Role.Tag) {
		expected := binding.expected(identity)
		if expected == uuid.Nil {
			return false, nil
		}
		owner, ok, err := w.resolve(ctx, row, binding.Path)
		if err != nil {
			return false, err
		}
		if !ok || owner != expected {
			return false, nil
		}
	}
	return true, nil
}
