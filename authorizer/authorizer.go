package authorizer

import (
	"context"

	"github.com/goliatone/go-campus-authz/permissions"
	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-campus-authz/resolver"
	"github.com/goliatone/go-campus-authz/scope"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
)

// FeatureIncompleteProfileStrict turns incomplete-profile reads into errors
// instead of empty views.
const FeatureIncompleteProfileStrict = "authz.incomplete_profile.strict"

// ScopeFilter is the scoping contract the authorizer needs.
type ScopeFilter interface {
	scope.TenantScopeFilter
	Catalog() *scope.Catalog
}

// RequestAuthorizer is the entry point of every operation.
type RequestAuthorizer interface {
	Authorize(ctx context.Context, req Request) (AuthorizedView, error)
	PrepareCreate(ctx context.Context, actor types.ActorRef, resource types.ResourceType, draft types.Record) (Mutation, error)
	PrepareUpdate(ctx context.Context, actor types.ActorRef, resource types.ResourceType, existing, draft types.Record) (Mutation, error)
	AuthorizeDelete(ctx context.Context, actor types.ActorRef, resource types.ResourceType, rows []types.Record) (AuthorizedView, error)
}

// Request carries one operation and its candidate rows.
type Request struct {
	Actor     types.ActorRef
	Operation types.OperationClass
	Resource  types.ResourceType
	Rows      []types.Record
}

// AuthorizedView is the scoped outcome of an allowed request. Incomplete marks
// an empty view caused by a profile fault rather than by data.
type AuthorizedView struct {
	Identity   types.ResolvedIdentity
	Operation  types.OperationClass
	Resource   types.ResourceType
	Rows       []types.Record
	State      types.DecisionState
	Incomplete bool
}

// Mutation is a draft row cleared for persistence.
type Mutation struct {
	Identity types.ResolvedIdentity
	Record   types.Record
	Stamped  []string
}

// Config wires authorizer dependencies.
type Config struct {
	Resolver    resolver.ActorResolver
	Evaluator   permissions.Evaluator
	Filter      ScopeFilter
	FeatureGate featuregate.FeatureGate
	Sink        types.DecisionSink
	Hooks       types.Hooks
	Clock       types.Clock
	Logger      types.Logger
	Transitions types.TransitionPolicy
}

// Authorizer is the default RequestAuthorizer.
type Authorizer struct {
	resolver    resolver.ActorResolver
	evaluator   permissions.Evaluator
	filter      ScopeFilter
	gate        featuregate.FeatureGate
	sink        types.DecisionSink
	hooks       types.Hooks
	clock       types.Clock
	logger      types.Logger
	transitions types.TransitionPolicy
}

var _ RequestAuthorizer = (*Authorizer)(nil)

// New constructs the authorizer. Resolver is required; the evaluator and the
// filter default to the shipped matrix and catalog.
func New(cfg Config) (*Authorizer, error) {
	if cfg.Resolver == nil {
		return nil, types.ErrMissingResolver
	}
	evaluator := cfg.Evaluator
	if evaluator == nil {
		evaluator = permissions.DefaultMatrix()
	}
	logger := safeLogger(cfg.Logger)
	filter := cfg.Filter
	if filter == nil {
		filter = scope.NewFilter(scope.FilterConfig{Logger: logger})
	}
	transitions := cfg.Transitions
	if transitions == nil {
		transitions = types.DefaultTransitionPolicy()
	}
	return &Authorizer{
		resolver:    cfg.Resolver,
		evaluator:   evaluator,
		filter:      filter,
		gate:        cfg.FeatureGate,
		sink:        cfg.Sink,
		hooks:       cfg.Hooks,
		clock:       safeClock(cfg.Clock),
		logger:      logger,
		transitions: transitions,
	}, nil
}

// Evaluator exposes the permission matrix in use.
func (a *Authorizer) Evaluator() permissions.Evaluator {
	return a.evaluator
}

// Filter exposes the scope filter in use.
func (a *Authorizer) Filter() ScopeFilter {
	return a.filter
}

// Authorize resolves the actor, gates the operation and scopes the rows. A
// denial never looks at the rows.
func (a *Authorizer) Authorize(ctx context.Context, req Request) (AuthorizedView, error) {
	d := a.begin(req.Actor, req.Operation, req.Resource)
	d.event.Candidates = len(req.Rows)

	identity, err := a.admit(ctx, d, req.Actor, req.Operation, req.Resource)
	if err != nil {
		return AuthorizedView{}, err
	}

	if identity.Incomplete() {
		strict, gateErr := a.strict(ctx, identity)
		if gateErr != nil {
			a.logger.Error("incomplete profile gate failed", gateErr, "actor_id", identity.Actor.ID)
		}
		if strict {
			a.finish(ctx, d, types.DecisionDenied, identity.Fault)
			return AuthorizedView{}, identity.Fault
		}
	}

	rows, err := a.filter.Scope(ctx, identity, req.Resource, req.Rows)
	if err != nil {
		a.finish(ctx, d, types.DecisionDenied, err)
		return AuthorizedView{}, err
	}
	d.event.Visible = len(rows)
	a.finish(ctx, d, types.DecisionScoped, identity.Fault)
	return AuthorizedView{
		Identity:   identity,
		Operation:  req.Operation,
		Resource:   req.Resource,
		Rows:       rows,
		State:      types.DecisionScoped,
		Incomplete: identity.Incomplete(),
	}, nil
}

// AuthorizeDelete gates a delete and returns the rows the actor may remove.
func (a *Authorizer) AuthorizeDelete(ctx context.Context, actor types.ActorRef, resource types.ResourceType, rows []types.Record) (AuthorizedView, error) {
	return a.Authorize(ctx, Request{
		Actor:     actor,
		Operation: types.OperationDelete,
		Resource:  resource,
		Rows:      rows,
	})
}

// PrepareCreate gates a create, stamps ownership refs over any client value
// and rejects drafts that land outside the actor's unit.
func (a *Authorizer) PrepareCreate(ctx context.Context, actor types.ActorRef, resource types.ResourceType, draft types.Record) (Mutation, error) {
	d := a.begin(actor, types.OperationWrite, resource)
	d.event.Draft = draftPayload(draft)

	identity, err := a.admit(ctx, d, actor, types.OperationWrite, resource)
	if err != nil {
		return Mutation{}, err
	}
	if identity.Incomplete() {
		a.finish(ctx, d, types.DecisionDenied, identity.Fault)
		return Mutation{}, identity.Fault
	}

	record := draft.Clone()
	record.Type = resource
	record, stamped := a.stamp(identity, resource, record, nil)

	if err := a.checkWrite(ctx, identity, resource, record); err != nil {
		a.finish(ctx, d, types.DecisionDenied, err)
		return Mutation{}, err
	}
	d.event.Visible = 1
	a.finish(ctx, d, types.DecisionScoped, nil)
	return Mutation{Identity: identity, Record: record, Stamped: stamped}, nil
}

// PrepareUpdate gates an update of existing. The existing row must be visible
// to the actor; stamped refs keep their stored value.
func (a *Authorizer) PrepareUpdate(ctx context.Context, actor types.ActorRef, resource types.ResourceType, existing, draft types.Record) (Mutation, error) {
	d := a.begin(actor, types.OperationWrite, resource)
	d.event.Candidates = 1
	d.event.Draft = draftPayload(draft)

	identity, err := a.admit(ctx, d, actor, types.OperationWrite, resource)
	if err != nil {
		return Mutation{}, err
	}
	if identity.Incomplete() {
		a.finish(ctx, d, types.DecisionDenied, identity.Fault)
		return Mutation{}, identity.Fault
	}

	visible, err := a.filter.Visible(ctx, identity, resource, existing)
	if err != nil {
		a.finish(ctx, d, types.DecisionDenied, err)
		return Mutation{}, err
	}
	if !visible {
		err := RecordNotFoundError(resource)
		a.finish(ctx, d, types.DecisionDenied, err)
		return Mutation{}, err
	}

	record := draft.Clone()
	record.Type = resource
	record.ID = existing.ID
	record, stamped := a.stamp(identity, resource, record, &existing)

	if err := a.checkWrite(ctx, identity, resource, record); err != nil {
		a.finish(ctx, d, types.DecisionDenied, err)
		return Mutation{}, err
	}
	d.event.Visible = 1
	a.finish(ctx, d, types.DecisionScoped, nil)
	return Mutation{Identity: identity, Record: record, Stamped: stamped}, nil
}

// admit runs the unresolved → resolved step and the permission gate.
func (a *Authorizer) admit(ctx context.Context, d *decision, actor types.ActorRef, op types.OperationClass, resource types.ResourceType) (types.ResolvedIdentity, error) {
	identity, err := a.resolver.Resolve(ctx, actor)
	if err != nil {
		a.finish(ctx, d, types.DecisionDenied, err)
		return types.ResolvedIdentity{}, err
	}
	d.event.Role = identity.Role.Tag
	a.advance(d, types.DecisionResolved)

	if !a.evaluator.Allows(identity.Role.Tag, op, resource) {
		required := a.evaluator.RequiredRoles(op, resource)
		d.event.RequiredRoles = required
		err := DeniedError(identity.Role.Tag, op, resource, required)
		a.finish(ctx, d, types.DecisionDenied, err)
		return types.ResolvedIdentity{}, err
	}
	return identity, nil
}

// stamp forces ownership refs. On update the stored value wins so stamped
// refs stay immutable.
func (a *Authorizer) stamp(identity types.ResolvedIdentity, resource types.ResourceType, record types.Record, existing *types.Record) (types.Record, []string) {
	stamped := make([]string, 0)
	for _, s := range a.filter.Catalog().Stamps(resource) {
		if !s.AppliesTo(identity.Role.Tag) {
			continue
		}
		value := s.Value(identity)
		if value == uuid.Nil {
			continue
		}
		if existing != nil && existing.Ref(s.Ref) != uuid.Nil {
			value = existing.Ref(s.Ref)
		}
		if client := record.Ref(s.Ref); client != uuid.Nil && client != value {
			a.logger.Debug("stamp overrides client value",
				"resource", resource,
				"ref", s.Ref,
				"role", identity.Role.Tag,
			)
		}
		record = record.WithRef(s.Ref, value)
		stamped = append(stamped, s.Ref)
	}
	return record, stamped
}

func (a *Authorizer) checkWrite(ctx context.Context, identity types.ResolvedIdentity, resource types.ResourceType, record types.Record) error {
	if identity.Role.Universal {
		return nil
	}
	visible, err := a.filter.Visible(ctx, identity, resource, record)
	if err != nil {
		return err
	}
	if !visible {
		return ScopeViolationError(identity.Role.Tag, resource)
	}
	return nil
}

func (a *Authorizer) strict(ctx context.Context, identity types.ResolvedIdentity) (bool, error) {
	if a.gate == nil {
		return false, nil
	}
	return a.gate.Enabled(ctx, FeatureIncompleteProfileStrict, featuregate.WithScopeChain(gateScope(identity)))
}

// gateScope orders the scopes from most to least specific: user, role, system.
func gateScope(identity types.ResolvedIdentity) featuregate.ScopeChain {
	chain := make(featuregate.ScopeChain, 0, 3)
	if identity.Actor.ID != uuid.Nil {
		chain = append(chain, featuregate.ScopeRef{Kind: featuregate.ScopeUser, ID: identity.Actor.ID.String()})
	}
	if identity.Role.Tag != "" {
		chain = append(chain, featuregate.ScopeRef{Kind: featuregate.ScopeRole, ID: string(identity.Role.Tag)})
	}
	return append(chain, featuregate.ScopeRef{Kind: featuregate.ScopeSystem})
}

func draftPayload(record types.Record) map[string]any {
	if len(record.Attrs) == 0 && len(record.Refs) == 0 {
		return nil
	}
	out := make(map[string]any, len(record.Attrs)+len(record.Refs))
	for k, v := range record.Attrs {
		out[k] = v
	}
	for k, v := range record.Refs {
		out[k+"_id"] = v.String()
	}
	return out
}
