package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-campus-authz/registry"
	"github.com/goliatone/go-campus-authz/scope"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	textCodeIncompleteProfile = "INCOMPLETE_PROFILE"
	textCodeActorRequired     = "ACTOR_REQUIRED"
)

// ActorResolver resolves actors into identities.
type ActorResolver interface {
	Resolve(ctx context.Context, actor types.ActorRef) (types.ResolvedIdentity, error)
}

// Config wires resolver dependencies.
type Config struct {
	Registry  registry.RoleRegistry
	Profiles  types.ProfileRepository
	Relations types.RelationSource
	Catalog   *scope.Catalog
	Hooks     types.Hooks
	Logger    types.Logger
}

// Resolver is the default ActorResolver.
type Resolver struct {
	registry  registry.RoleRegistry
	profiles  types.ProfileRepository
	relations types.RelationSource
	catalog   *scope.Catalog
	hooks     types.Hooks
	logger    types.Logger
}

var _ ActorResolver = (*Resolver)(nil)

// New constructs a resolver. Profiles is required; the registry and catalog
// default to the academic domain.
func New(cfg Config) (*Resolver, error) {
	if cfg.Profiles == nil {
		return nil, types.ErrMissingProfileRepository
	}
	reg := cfg.Registry
	if reg == nil {
		reg = registry.New()
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = scope.DefaultCatalog()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Resolver{
		registry:  reg,
		profiles:  cfg.Profiles,
		relations: cfg.Relations,
		catalog:   catalog,
		hooks:     cfg.Hooks,
		logger:    logger,
	}, nil
}

// Resolve describes the actor role and, for scoped roles, derives the unit
// from the profile. Unknown roles and persistence failures are returned as
// errors; profile faults are carried on the identity.
func (r *Resolver) Resolve(ctx context.Context, actor types.ActorRef) (types.ResolvedIdentity, error) {
	if actor.ID == uuid.Nil {
		return types.ResolvedIdentity{}, goerrors.Wrap(types.ErrActorRequired, goerrors.CategoryAuth, "actor id required").
			WithCode(goerrors.CodeUnauthorized).
			WithTextCode(textCodeActorRequired)
	}
	cache := cacheFromContext(ctx)
	if identity, ok := cache.get(actor); ok {
		return identity, nil
	}

	desc, err := r.registry.Describe(actor.Role)
	if err != nil {
		r.logger.Error("actor carries unknown role", err, "actor_id", actor.ID, "role", actor.Role)
		return types.ResolvedIdentity{}, err
	}
	if _, aliased := types.NormalizeRole(actor.Role); aliased {
		r.logger.Info("role alias normalized", "actor_id", actor.ID, "stored", actor.Role, "role", desc.Tag)
	}

	identity := types.ResolvedIdentity{
		Actor: actor,
		Role:  desc,
	}
	if !desc.Universal {
		identity, err = r.resolveUnit(ctx, identity)
		if err != nil {
			return types.ResolvedIdentity{}, err
		}
	}

	if identity.Fault != nil {
		r.logger.Error("incomplete profile", identity.Fault, "actor_id", actor.ID, "role", desc.Tag)
	}
	if r.hooks.AfterResolve != nil {
		r.hooks.AfterResolve(ctx, identity)
	}
	cache.put(identity)
	return identity, nil
}

func (r *Resolver) resolveUnit(ctx context.Context, identity types.ResolvedIdentity) (types.ResolvedIdentity, error) {
	desc := identity.Role
	if !desc.Scoped || desc.Profile == "" {
		identity.Fault = IncompleteProfileError(desc.Tag, identity.Actor.ID, "role has no profile type")
		return identity, nil
	}
	profile, err := r.profiles.FetchProfile(ctx, desc.Tag, identity.Actor.ID)
	if err != nil {
		if errors.Is(err, types.ErrProfileNotFound) {
			identity.Fault = IncompleteProfileError(desc.Tag, identity.Actor.ID, fmt.Sprintf("no %s profile", desc.Profile))
			return identity, nil
		}
		return identity, err
	}
	if profile == nil {
		identity.Fault = IncompleteProfileError(desc.Tag, identity.Actor.ID, fmt.Sprintf("no %s profile", desc.Profile))
		return identity, nil
	}
	identity.ProfileID = profile.ID

	path, ok := r.catalog.UnitPath(desc.Profile)
	if !ok {
		identity.Fault = IncompleteProfileError(desc.Tag, identity.Actor.ID, fmt.Sprintf("%s has no unit path", desc.Profile))
		return identity, nil
	}
	unit, ok, err := scope.UnitOf(ctx, r.relations, path, profile.AsRecord(desc.Profile))
	if err != nil {
		return identity, err
	}
	if !ok {
		identity.Fault = IncompleteProfileError(desc.Tag, identity.Actor.ID, fmt.Sprintf("%s profile has no unit via %s", desc.Profile, path))
		return identity, nil
	}
	identity.Unit = unit
	return identity, nil
}

// IncompleteProfileError describes a scoped actor whose profile cannot yield a
// unit.
func IncompleteProfileError(role types.RoleTag, actorID uuid.UUID, reason string) error {
	return goerrors.Wrap(types.ErrIncompleteProfile, goerrors.CategoryAuthz, "incomplete profile: "+reason).
		WithCode(goerrors.CodeForbidden).
		WithTextCode(textCodeIncompleteProfile).
		WithMetadata(map[string]any{
			"role":     string(role),
			"actor_id": actorID.String(),
		})
}
