package authctx

import (
	"context"

	auth "github.com/goliatone/go-auth"
	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

const (
	textCodeActorMissing = "ACTOR_CONTEXT_MISSING"
	textCodeActorInvalid = "ACTOR_CONTEXT_INVALID"
)

// ActorFromContext is a thin wrapper around go-auth helpers so callers do not
// need to import auth directly when they only need the actor payload.
func ActorFromContext(ctx context.Context) (*auth.ActorContext, bool) {
	return auth.ActorFromContext(ctx)
}

// ResolveActorContext returns the actor metadata stored by go-auth middleware
// or rebuilds it from JWT claims when no enricher stored it.
func ResolveActorContext(ctx context.Context) (*auth.ActorContext, error) {
	if ctx == nil {
		return nil, missingActor("go-campus-authz: missing request context")
	}

	if actor, ok := auth.ActorFromContext(ctx); ok && actor != nil {
		return actor, nil
	}

	if claims, ok := auth.GetClaims(ctx); ok && claims != nil {
		if actor := auth.ActorContextFromClaims(claims); actor != nil {
			return actor, nil
		}
	}

	return nil, missingActor("go-campus-authz: auth actor context not found on request")
}

// ResolveActor returns the actor reference handed to the authorizer.
func ResolveActor(ctx context.Context) (types.ActorRef, error) {
	actorCtx, err := ResolveActorContext(ctx)
	if err != nil {
		return types.ActorRef{}, err
	}
	return ActorRefFromActorContext(actorCtx)
}

// ResolveActorFromRouter mirrors ResolveActor for router transports where
// middleware stores actor metadata directly in the router context.
func ResolveActorFromRouter(ctx router.Context) (types.ActorRef, error) {
	if ctx == nil {
		return types.ActorRef{}, missingActor("go-campus-authz: missing router context")
	}
	if actor, ok := auth.ActorFromRouterContext(ctx); ok && actor != nil {
		return ActorRefFromActorContext(actor)
	}
	return ResolveActor(ctx.Context())
}

// ActorRefFromActorContext converts the auth middleware payload into an
// ActorRef. The role tag is passed through verbatim; normalization happens
// during actor resolution.
func ActorRefFromActorContext(actor *auth.ActorContext) (types.ActorRef, error) {
	if actor == nil {
		return types.ActorRef{}, invalidActor(nil, "go-campus-authz: actor context is nil")
	}
	if actor.ActorID == "" {
		return types.ActorRef{}, invalidActor(nil, "go-campus-authz: actor context missing actor_id")
	}

	actorID, err := uuid.Parse(actor.ActorID)
	if err != nil {
		return types.ActorRef{}, invalidActor(err, "go-campus-authz: invalid actor_id on auth context")
	}
	return types.ActorRef{
		ID:   actorID,
		Role: actor.Role,
	}, nil
}

func missingActor(msg string) error {
	return errors.Wrap(types.ErrActorRequired, errors.CategoryAuth, msg).
		WithCode(errors.CodeUnauthorized).
		WithTextCode(textCodeActorMissing)
}

func invalidActor(err error, msg string) error {
	if err != nil {
		return errors.Wrap(err, errors.CategoryAuth, msg).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorInvalid)
	}
	return errors.New(msg, errors.CategoryAuth).
		WithCode(errors.CodeUnauthorized).
		WithTextCode(textCodeActorInvalid)
}
