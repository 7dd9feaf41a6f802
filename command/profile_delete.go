package command

import (
	"context"
	"errors"

	"github.com/goliatone/go-campus-authz/authorizer"
	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-campus-authz/registry"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// DeleteProfileInput removes a role profile together with its credential row.
type DeleteProfileInput struct {
	Actor     types.ActorRef
	Role      types.RoleTag
	ProfileID uuid.UUID
	Result    *types.DeleteEvent
}

// Type implements gocommand.Message.
func (DeleteProfileInput) Type() string {
	return "command.profile.delete"
}

// Validate implements gocommand.Message.
func (input DeleteProfileInput) Validate() error {
	switch {
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	case input.Role == "":
		return ErrRoleRequired
	case input.ProfileID == uuid.Nil:
		return ErrProfileIDRequired
	default:
		return nil
	}
}

// ProfileCommandConfig wires the profile delete handler.
type ProfileCommandConfig struct {
	Authorizer authorizer.RequestAuthorizer
	Rows       types.RelationSource
	Cascade    types.ProfileCascade
	Registry   registry.RoleRegistry
	Hooks      types.Hooks
	Clock      types.Clock
	Logger     types.Logger
}

// DeleteProfileCommand deletes a profile row and the user row it backs.
type DeleteProfileCommand struct {
	authz    authorizer.RequestAuthorizer
	rows     types.RelationSource
	cascade  types.ProfileCascade
	registry registry.RoleRegistry
	hooks    types.Hooks
	clock    types.Clock
	logger   types.Logger
}

// NewDeleteProfileCommand constructs the handler.
func NewDeleteProfileCommand(cfg ProfileCommandConfig) *DeleteProfileCommand {
	reg := cfg.Registry
	if reg == nil {
		reg = registry.New()
	}
	return &DeleteProfileCommand{
		authz:    cfg.Authorizer,
		rows:     cfg.Rows,
		cascade:  cfg.Cascade,
		registry: reg,
		hooks:    cfg.Hooks,
		clock:    safeClock(cfg.Clock),
		logger:   safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[DeleteProfileInput] = (*DeleteProfileCommand)(nil)

// Execute authorizes a delete on the profile resource and cascades to the
// credential row.
func (c *DeleteProfileCommand) Execute(ctx context.Context, input DeleteProfileInput) error {
	if c.authz == nil {
		return ErrMissingAuthorizer
	}
	if c.cascade == nil {
		return ErrMissingProfileCascade
	}
	if c.rows == nil {
		return types.ErrMissingRowRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	descriptor, err := c.registry.Describe(string(input.Role))
	if err != nil {
		return err
	}
	if descriptor.Profile == "" {
		return types.ErrProfileNotFound
	}
	resource := descriptor.Profile

	var candidates []types.Record
	row, err := c.rows.Lookup(ctx, resource, input.ProfileID)
	switch {
	case err == nil:
		candidates = append(candidates, *row)
	case !errors.Is(err, types.ErrRecordNotFound):
		return err
	}

	view, err := c.authz.AuthorizeDelete(ctx, input.Actor, resource, candidates)
	if err != nil {
		return err
	}
	if len(view.Rows) != 1 {
		return authorizer.RecordNotFoundError(resource)
	}

	profile, err := c.cascade.DeleteProfile(ctx, descriptor.Tag, input.ProfileID)
	if err != nil {
		if errors.Is(err, types.ErrProfileNotFound) {
			return authorizer.RecordNotFoundError(resource)
		}
		return err
	}

	event := types.DeleteEvent{
		ActorID:    input.Actor.ID,
		Resource:   resource,
		IDs:        []uuid.UUID{profile.ID},
		OccurredAt: now(c.clock),
	}
	if profile.ActorID != uuid.Nil {
		event.Cascaded = []uuid.UUID{profile.ActorID}
	}
	c.logger.Info("profile deleted",
		"role", descriptor.Tag,
		"profile_id", profile.ID,
		"user_id", profile.ActorID,
	)
	emitDeleteHook(ctx, c.hooks, event)
	if input.Result != nil {
		*input.Result = event
	}
	return nil
}
