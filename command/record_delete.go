package command

import (
	"context"

	"github.com/goliatone/go-campus-authz/authorizer"
	"github.com/goliatone/go-campus-authz/pkg/types"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// DeleteRecordsInput removes rows by id. Either every row is visible to the
// actor and removed, or nothing is.
type DeleteRecordsInput struct {
	Actor    types.ActorRef
	Resource types.ResourceType
	IDs      []uuid.UUID
	Result   *types.DeleteEvent
}

// Type implements gocommand.Message.
func (DeleteRecordsInput) Type() string {
	return "command.record.delete"
}

// Validate implements gocommand.Message.
func (input DeleteRecordsInput) Validate() error {
	if err := validateTarget(input.Actor, input.Resource); err != nil {
		return err
	}
	if len(uniqueIDs(input.IDs)) == 0 {
		return ErrRecordIDRequired
	}
	return nil
}

// DeleteRecordsCommand deletes scoped rows.
type DeleteRecordsCommand struct {
	authz  authorizer.RequestAuthorizer
	rows   types.RowRepository
	hooks  types.Hooks
	clock  types.Clock
	logger types.Logger
}

// NewDeleteRecordsCommand constructs the delete handler.
func NewDeleteRecordsCommand(cfg RecordCommandConfig) *DeleteRecordsCommand {
	return &DeleteRecordsCommand{
		authz:  cfg.Authorizer,
		rows:   cfg.Rows,
		hooks:  cfg.Hooks,
		clock:  safeClock(cfg.Clock),
		logger: safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[DeleteRecordsInput] = (*DeleteRecordsCommand)(nil)

// Execute fetches the candidates, scopes them and deletes the survivors. Rows
// that are missing or hidden are reported as not found. Deleting profile rows
// also removes the user rows they reference.
func (c *DeleteRecordsCommand) Execute(ctx context.Context, input DeleteRecordsInput) error {
	if c.authz == nil {
		return ErrMissingAuthorizer
	}
	if c.rows == nil {
		return types.ErrMissingRowRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	ids := uniqueIDs(input.IDs)
	candidates, err := c.rows.FetchRows(ctx, input.Resource, types.RowFilter{IDs: ids})
	if err != nil {
		return err
	}
	view, err := c.authz.AuthorizeDelete(ctx, input.Actor, input.Resource, candidates)
	if err != nil {
		return err
	}
	if len(view.Rows) != len(ids) {
		return authorizer.RecordNotFoundError(input.Resource)
	}

	deleted := recordIDs(view.Rows)
	if err := c.rows.DeleteRows(ctx, input.Resource, deleted); err != nil {
		return err
	}

	event := types.DeleteEvent{
		ActorID:    input.Actor.ID,
		Resource:   input.Resource,
		IDs:        deleted,
		Cascaded:   profileOwners(input.Resource, view.Rows),
		OccurredAt: now(c.clock),
	}
	c.logger.Info("records deleted", "resource", input.Resource, "count", len(deleted))
	emitDeleteHook(ctx, c.hooks, event)
	if input.Result != nil {
		*input.Result = event
	}
	return nil
}

func profileOwners(resource types.ResourceType, rows []types.Record) []uuid.UUID {
	if !types.IsProfileResource(resource) {
		return nil
	}
	var owners []uuid.UUID
	for _, row := range rows {
		if owner := row.Ref(types.RefUser); owner != uuid.Nil {
			owners = append(owners, owner)
		}
	}
	return owners
}
