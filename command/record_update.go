package command

import (
	"context"
	"errors"

	"github.com/goliatone/go-campus-authz/authorizer"
	"github.com/goliatone/go-campus-authz/pkg/types"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// UpdateRecordInput carries a partial draft for an existing row. Refs and
// attributes absent from Patch keep their stored value.
type UpdateRecordInput struct {
	Actor    types.ActorRef
	Resource types.ResourceType
	ID       uuid.UUID
	Patch    types.Record
	Result   *types.Record
}

// Type implements gocommand.Message.
func (UpdateRecordInput) Type() string {
	return "command.record.update"
}

// Validate implements gocommand.Message.
func (input UpdateRecordInput) Validate() error {
	if err := validateTarget(input.Actor, input.Resource); err != nil {
		return err
	}
	if input.ID == uuid.Nil {
		return ErrRecordIDRequired
	}
	return nil
}

// UpdateRecordCommand merges a patch into a visible row.
type UpdateRecordCommand struct {
	authz  authorizer.RequestAuthorizer
	rows   types.RowRepository
	logger types.Logger
}

// NewUpdateRecordCommand constructs the update handler.
func NewUpdateRecordCommand(cfg RecordCommandConfig) *UpdateRecordCommand {
	return &UpdateRecordCommand{
		authz:  cfg.Authorizer,
		rows:   cfg.Rows,
		logger: safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[UpdateRecordInput] = (*UpdateRecordCommand)(nil)

// Execute loads the stored row, authorizes the merged draft and saves it. A
// missing row is only reported after the permission gate passes.
func (c *UpdateRecordCommand) Execute(ctx context.Context, input UpdateRecordInput) error {
	if c.authz == nil {
		return ErrMissingAuthorizer
	}
	if c.rows == nil {
		return types.ErrMissingRowRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	existing, err := c.rows.Lookup(ctx, input.Resource, input.ID)
	if err != nil {
		if !errors.Is(err, types.ErrRecordNotFound) {
			return err
		}
		if _, gateErr := c.authz.Authorize(ctx, authorizer.Request{
			Actor:     input.Actor,
			Operation: types.OperationWrite,
			Resource:  input.Resource,
		}); gateErr != nil {
			return gateErr
		}
		return authorizer.RecordNotFoundError(input.Resource)
	}

	draft := mergeRecord(*existing, input.Patch)
	mutation, err := c.authz.PrepareUpdate(ctx, input.Actor, input.Resource, *existing, draft)
	if err != nil {
		return err
	}

	saved, err := c.rows.SaveRow(ctx, mutation.Record)
	if err != nil {
		return err
	}
	c.logger.Debug("record updated", "resource", input.Resource, "id", saved.ID)
	if input.Result != nil {
		*input.Result = *saved
	}
	return nil
}
