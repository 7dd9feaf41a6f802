package command

import (
	"context"

	"github.com/goliatone/go-campus-authz/authorizer"
	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-campus-authz/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// CreateRecordInput carries a draft row. Refs stamped by the authorizer win
// over the client values.
type CreateRecordInput struct {
	Actor    types.ActorRef
	Resource types.ResourceType
	Draft    types.Record
	Result   *types.Record
}

// Type implements gocommand.Message.
func (CreateRecordInput) Type() string {
	return "command.record.create"
}

// Validate implements gocommand.Message.
func (input CreateRecordInput) Validate() error {
	return validateTarget(input.Actor, input.Resource)
}

// RecordCommandConfig wires dependencies shared by the record commands.
type RecordCommandConfig struct {
	Authorizer authorizer.RequestAuthorizer
	Rows       types.RowRepository
	// Catalog supplies the unique ref tuples checked on create. Defaults to
	// scope.DefaultCatalog.
	Catalog    *scope.Catalog
	Hooks      types.Hooks
	Clock      types.Clock
	Logger     types.Logger
}

// CreateRecordCommand persists a new row after stamping, the unit check and
// the duplicate check.
type CreateRecordCommand struct {
	authz   authorizer.RequestAuthorizer
	rows    types.RowRepository
	catalog *scope.Catalog
	logger  types.Logger
}

// NewCreateRecordCommand constructs the create handler.
func NewCreateRecordCommand(cfg RecordCommandConfig) *CreateRecordCommand {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = scope.DefaultCatalog()
	}
	return &CreateRecordCommand{
		authz:   cfg.Authorizer,
		rows:    cfg.Rows,
		catalog: catalog,
		logger:  safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[CreateRecordInput] = (*CreateRecordCommand)(nil)

// Execute authorizes the draft and saves the stamped row.
func (c *CreateRecordCommand) Execute(ctx context.Context, input CreateRecordInput) error {
	if c.authz == nil {
		return ErrMissingAuthorizer
	}
	if c.rows == nil {
		return types.ErrMissingRowRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	draft := input.Draft.Clone()
	draft.Type = input.Resource
	mutation, err := c.authz.PrepareCreate(ctx, input.Actor, input.Resource, draft)
	if err != nil {
		return err
	}

	if err := c.rejectDuplicate(ctx, mutation.Record); err != nil {
		return err
	}

	saved, err := c.rows.SaveRow(ctx, mutation.Record)
	if err != nil {
		return err
	}
	c.logger.Debug("record created",
		"resource", input.Resource,
		"id", saved.ID,
		"stamped", mutation.Stamped,
	)
	if input.Result != nil {
		*input.Result = *saved
	}
	return nil
}

// rejectDuplicate runs after stamping so the owner refs are the trusted ones.
// Tuples with a null member are not checked.
func (c *CreateRecordCommand) rejectDuplicate(ctx context.Context, record types.Record) error {
	for _, refs := range c.catalog.UniqueRefs(record.Type) {
		filter, ok := uniqueFilter(record, refs)
		if !ok {
			continue
		}
		existing, err := c.rows.FetchRows(ctx, record.Type, types.RowFilter{
			Refs:       filter,
			Pagination: types.Pagination{Limit: 1},
		})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return authorizer.DuplicateRecordError(record.Type, refs)
		}
	}
	return nil
}

func uniqueFilter(record types.Record, refs []string) (map[string]uuid.UUID, bool) {
	filter := make(map[string]uuid.UUID, len(refs))
	for _, ref := range refs {
		id := record.Ref(ref)
		if id == uuid.Nil {
			return nil, false
		}
		filter[ref] = id
	}
	return filter, true
}
