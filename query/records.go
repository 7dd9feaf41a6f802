package query

import (
	"context"
	"errors"

	"github.com/goliatone/go-campus-authz/authorizer"
	"github.com/goliatone/go-campus-authz/pkg/types"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

var (
	errResourceRequired  = errors.New("go-campus-authz: resource type required")
	errRecordIDRequired  = errors.New("go-campus-authz: record id required")
	errMissingAuthorizer = errors.New("go-campus-authz: missing request authorizer")
)

// RecordListInput lists rows of one resource. Refs narrows candidates before
// scoping; pagination applies to the scoped result.
type RecordListInput struct {
	Actor      types.ActorRef
	Resource   types.ResourceType
	Refs       map[string]uuid.UUID
	Pagination types.Pagination
}

// Type implements gocommand.Message.
func (RecordListInput) Type() string {
	return "query.record.list"
}

// Validate implements gocommand.Message.
func (input RecordListInput) Validate() error {
	switch {
	case input.Actor.ID == uuid.Nil:
		return types.ErrActorRequired
	case input.Resource == "":
		return errResourceRequired
	default:
		return nil
	}
}

// RecordPage is a scoped listing. Incomplete marks an empty page caused by a
// profile fault.
type RecordPage struct {
	Records    []types.Record
	Total      int
	NextOffset int
	HasMore    bool
	Incomplete bool
}

// RecordQueryConfig wires the record queries.
type RecordQueryConfig struct {
	Authorizer authorizer.RequestAuthorizer
	Rows       types.RowRepository
}

// RecordListQuery returns the rows an actor may read.
type RecordListQuery struct {
	authz authorizer.RequestAuthorizer
	rows  types.RowRepository
}

// NewRecordListQuery constructs the list query.
func NewRecordListQuery(cfg RecordQueryConfig) *RecordListQuery {
	return &RecordListQuery{
		authz: cfg.Authorizer,
		rows:  cfg.Rows,
	}
}

var _ gocommand.Querier[RecordListInput, RecordPage] = (*RecordListQuery)(nil)

// Query fetches candidates, scopes them and pages the visible rows.
func (q *RecordListQuery) Query(ctx context.Context, input RecordListInput) (RecordPage, error) {
	if q.authz == nil {
		return RecordPage{}, errMissingAuthorizer
	}
	if q.rows == nil {
		return RecordPage{}, types.ErrMissingRowRepository
	}
	if err := input.Validate(); err != nil {
		return RecordPage{}, err
	}

	candidates, err := q.rows.FetchRows(ctx, input.Resource, types.RowFilter{Refs: input.Refs})
	if err != nil {
		return RecordPage{}, err
	}
	view, err := q.authz.Authorize(ctx, authorizer.Request{
		Actor:     input.Actor,
		Operation: types.OperationRead,
		Resource:  input.Resource,
		Rows:      candidates,
	})
	if err != nil {
		return RecordPage{}, err
	}
	return paginate(view.Rows, input.Pagination, view.Incomplete), nil
}

// RecordDetailInput loads a single row.
type RecordDetailInput struct {
	Actor    types.ActorRef
	Resource types.ResourceType
	ID       uuid.UUID
}

// Type implements gocommand.Message.
func (RecordDetailInput) Type() string {
	return "query.record.detail"
}

// Validate implements gocommand.Message.
func (input RecordDetailInput) Validate() error {
	switch {
	case input.Actor.ID == uuid.Nil:
		return types.ErrActorRequired
	case input.Resource == "":
		return errResourceRequired
	case input.ID == uuid.Nil:
		return errRecordIDRequired
	default:
		return nil
	}
}

// RecordDetailQuery loads a row the actor may read. Rows outside the actor's
// scope are reported exactly like missing rows.
type RecordDetailQuery struct {
	authz authorizer.RequestAuthorizer
	rows  types.RowRepository
}

// NewRecordDetailQuery constructs the detail query.
func NewRecordDetailQuery(cfg RecordQueryConfig) *RecordDetailQuery {
	return &RecordDetailQuery{
		authz: cfg.Authorizer,
		rows:  cfg.Rows,
	}
}

var _ gocommand.Querier[RecordDetailInput, *types.Record] = (*RecordDetailQuery)(nil)

// Query returns the row or a RECORD_NOT_FOUND error.
func (q *RecordDetailQuery) Query(ctx context.Context, input RecordDetailInput) (*types.Record, error) {
	if q.authz == nil {
		return nil, errMissingAuthorizer
	}
	if q.rows == nil {
		return nil, types.ErrMissingRowRepository
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var candidates []types.Record
	row, err := q.rows.Lookup(ctx, input.Resource, input.ID)
	switch {
	case err == nil:
		candidates = append(candidates, *row)
	case !errors.Is(err, types.ErrRecordNotFound):
		return nil, err
	}

	view, err := q.authz.Authorize(ctx, authorizer.Request{
		Actor:     input.Actor,
		Operation: types.OperationRead,
		Resource:  input.Resource,
		Rows:      candidates,
	})
	if err != nil {
		return nil, err
	}
	if len(view.Rows) == 0 {
		return nil, authorizer.RecordNotFoundError(input.Resource)
	}
	out := view.Rows[0].Clone()
	return &out, nil
}

func paginate(rows []types.Record, p types.Pagination, incomplete bool) RecordPage {
	total := len(rows)
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if p.Limit > 0 && offset+p.Limit < total {
		end = offset + p.Limit
	}
	page := RecordPage{
		Records:    rows[offset:end],
		Total:      total,
		NextOffset: end,
		HasMore:    end < total,
		Incomplete: incomplete,
	}
	if page.Records == nil {
		page.Records = []types.Record{}
	}
	return page
}
