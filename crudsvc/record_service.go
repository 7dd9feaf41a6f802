package crudsvc

import (
	"maps"

	"github.com/goliatone/go-campus-authz/command"
	"github.com/goliatone/go-campus-authz/crudguard"
	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-campus-authz/query"
	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crud"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// RecordPayload is the JSON shape exchanged with go-crud controllers.
type RecordPayload struct {
	ID    uuid.UUID            `json:"id"`
	Refs  map[string]uuid.UUID `json:"refs,omitempty"`
	Attrs map[string]any       `json:"attrs,omitempty"`
}

// RecordServiceConfig wires one resource's controller service.
type RecordServiceConfig struct {
	Resource types.ResourceType
	// Refs lists the ref names accepted as "<ref>_id" query filters on Index.
	Refs   []string
	Guard  GuardAdapter
	Create gocommand.Commander[command.CreateRecordInput]
	Update gocommand.Commander[command.UpdateRecordInput]
	Delete gocommand.Commander[command.DeleteRecordsInput]
	List   gocommand.Querier[query.RecordListInput, query.RecordPage]
	Detail gocommand.Querier[query.RecordDetailInput, *types.Record]
}

// RecordService adapts the record commands and queries to the go-crud service
// contract. The guard runs the matrix pre-check; the handlers apply row scope.
type RecordService struct {
	resource    types.ResourceType
	refs        []string
	guard       GuardAdapter
	create      gocommand.Commander[command.CreateRecordInput]
	update      gocommand.Commander[command.UpdateRecordInput]
	remove      gocommand.Commander[command.DeleteRecordsInput]
	list        gocommand.Querier[query.RecordListInput, query.RecordPage]
	detail      gocommand.Querier[query.RecordDetailInput, *types.Record]
	logger      types.Logger
	defaultPage int
}

// NewRecordService constructs the adapter.
func NewRecordService(cfg RecordServiceConfig, opts ...ServiceOption) *RecordService {
	options := applyOptions(opts)
	return &RecordService{
		resource:    cfg.Resource,
		refs:        append([]string(nil), cfg.Refs...),
		guard:       cfg.Guard,
		create:      cfg.Create,
		update:      cfg.Update,
		remove:      cfg.Delete,
		list:        cfg.List,
		detail:      cfg.Detail,
		logger:      options.logger,
		defaultPage: options.defaultPage,
	}
}

// Resource returns the resource served by this adapter.
func (s *RecordService) Resource() types.ResourceType {
	return s.resource
}

func (s *RecordService) Create(ctx crud.Context, record *RecordPayload) (*RecordPayload, error) {
	if s.create == nil {
		return nil, notSupported(crud.OpCreate)
	}
	res, err := s.enforce(ctx, crud.OpCreate)
	if err != nil {
		return nil, err
	}
	return s.createOne(ctx, res.Actor, record)
}

func (s *RecordService) CreateBatch(ctx crud.Context, records []*RecordPayload) ([]*RecordPayload, error) {
	if s.create == nil {
		return nil, notSupported(crud.OpCreateBatch)
	}
	res, err := s.enforce(ctx, crud.OpCreateBatch)
	if err != nil {
		return nil, err
	}
	out := make([]*RecordPayload, 0, len(records))
	for _, record := range records {
		created, err := s.createOne(ctx, res.Actor, record)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

func (s *RecordService) Update(ctx crud.Context, record *RecordPayload) (*RecordPayload, error) {
	if s.update == nil {
		return nil, notSupported(crud.OpUpdate)
	}
	res, err := s.enforce(ctx, crud.OpUpdate)
	if err != nil {
		return nil, err
	}
	return s.updateOne(ctx, res.Actor, record)
}

func (s *RecordService) UpdateBatch(ctx crud.Context, records []*RecordPayload) ([]*RecordPayload, error) {
	if s.update == nil {
		return nil, notSupported(crud.OpUpdateBatch)
	}
	res, err := s.enforce(ctx, crud.OpUpdateBatch)
	if err != nil {
		return nil, err
	}
	out := make([]*RecordPayload, 0, len(records))
	for _, record := range records {
		updated, err := s.updateOne(ctx, res.Actor, record)
		if err != nil {
			return nil, err
		}
		out = append(out, updated)
	}
	return out, nil
}

func (s *RecordService) Delete(ctx crud.Context, record *RecordPayload) error {
	if s.remove == nil {
		return notSupported(crud.OpDelete)
	}
	res, err := s.enforce(ctx, crud.OpDelete)
	if err != nil {
		return err
	}
	if record == nil {
		return command.ErrRecordIDRequired
	}
	return s.remove.Execute(ctx.UserContext(), command.DeleteRecordsInput{
		Actor:    res.Actor,
		Resource: s.resource,
		IDs:      []uuid.UUID{record.ID},
	})
}

// DeleteBatch removes every row or none of them.
func (s *RecordService) DeleteBatch(ctx crud.Context, records []*RecordPayload) error {
	if s.remove == nil {
		return notSupported(crud.OpDeleteBatch)
	}
	res, err := s.enforce(ctx, crud.OpDeleteBatch)
	if err != nil {
		return err
	}
	ids := make([]uuid.UUID, 0, len(records))
	for _, record := range records {
		if record != nil {
			ids = append(ids, record.ID)
		}
	}
	return s.remove.Execute(ctx.UserContext(), command.DeleteRecordsInput{
		Actor:    res.Actor,
		Resource: s.resource,
		IDs:      ids,
	})
}

func (s *RecordService) Index(ctx crud.Context, _ []repository.SelectCriteria) ([]*RecordPayload, int, error) {
	if s.list == nil {
		return nil, 0, notSupported(crud.OpList)
	}
	res, err := s.enforce(ctx, crud.OpList)
	if err != nil {
		return nil, 0, err
	}
	page, err := s.list.Query(ctx.UserContext(), query.RecordListInput{
		Actor:    res.Actor,
		Resource: s.resource,
		Refs:     queryRefs(ctx, s.refs),
		Pagination: types.Pagination{
			Limit:  queryInt(ctx, "limit", s.defaultPage),
			Offset: queryInt(ctx, "offset", 0),
		},
	})
	if err != nil {
		return nil, 0, err
	}
	if page.Incomplete {
		s.logger.Info("record index empty: incomplete profile",
			"actor_id", res.Actor.ID,
			"resource", s.resource,
		)
	}
	out := make([]*RecordPayload, 0, len(page.Records))
	for _, record := range page.Records {
		out = append(out, toPayload(record))
	}
	return out, page.Total, nil
}

func (s *RecordService) Show(ctx crud.Context, id string, _ []repository.SelectCriteria) (*RecordPayload, error) {
	if s.detail == nil {
		return nil, notSupported(crud.OpRead)
	}
	res, err := s.enforce(ctx, crud.OpRead)
	if err != nil {
		return nil, err
	}
	recordID, err := parseRecordID(id)
	if err != nil {
		return nil, err
	}
	record, err := s.detail.Query(ctx.UserContext(), query.RecordDetailInput{
		Actor:    res.Actor,
		Resource: s.resource,
		ID:       recordID,
	})
	if err != nil {
		return nil, err
	}
	return toPayload(*record), nil
}

func (s *RecordService) enforce(ctx crud.Context, op crud.CrudOperation) (crudguard.GuardResult, error) {
	if s.guard == nil {
		return crudguard.GuardResult{}, missingDependency("guard adapter")
	}
	return s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: op,
		Resource:  s.resource,
	})
}

func (s *RecordService) createOne(ctx crud.Context, actor types.ActorRef, payload *RecordPayload) (*RecordPayload, error) {
	if payload == nil {
		payload = &RecordPayload{}
	}
	result := &types.Record{}
	if err := s.create.Execute(ctx.UserContext(), command.CreateRecordInput{
		Actor:    actor,
		Resource: s.resource,
		Draft:    s.toRecord(payload),
		Result:   result,
	}); err != nil {
		return nil, err
	}
	return toPayload(*result), nil
}

func (s *RecordService) updateOne(ctx crud.Context, actor types.ActorRef, payload *RecordPayload) (*RecordPayload, error) {
	if payload == nil {
		return nil, command.ErrRecordIDRequired
	}
	result := &types.Record{}
	if err := s.update.Execute(ctx.UserContext(), command.UpdateRecordInput{
		Actor:    actor,
		Resource: s.resource,
		ID:       payload.ID,
		Patch:    s.toRecord(payload),
		Result:   result,
	}); err != nil {
		return nil, err
	}
	return toPayload(*result), nil
}

func (s *RecordService) toRecord(payload *RecordPayload) types.Record {
	return types.Record{
		Type:  s.resource,
		ID:    payload.ID,
		Refs:  maps.Clone(payload.Refs),
		Attrs: maps.Clone(payload.Attrs),
	}
}

func toPayload(record types.Record) *RecordPayload {
	return &RecordPayload{
		ID:    record.ID,
		Refs:  maps.Clone(record.Refs),
		Attrs: maps.Clone(record.Attrs),
	}
}
