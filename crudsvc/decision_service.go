package crudsvc

import (
	"github.com/goliatone/go-campus-authz/crudguard"
	"github.com/goliatone/go-campus-authz/pkg/types"
	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crud"
	repository "github.com/goliatone/go-repository-bun"
)

// DecisionServiceConfig wires the decision log controller.
type DecisionServiceConfig struct {
	Guard GuardAdapter
	Log   gocommand.Querier[types.DecisionFilter, types.DecisionPage]
}

// DecisionService exposes the decision log as a read-only go-crud service.
// The matrix has no row for the log itself, so the guard only resolves the
// actor and the log's access policy narrows what is returned.
type DecisionService struct {
	guard       GuardAdapter
	log         gocommand.Querier[types.DecisionFilter, types.DecisionPage]
	logger      types.Logger
	defaultPage int
}

// NewDecisionService constructs the adapter.
func NewDecisionService(cfg DecisionServiceConfig, opts ...ServiceOption) *DecisionService {
	options := applyOptions(opts)
	return &DecisionService{
		guard:       cfg.Guard,
		log:         cfg.Log,
		logger:      options.logger,
		defaultPage: options.defaultPage,
	}
}

func (s *DecisionService) Create(crud.Context, *types.DecisionRecord) (*types.DecisionRecord, error) {
	return nil, notSupported(crud.OpCreate)
}

func (s *DecisionService) CreateBatch(crud.Context, []*types.DecisionRecord) ([]*types.DecisionRecord, error) {
	return nil, notSupported(crud.OpCreateBatch)
}

func (s *DecisionService) Update(crud.Context, *types.DecisionRecord) (*types.DecisionRecord, error) {
	return nil, notSupported(crud.OpUpdate)
}

func (s *DecisionService) UpdateBatch(crud.Context, []*types.DecisionRecord) ([]*types.DecisionRecord, error) {
	return nil, notSupported(crud.OpUpdateBatch)
}

func (s *DecisionService) Delete(crud.Context, *types.DecisionRecord) error {
	return notSupported(crud.OpDelete)
}

func (s *DecisionService) DeleteBatch(crud.Context, []*types.DecisionRecord) error {
	return notSupported(crud.OpDeleteBatch)
}

func (s *DecisionService) Index(ctx crud.Context, _ []repository.SelectCriteria) ([]*types.DecisionRecord, int, error) {
	if s.log == nil {
		return nil, 0, missingDependency("decision log query")
	}
	if s.guard == nil {
		return nil, 0, missingDependency("guard adapter")
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpList,
		Bypass: &crudguard.BypassConfig{
			Enabled: true,
			Reason:  "decision log scoped by access policy",
		},
	})
	if err != nil {
		return nil, 0, err
	}
	filter := types.DecisionFilter{
		Actor:    res.Actor,
		ActorID:  queryUUID(ctx, "actor_id"),
		Resource: types.ResourceType(ctx.Query("resource")),
		States:   parseDecisionStates(ctx, "state"),
		Since:    queryTime(ctx, "since"),
		Until:    queryTime(ctx, "until"),
		Pagination: types.Pagination{
			Limit:  queryInt(ctx, "limit", s.defaultPage),
			Offset: queryInt(ctx, "offset", 0),
		},
	}
	page, err := s.log.Query(ctx.UserContext(), filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*types.DecisionRecord, 0, len(page.Records))
	for idx := range page.Records {
		record := page.Records[idx]
		out = append(out, &record)
	}
	return out, page.Total, nil
}

func (s *DecisionService) Show(crud.Context, string, []repository.SelectCriteria) (*types.DecisionRecord, error) {
	return nil, notSupported(crud.OpRead)
}
