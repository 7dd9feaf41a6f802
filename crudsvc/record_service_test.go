package crudsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-campus-authz/activity"
	"github.com/goliatone/go-campus-authz/authorizer"
	"github.com/goliatone/go-campus-authz/command"
	"github.com/goliatone/go-campus-authz/crudguard"
	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-campus-authz/query"
	"github.com/goliatone/go-campus-authz/records"
	"github.com/goliatone/go-campus-authz/resolver"
	"github.com/goliatone/go-campus-authz/scope"
	"github.com/goliatone/go-crud"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	store     *records.MemoryStore
	sink      *activity.MemorySink
	authz     *authorizer.Authorizer
	facultyA  uuid.UUID
	facultyB  uuid.UUID
	buildingA uuid.UUID
	buildingB uuid.UUID
	secretary types.ActorRef
	admin     types.ActorRef
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		store:     records.NewMemoryStore(),
		sink:      activity.NewMemorySink(nil, nil),
		facultyA:  uuid.New(),
		facultyB:  uuid.New(),
		buildingA: uuid.New(),
		buildingB: uuid.New(),
		secretary: types.ActorRef{ID: uuid.New(), Role: "secretary"},
		admin:     types.ActorRef{ID: uuid.New(), Role: "admin"},
	}
	require.NoError(t, f.store.Seed(
		types.Record{Type: types.ResourceFaculty, ID: f.facultyA},
		types.Record{Type: types.ResourceFaculty, ID: f.facultyB},
		types.Record{
			Type:  types.ResourceBuilding,
			ID:    f.buildingA,
			Refs:  map[string]uuid.UUID{types.RefFaculty: f.facultyA},
			Attrs: map[string]any{"name": "North"},
		},
		types.Record{
			Type:  types.ResourceBuilding,
			ID:    f.buildingB,
			Refs:  map[string]uuid.UUID{types.RefFaculty: f.facultyB},
			Attrs: map[string]any{"name": "South"},
		},
		types.Record{
			Type: types.ResourceSecretary,
			ID:   uuid.New(),
			Refs: map[string]uuid.UUID{types.RefUser: f.secretary.ID, types.RefFaculty: f.facultyA},
		},
	))
	res, err := resolver.New(resolver.Config{Profiles: f.store, Relations: f.store})
	require.NoError(t, err)
	f.authz, err = authorizer.New(authorizer.Config{
		Resolver: res,
		Filter:   scope.NewFilter(scope.FilterConfig{Source: f.store}),
		Sink:     f.sink,
	})
	require.NoError(t, err)
	return f
}

func (f *serviceFixture) service(guard GuardAdapter) *RecordService {
	cmdCfg := command.RecordCommandConfig{Authorizer: f.authz, Rows: f.store}
	queryCfg := query.RecordQueryConfig{Authorizer: f.authz, Rows: f.store}
	return NewRecordService(RecordServiceConfig{
		Resource: types.ResourceBuilding,
		Refs:     []string{types.RefFaculty},
		Guard:    guard,
		Create:   command.NewCreateRecordCommand(cmdCfg),
		Update:   command.NewUpdateRecordCommand(cmdCfg),
		Delete:   command.NewDeleteRecordsCommand(cmdCfg),
		List:     query.NewRecordListQuery(queryCfg),
		Detail:   query.NewRecordDetailQuery(queryCfg),
	}, WithDefaultPageSize(10))
}

func guardFor(actor types.ActorRef) *stubGuardAdapter {
	return &stubGuardAdapter{result: crudguard.GuardResult{Actor: actor, Role: actor.RoleName()}}
}

func TestRecordServiceIndexScopesToActorFaculty(t *testing.T) {
	f := newServiceFixture(t)
	guard := guardFor(f.secretary)
	svc := f.service(guard)

	ctx := newTestCrudContext(context.Background())
	payloads, total, err := svc.Index(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, payloads, 1)
	require.Equal(t, f.buildingA, payloads[0].ID)
	require.Equal(t, crud.OpList, guard.lastInput.Operation)
	require.Equal(t, types.ResourceBuilding, guard.lastInput.Resource)
}

func TestRecordServiceIndexRefFilter(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.service(guardFor(f.admin))

	ctx := newTestCrudContext(context.Background())
	ctx.queries["faculty_id"] = f.facultyB.String()
	payloads, total, err := svc.Index(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, f.buildingB, payloads[0].ID)

	ctx.queries["faculty_id"] = "not-a-uuid"
	_, total, err = svc.Index(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 2, total)
}

func TestRecordServiceCreateStampsFaculty(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.service(guardFor(f.secretary))
	ctx := newTestCrudContext(context.Background())

	created, err := svc.Create(ctx, &RecordPayload{
		Refs:  map[string]uuid.UUID{types.RefFaculty: f.facultyB},
		Attrs: map[string]any{"name": "Annex"},
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.Equal(t, f.facultyA, created.Refs[types.RefFaculty])
	require.Equal(t, 3, f.store.Len(types.ResourceBuilding))
}

func TestRecordServiceShowHidesForeignRows(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.service(guardFor(f.secretary))
	ctx := newTestCrudContext(context.Background())

	row, err := svc.Show(ctx, f.buildingA.String(), nil)
	require.NoError(t, err)
	require.Equal(t, "North", row.Attrs["name"])

	_, err = svc.Show(ctx, f.buildingB.String(), nil)
	require.ErrorIs(t, err, types.ErrRecordNotFound)

	_, err = svc.Show(ctx, "garbage", nil)
	require.Error(t, err)
}

func TestRecordServiceUpdateAndDeleteBatch(t *testing.T) {
	f := newServiceFixture(t)
	svc := f.service(guardFor(f.secretary))
	ctx := newTestCrudContext(context.Background())

	updated, err := svc.Update(ctx, &RecordPayload{ID: f.buildingA, Attrs: map[string]any{"name": "North Hall"}})
	require.NoError(t, err)
	require.Equal(t, "North Hall", updated.Attrs["name"])

	err = svc.DeleteBatch(ctx, []*RecordPayload{{ID: f.buildingA}, {ID: f.buildingB}})
	require.ErrorIs(t, err, types.ErrRecordNotFound)
	require.Equal(t, 2, f.store.Len(types.ResourceBuilding))

	require.NoError(t, svc.Delete(ctx, &RecordPayload{ID: f.buildingA}))
	require.Equal(t, 1, f.store.Len(types.ResourceBuilding))
}

func TestRecordServiceGuardErrorShortCircuits(t *testing.T) {
	f := newServiceFixture(t)
	denied := errors.New("denied")
	svc := f.service(&stubGuardAdapter{err: denied})
	ctx := newTestCrudContext(context.Background())

	_, err := svc.Create(ctx, &RecordPayload{Attrs: map[string]any{"name": "Ghost"}})
	require.ErrorIs(t, err, denied)
	require.Equal(t, 2, f.store.Len(types.ResourceBuilding))
	require.Zero(t, f.sink.Len())
}

func TestRecordServiceDisabledOperations(t *testing.T) {
	svc := NewRecordService(RecordServiceConfig{Resource: types.ResourceBuilding})
	ctx := newTestCrudContext(context.Background())

	_, err := svc.Create(ctx, &RecordPayload{})
	require.Error(t, err)
	_, _, err = svc.Index(ctx, nil)
	require.Error(t, err)
	require.Error(t, svc.DeleteBatch(ctx, nil))
}

func TestDecisionServiceListsOwnDecisions(t *testing.T) {
	f := newServiceFixture(t)
	rooms := f.service(guardFor(f.secretary))
	ctx := newTestCrudContext(context.Background())
	_, _, err := rooms.Index(ctx, nil)
	require.NoError(t, err)

	adminGuard := guardFor(f.admin)
	adminRecords := f.service(adminGuard)
	_, _, err = adminRecords.Index(ctx, nil)
	require.NoError(t, err)

	log := query.NewDecisionLog(f.sink)
	secretaryGuard := guardFor(f.secretary)
	svc := NewDecisionService(DecisionServiceConfig{Guard: secretaryGuard, Log: log})
	ctx.queries["actor_id"] = f.admin.ID.String()
	decisions, total, err := svc.Index(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, f.secretary.ID, decisions[0].ActorID)
	require.NotNil(t, secretaryGuard.lastInput.Bypass)

	svc = NewDecisionService(DecisionServiceConfig{Guard: adminGuard, Log: log})
	delete(ctx.queries, "actor_id")
	ctx.queries["state"] = "scoped"
	_, total, err = svc.Index(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 2, total)

	_, err = svc.Create(ctx, &types.DecisionRecord{})
	require.Error(t, err)
}

func TestParseDecisionStates(t *testing.T) {
	ctx := newTestCrudContext(context.Background())
	require.Nil(t, parseDecisionStates(ctx, "state"))

	ctx.queries["state"] = "Scoped, denied"
	require.Equal(t, []types.DecisionState{types.DecisionScoped, types.DecisionDenied}, parseDecisionStates(ctx, "state"))

	ctx.values["state"] = []string{"denied", "scoped,"}
	require.Equal(t, []types.DecisionState{types.DecisionDenied, types.DecisionScoped}, parseDecisionStates(ctx, "state"))
}

// ----- test stubs -----

type stubGuardAdapter struct {
	result    crudguard.GuardResult
	err       error
	lastInput crudguard.GuardInput
}

func (s *stubGuardAdapter) Enforce(in crudguard.GuardInput) (crudguard.GuardResult, error) {
	s.lastInput = in
	if s.err != nil {
		return crudguard.GuardResult{}, s.err
	}
	return s.result, nil
}

type testCrudContext struct {
	ctx     context.Context
	queries map[string]string
	values  map[string][]string
}

func newTestCrudContext(ctx context.Context) *testCrudContext {
	return &testCrudContext{
		ctx:     ctx,
		queries: map[string]string{},
		values:  map[string][]string{},
	}
}

func (t *testCrudContext) UserContext() context.Context {
	return t.ctx
}

func (t *testCrudContext) Params(string, ...string) string {
	return ""
}

func (t *testCrudContext) BodyParser(any) error {
	return nil
}

func (t *testCrudContext) Query(key string, defaultValue ...string) string {
	if v, ok := t.queries[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (t *testCrudContext) QueryValues(key string) []string {
	if v, ok := t.values[key]; ok {
		return v
	}
	if v, ok := t.queries[key]; ok {
		return []string{v}
	}
	return nil
}

func (t *testCrudContext) QueryInt(string, ...int) int {
	return 0
}

func (t *testCrudContext) Queries() map[string]string {
	return t.queries
}

func (t *testCrudContext) Body() []byte {
	return nil
}

func (t *testCrudContext) Status(int) crud.Response {
	return t
}

func (t *testCrudContext) JSON(any, ...string) error {
	return nil
}

func (t *testCrudContext) SendStatus(int) error {
	return nil
}
