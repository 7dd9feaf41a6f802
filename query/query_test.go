package query

import (
	"context"
	"testing"

	"github.com/goliatone/go-campus-authz/activity"
	"github.com/goliatone/go-campus-authz/authorizer"
	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-campus-authz/records"
	"github.com/goliatone/go-campus-authz/resolver"
	"github.com/goliatone/go-campus-authz/scope"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *records.MemoryStore
	sink      *activity.MemorySink
	authz     *authorizer.Authorizer
	facultyA  uuid.UUID
	facultyB  uuid.UUID
	buildingA uuid.UUID
	buildingB uuid.UUID
	roomsA    []uuid.UUID
	roomB     uuid.UUID

	admin     types.ActorRef
	secretary types.ActorRef
	orphan    types.ActorRef
	student   types.ActorRef
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     records.NewMemoryStore(),
		sink:      activity.NewMemorySink(nil, nil),
		facultyA:  uuid.New(),
		facultyB:  uuid.New(),
		buildingA: uuid.New(),
		buildingB: uuid.New(),
		roomB:     uuid.New(),
		admin:     types.ActorRef{ID: uuid.New(), Role: "admin"},
		secretary: types.ActorRef{ID: uuid.New(), Role: "secretary"},
		orphan:    types.ActorRef{ID: uuid.New(), Role: "secretary"},
		student:   types.ActorRef{ID: uuid.New(), Role: "student"},
	}
	seed := []types.Record{
		{Type: types.ResourceFaculty, ID: f.facultyA},
		{Type: types.ResourceFaculty, ID: f.facultyB},
		{Type: types.ResourceBuilding, ID: f.buildingA, Refs: map[string]uuid.UUID{types.RefFaculty: f.facultyA}},
		{Type: types.ResourceBuilding, ID: f.buildingB, Refs: map[string]uuid.UUID{types.RefFaculty: f.facultyB}},
		{
			Type: types.ResourceSecretary,
			ID:   uuid.New(),
			Refs: map[string]uuid.UUID{types.RefUser: f.secretary.ID, types.RefFaculty: f.facultyA},
		},
	}
	for i := 0; i < 3; i++ {
		id := uuid.New()
		f.roomsA = append(f.roomsA, id)
		seed = append(seed, types.Record{Type: types.ResourceRoom, ID: id, Refs: map[string]uuid.UUID{types.RefBuilding: f.buildingA}})
	}
	seed = append(seed, types.Record{Type: types.ResourceRoom, ID: f.roomB, Refs: map[string]uuid.UUID{types.RefBuilding: f.buildingB}})
	require.NoError(t, f.store.Seed(seed...))

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

func (f *fixture) config() RecordQueryConfig {
	return RecordQueryConfig{Authorizer: f.authz, Rows: f.store}
}

func TestRecordListQuery_ScopesAndPages(t *testing.T) {
	f := newFixture(t)
	q := NewRecordListQuery(f.config())

	page, err := q.Query(context.Background(), RecordListInput{
		Actor:      f.secretary,
		Resource:   types.ResourceRoom,
		Pagination: types.Pagination{Limit: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Records, 2)
	require.True(t, page.HasMore)
	require.Equal(t, 2, page.NextOffset)
	require.Equal(t, f.roomsA[0], page.Records[0].ID)

	rest, err := q.Query(context.Background(), RecordListInput{
		Actor:      f.secretary,
		Resource:   types.ResourceRoom,
		Pagination: types.Pagination{Limit: 2, Offset: 2},
	})
	require.NoError(t, err)
	require.Len(t, rest.Records, 1)
	require.False(t, rest.HasMore)
}

func TestRecordListQuery_RefFilterAndUniversalRole(t *testing.T) {
	f := newFixture(t)
	q := NewRecordListQuery(f.config())

	page, err := q.Query(context.Background(), RecordListInput{
		Actor:    f.admin,
		Resource: types.ResourceBuilding,
		Refs:     map[string]uuid.UUID{types.RefFaculty: f.facultyB},
	})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, f.buildingB, page.Records[0].ID)
}

func TestRecordListQuery_DeniedAndIncomplete(t *testing.T) {
	f := newFixture(t)
	q := NewRecordListQuery(f.config())

	_, err := q.Query(context.Background(), RecordListInput{Actor: f.student, Resource: types.ResourceRoom})
	require.ErrorIs(t, err, types.ErrAuthorizationDenied)

	page, err := q.Query(context.Background(), RecordListInput{Actor: f.orphan, Resource: types.ResourceRoom})
	require.NoError(t, err)
	require.True(t, page.Incomplete)
	require.Empty(t, page.Records)
	require.Zero(t, page.Total)

	_, err = q.Query(context.Background(), RecordListInput{Actor: f.admin})
	require.Error(t, err)
}

func TestRecordDetailQuery_HidesRowsOutsideScope(t *testing.T) {
	f := newFixture(t)
	q := NewRecordDetailQuery(f.config())
	ctx := context.Background()

	row, err := q.Query(ctx, RecordDetailInput{Actor: f.secretary, Resource: types.ResourceRoom, ID: f.roomsA[1]})
	require.NoError(t, err)
	require.Equal(t, f.roomsA[1], row.ID)

	_, err = q.Query(ctx, RecordDetailInput{Actor: f.secretary, Resource: types.ResourceRoom, ID: f.roomB})
	require.ErrorIs(t, err, types.ErrRecordNotFound)

	_, err = q.Query(ctx, RecordDetailInput{Actor: f.secretary, Resource: types.ResourceRoom, ID: uuid.New()})
	require.ErrorIs(t, err, types.ErrRecordNotFound)

	_, err = q.Query(ctx, RecordDetailInput{Actor: f.student, Resource: types.ResourceRoom, ID: f.roomB})
	require.ErrorIs(t, err, types.ErrAuthorizationDenied)
}

func TestDecisionLog_AdminSeesEveryDecision(t *testing.T) {
	f := newFixture(t)
	list := NewRecordListQuery(f.config())
	ctx := context.Background()

	_, err := list.Query(ctx, RecordListInput{Actor: f.secretary, Resource: types.ResourceRoom})
	require.NoError(t, err)
	_, err = list.Query(ctx, RecordListInput{Actor: f.student, Resource: types.ResourceRoom})
	require.Error(t, err)

	log := NewDecisionLog(f.sink)
	page, err := log.Query(ctx, types.DecisionFilter{Actor: f.admin})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)

	own, err := log.Query(ctx, types.DecisionFilter{Actor: f.student})
	require.NoError(t, err)
	require.Equal(t, 1, own.Total)
	require.Equal(t, types.DecisionDenied, own.Records[0].State)
	require.Equal(t, []types.RoleTag{types.RoleSecretary, types.RoleExamOfficer}, own.Records[0].RequiredRoles)

	_, err = log.Query(ctx, types.DecisionFilter{})
	require.ErrorIs(t, err, types.ErrActorRequired)

	_, err = NewDecisionLog(nil).Query(ctx, types.DecisionFilter{Actor: f.admin})
	require.ErrorIs(t, err, types.ErrMissingDecisionRepository)
}
