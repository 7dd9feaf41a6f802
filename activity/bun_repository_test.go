package activity

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func TestRepository_LogAndList(t *testing.T) {
	ctx := context.Background()
	db := newTestDecisionDB(t)
	applyDecisionDDL(t, db)

	store, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	actor := uuid.New()
	event := types.DecisionEvent{
		ActorID:       actor,
		Role:          types.RoleProfessor,
		Operation:     types.OperationWrite,
		Resource:      types.ResourceBuilding,
		State:         types.DecisionDenied,
		RequiredRoles: []types.RoleTag{types.RoleAdmin, types.RoleSecretary},
		Fault:         "FORBIDDEN",
		Draft: map[string]any{
			"name":     "Block C",
			"password": "hunter22",
		},
	}
	require.NoError(t, store.LogDecision(ctx, event))

	page, err := store.ListDecisions(ctx, types.DecisionFilter{
		ActorID:    actor,
		Pagination: types.Pagination{Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, 1, page.Total)
	require.False(t, page.HasMore)

	record := page.Records[0]
	require.NotEqual(t, uuid.Nil, record.ID)
	require.False(t, record.OccurredAt.IsZero())
	require.Equal(t, types.DecisionDenied, record.State)
	require.Equal(t, []types.RoleTag{types.RoleAdmin, types.RoleSecretary}, record.RequiredRoles)
	require.Equal(t, "Block C", record.Draft["name"])
	require.NotEqual(t, "hunter22", record.Draft["password"])
}

func TestRepository_Filters(t *testing.T) {
	ctx := context.Background()
	db := newTestDecisionDB(t)
	applyDecisionDDL(t, db)

	clock := &stepClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	store, err := NewRepository(RepositoryConfig{DB: db, Clock: clock})
	require.NoError(t, err)

	secretary := uuid.New()
	for _, event := range []types.DecisionEvent{
		{ActorID: secretary, Role: types.RoleSecretary, Operation: types.OperationRead, Resource: types.ResourceRoom, State: types.DecisionScoped, Candidates: 3, Visible: 2},
		{ActorID: secretary, Role: types.RoleSecretary, Operation: types.OperationWrite, Resource: types.ResourceRoom, State: types.DecisionDenied},
		{ActorID: uuid.New(), Role: types.RoleAdmin, Operation: types.OperationRead, Resource: types.ResourceRoom, State: types.DecisionScoped},
		{ActorID: secretary, Role: types.RoleSecretary, Operation: types.OperationRead, Resource: types.ResourceGrade, State: types.DecisionScoped},
	} {
		require.NoError(t, store.LogDecision(ctx, event))
	}

	byActor, err := store.ListDecisions(ctx, types.DecisionFilter{ActorID: secretary})
	require.NoError(t, err)
	require.Equal(t, 3, byActor.Total)
	require.Equal(t, types.ResourceGrade, byActor.Records[0].Resource, "newest first")

	rooms, err := store.ListDecisions(ctx, types.DecisionFilter{
		Resource: types.ResourceRoom,
		States:   []types.DecisionState{types.DecisionDenied},
	})
	require.NoError(t, err)
	require.Len(t, rooms.Records, 1)
	require.Equal(t, types.OperationWrite, rooms.Records[0].Operation)

	since := time.Date(2026, 3, 1, 8, 0, 3, 0, time.UTC)
	recent, err := store.ListDecisions(ctx, types.DecisionFilter{Since: &since})
	require.NoError(t, err)
	require.Equal(t, 2, recent.Total)

	paged, err := store.ListDecisions(ctx, types.DecisionFilter{Pagination: types.Pagination{Limit: 3}})
	require.NoError(t, err)
	require.Len(t, paged.Records, 3)
	require.True(t, paged.HasMore)
	require.Equal(t, 3, paged.NextOffset)
}

func TestRepository_CursorPagination(t *testing.T) {
	ctx := context.Background()
	db := newTestDecisionDB(t)
	applyDecisionDDL(t, db)

	clock := &stepClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	store, err := NewRepository(RepositoryConfig{DB: db, Clock: clock})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.LogDecision(ctx, types.DecisionEvent{
			Role:      types.RoleAdmin,
			Operation: types.OperationRead,
			Resource:  types.ResourceFaculty,
			State:     types.DecisionScoped,
			Visible:   i,
		}))
	}

	first, err := store.ListDecisions(ctx, types.DecisionFilter{Pagination: types.Pagination{Limit: 2}})
	require.NoError(t, err)
	require.Equal(t, []int{4, 3}, visibleCounts(first.Records))

	last := first.Records[len(first.Records)-1]
	next, err := store.ListDecisions(ctx, types.DecisionFilter{
		Cursor:     &types.DecisionCursor{OccurredAt: last.OccurredAt, ID: last.ID},
		Pagination: types.Pagination{Limit: 2},
	})
	require.NoError(t, err)
	require.Equal(t, []int{2, 1}, visibleCounts(next.Records))
	require.True(t, next.HasMore)
}

func TestRepository_Stats(t *testing.T) {
	ctx := context.Background()
	db := newTestDecisionDB(t)
	applyDecisionDDL(t, db)
	store, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.LogDecision(ctx, types.DecisionEvent{
			Role:      types.RoleStudent,
			Operation: types.OperationRead,
			Resource:  types.ResourceGrade,
			State:     types.DecisionScoped,
		}))
	}
	require.NoError(t, store.LogDecision(ctx, types.DecisionEvent{
		Role:      types.RoleStudent,
		Operation: types.OperationDelete,
		Resource:  types.ResourceGrade,
		State:     types.DecisionDenied,
	}))

	stats, err := store.DecisionStats(ctx, types.DecisionFilter{})
	require.NoError(t, err)
	require.Equal(t, 3, stats[types.DecisionScoped])
	require.Equal(t, 1, stats[types.DecisionDenied])
}

func TestRepository_RequiresStorage(t *testing.T) {
	_, err := NewRepository(RepositoryConfig{})
	require.Error(t, err)
}

func visibleCounts(records []types.DecisionRecord) []int {
	out := make([]int, 0, len(records))
	for _, record := range records {
		out = append(out, record.Visible)
	}
	return out
}

func newTestDecisionDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})
	return db
}

func applyDecisionDDL(t *testing.T, db *bun.DB) {
	content, err := os.ReadFile("../data/sql/migrations/sqlite/00005_authz_decisions.up.sql")
	require.NoError(t, err)
	for _, stmt := range splitStatements(string(content)) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

func splitStatements(sql string) []string {
	lines := strings.Split(sql, "\n")
	var builder strings.Builder
	var statements []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		builder.WriteString(line)
		if strings.HasSuffix(line, ";") {
			statements = append(statements, strings.TrimSuffix(builder.String(), ";"))
			builder.Reset()
		} else {
			builder.WriteString(" ")
		}
	}
	if builder.Len() > 0 {
		statements = append(statements, builder.String())
	}
	return statements
}
