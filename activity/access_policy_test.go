package activity

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDefaultAccessPolicy_ScopesNonAuditRoles(t *testing.T) {
	policy := NewDefaultAccessPolicy()
	other := uuid.New()

	professor := types.ActorRef{ID: uuid.New(), Role: "professor"}
	filter, err := policy.Apply(professor, types.DecisionFilter{Actor: professor, ActorID: other})
	require.NoError(t, err)
	require.Equal(t, professor.ID, filter.ActorID)

	admin := types.ActorRef{ID: uuid.New(), Role: " Admin "}
	filter, err = policy.Apply(admin, types.DecisionFilter{Actor: admin, ActorID: other})
	require.NoError(t, err)
	require.Equal(t, other, filter.ActorID)

	_, err = policy.Apply(types.ActorRef{}, types.DecisionFilter{})
	require.ErrorIs(t, err, types.ErrActorRequired)
}

func TestDefaultAccessPolicy_AuditRoles(t *testing.T) {
	policy := NewDefaultAccessPolicy(WithAuditRoles("exam_officer"))
	officer := types.ActorRef{ID: uuid.New(), Role: "exam-officer"}

	filter, err := policy.Apply(officer, types.DecisionFilter{Actor: officer})
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, filter.ActorID)
}

func TestDefaultAccessPolicy_SanitizeMasksDrafts(t *testing.T) {
	policy := NewDefaultAccessPolicy()
	records := []types.DecisionRecord{
		{ID: uuid.New(), DecisionEvent: types.DecisionEvent{Draft: map[string]any{"iban": "DE89370400440532013000"}}},
	}

	secretary := types.ActorRef{ID: uuid.New(), Role: "secretary"}
	out := policy.Sanitize(secretary, records)
	require.Len(t, out, 1)
	require.NotEqual(t, "DE89370400440532013000", out[0].Draft["iban"])

	admin := types.ActorRef{ID: uuid.New(), Role: "admin"}
	out = policy.Sanitize(admin, records)
	require.Equal(t, "DE89370400440532013000", out[0].Draft["iban"])
}

func TestMemorySink_MatchesRepositoryOrdering(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	sink := NewMemorySink(clock, nil)

	actor := uuid.New()
	for i := 0; i < 5; i++ {
		require.NoError(t, sink.LogDecision(ctx, types.DecisionEvent{
			ActorID:  actor,
			Role:     types.RoleSecretary,
			Resource: types.ResourceRoom,
			State:    types.DecisionScoped,
			Visible:  i,
			Draft:    map[string]any{"token": "abcd1234"},
		}))
	}
	require.NoError(t, sink.LogDecision(ctx, types.DecisionEvent{ActorID: uuid.New(), State: types.DecisionDenied}))
	require.Equal(t, 6, sink.Len())

	page, err := sink.ListDecisions(ctx, types.DecisionFilter{ActorID: actor, Pagination: types.Pagination{Limit: 2}})
	require.NoError(t, err)
	require.Equal(t, 5, page.Total)
	require.Equal(t, []int{4, 3}, visibleCounts(page.Records))
	require.True(t, page.HasMore)
	require.NotEqual(t, "abcd1234", page.Records[0].Draft["token"])

	last := page.Records[1]
	next, err := sink.ListDecisions(ctx, types.DecisionFilter{
		ActorID:    actor,
		Cursor:     &types.DecisionCursor{OccurredAt: last.OccurredAt, ID: last.ID},
		Pagination: types.Pagination{Limit: 10},
	})
	require.NoError(t, err)
	require.Equal(t, []int{2, 1, 0}, visibleCounts(next.Records))
	require.False(t, next.HasMore)

	denied, err := sink.ListDecisions(ctx, types.DecisionFilter{States: []types.DecisionState{types.DecisionDenied}})
	require.NoError(t, err)
	require.Len(t, denied.Records, 1)
}
