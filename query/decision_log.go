package query

import (
	"context"

	"github.com/goliatone/go-campus-authz/activity"
	"github.com/goliatone/go-campus-authz/pkg/types"
	gocommand "github.com/goliatone/go-command"
)

// DecisionLogOption customizes the decision log query.
type DecisionLogOption func(*DecisionLog)

// WithDecisionAccessPolicy overrides the default decision access policy.
func WithDecisionAccessPolicy(policy activity.DecisionAccessPolicy) DecisionLogOption {
	return func(q *DecisionLog) {
		if q != nil && policy != nil {
			q.policy = policy
		}
	}
}

// DecisionLog lists persisted authorization decisions. Admins see every
// decision; other actors only their own.
type DecisionLog struct {
	repo   types.DecisionRepository
	policy activity.DecisionAccessPolicy
}

// NewDecisionLog constructs the decision log query.
func NewDecisionLog(repo types.DecisionRepository, opts ...DecisionLogOption) *DecisionLog {
	q := &DecisionLog{
		repo:   repo,
		policy: activity.NewDefaultAccessPolicy(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	return q
}

var _ gocommand.Querier[types.DecisionFilter, types.DecisionPage] = (*DecisionLog)(nil)

// Query applies the access policy, lists decisions and sanitizes drafts.
func (q *DecisionLog) Query(ctx context.Context, filter types.DecisionFilter) (types.DecisionPage, error) {
	if q.repo == nil {
		return types.DecisionPage{}, types.ErrMissingDecisionRepository
	}
	filter, err := q.policy.Apply(filter.Actor, filter)
	if err != nil {
		return types.DecisionPage{}, err
	}
	page, err := q.repo.ListDecisions(ctx, filter)
	if err != nil {
		return types.DecisionPage{}, err
	}
	page.Records = q.policy.Sanitize(filter.Actor, page.Records)
	return page, nil
}
