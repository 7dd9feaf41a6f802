package authorizer

import (
	"context"

	"github.com/goliatone/go-campus-authz/pkg/types"
)

type decision struct {
	state types.DecisionState
	event types.DecisionEvent
}

func (a *Authorizer) begin(actor types.ActorRef, op types.OperationClass, resource types.ResourceType) *decision {
	role, _ := types.NormalizeRole(actor.Role)
	return &decision{
		state: types.DecisionUnresolved,
		event: types.DecisionEvent{
			ActorID:   actor.ID,
			Role:      role,
			Operation: op,
			Resource:  resource,
		},
	}
}

func (a *Authorizer) advance(d *decision, target types.DecisionState) bool {
	if err := a.transitions.Validate(d.state, target); err != nil {
		a.logger.Error("invalid decision transition", err, "from", d.state, "to", target)
		return false
	}
	d.state = target
	return true
}

// finish moves the decision to a terminal state and reports it.
func (a *Authorizer) finish(ctx context.Context, d *decision, target types.DecisionState, fault error) {
	if !a.advance(d, target) {
		return
	}
	d.event.State = d.state
	d.event.OccurredAt = a.clock.Now()
	if fault != nil {
		d.event.Fault = fault.Error()
	}
	if target == types.DecisionDenied {
		a.logger.Info("authorization denied",
			"actor_id", d.event.ActorID,
			"role", d.event.Role,
			"operation", d.event.Operation,
			"resource", d.event.Resource,
		)
	}
	if a.sink != nil {
		if err := a.sink.LogDecision(ctx, d.event); err != nil {
			a.logger.Error("decision log failed", err, "resource", d.event.Resource)
		}
	}
	if a.hooks.AfterDecision != nil {
		a.hooks.AfterDecision(ctx, d.event)
	}
}
