package types

import (
	"fmt"
)

// ErrTransitionNotAllowed reports an illegal decision state change.
var ErrTransitionNotAllowed = fmt.Errorf("go-campus-authz: decision transition not allowed")

// DecisionState tracks a single request through the authorizer.
type DecisionState string

const (
	DecisionUnresolved DecisionState = "unresolved"
	DecisionResolved   DecisionState = "resolved"
	DecisionDenied     DecisionState = "denied"
	DecisionScoped     DecisionState = "scoped"
)

// Terminal reports whether no further transition is possible.
func (s DecisionState) Terminal() bool {
	return s == DecisionDenied || s == DecisionScoped
}

// TransitionPolicy validates decision state transitions.
type TransitionPolicy interface {
	Validate(current, target DecisionState) error
	AllowedTargets(current DecisionState) []DecisionState
}

// StaticTransitionPolicy enforces a fixed transition graph.
type StaticTransitionPolicy struct {
	graph map[DecisionState]map[DecisionState]struct{}
}

// NewStaticTransitionPolicy creates a policy from a transition graph.
func NewStaticTransitionPolicy(graph map[DecisionState][]DecisionState) *StaticTransitionPolicy {
	internal := make(map[DecisionState]map[DecisionState]struct{}, len(graph))
	for from, targets := range graph {
		targetSet := make(map[DecisionState]struct{}, len(targets))
		for _, to := range targets {
			if to == "" {
				continue
			}
			targetSet[to] = struct{}{}
		}
		internal[from] = targetSet
	}
	return &StaticTransitionPolicy{graph: internal}
}

// DefaultTransitionPolicy returns unresolved→resolved→denied|scoped. A
// resolution failure goes straight to denied.
func DefaultTransitionPolicy() *StaticTransitionPolicy {
	return NewStaticTransitionPolicy(map[DecisionState][]DecisionState{
		DecisionUnresolved: {DecisionResolved, DecisionDenied},
		DecisionResolved:   {DecisionDenied, DecisionScoped},
	})
}

// Validate ensures the target is allowed from the current state.
func (p *StaticTransitionPolicy) Validate(current, target DecisionState) error {
	if current == "" || target == "" {
		return ErrTransitionNotAllowed
	}
	targets, ok := p.graph[current]
	if !ok {
		return ErrTransitionNotAllowed
	}
	if _, ok := targets[target]; !ok {
		return ErrTransitionNotAllowed
	}
	return nil
}

// AllowedTargets returns the slice of valid targets from the provided state.
func (p *StaticTransitionPolicy) AllowedTargets(current DecisionState) []DecisionState {
	targets := p.graph[current]
	if len(targets) == 0 {
		return nil
	}
	out := make([]DecisionState, 0, len(targets))
	for target := range targets {
		out = append(out, target)
	}
	return out
}
