package activity

import (
	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-masker"
)

// DecisionAccessPolicy applies role-aware constraints and sanitization to
// decision log listings.
type DecisionAccessPolicy interface {
	Apply(actor types.ActorRef, req types.DecisionFilter) (types.DecisionFilter, error)
	Sanitize(actor types.ActorRef, records []types.DecisionRecord) []types.DecisionRecord
}

// AccessPolicyOption customizes the default decision access policy.
type AccessPolicyOption func(*DefaultAccessPolicy)

// DefaultAccessPolicy lets admin and the configured audit roles read every
// decision. Any other actor only sees decisions it triggered. Drafts are
// masked for everyone except admin.
type DefaultAccessPolicy struct {
	auditRoles map[types.RoleTag]struct{}
	masker     *masker.Masker
}

var _ DecisionAccessPolicy = (*DefaultAccessPolicy)(nil)

// NewDefaultAccessPolicy returns the default policy implementation.
func NewDefaultAccessPolicy(opts ...AccessPolicyOption) *DefaultAccessPolicy {
	policy := &DefaultAccessPolicy{
		auditRoles: map[types.RoleTag]struct{}{types.RoleAdmin: {}},
		masker:     DefaultMasker(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(policy)
		}
	}
	if policy.masker == nil {
		policy.masker = DefaultMasker()
	}
	return policy
}

// WithAuditRoles grants full decision log visibility to extra roles.
func WithAuditRoles(roles ...types.RoleTag) AccessPolicyOption {
	return func(policy *DefaultAccessPolicy) {
		if policy == nil {
			return
		}
		for _, role := range roles {
			normalized, _ := types.NormalizeRole(string(role))
			if normalized != "" {
				policy.auditRoles[normalized] = struct{}{}
			}
		}
	}
}

// WithPolicyMasker overrides the masker used for sanitization.
func WithPolicyMasker(mask *masker.Masker) AccessPolicyOption {
	return func(policy *DefaultAccessPolicy) {
		if policy == nil {
			return
		}
		policy.masker = mask
	}
}

// Apply forces non-audit actors onto their own decisions.
func (p *DefaultAccessPolicy) Apply(actor types.ActorRef, req types.DecisionFilter) (types.DecisionFilter, error) {
	if err := req.Validate(); err != nil {
		return types.DecisionFilter{}, err
	}
	out := req
	out.Actor = actor
	if !p.audits(actor) {
		out.ActorID = actor.ID
	}
	return out, nil
}

// Sanitize masks drafts for every role but admin.
func (p *DefaultAccessPolicy) Sanitize(actor types.ActorRef, records []types.DecisionRecord) []types.DecisionRecord {
	if len(records) == 0 || actor.IsRole(types.RoleAdmin) {
		return records
	}
	return SanitizeRecords(p.masker, records)
}

func (p *DefaultAccessPolicy) audits(actor types.ActorRef) bool {
	_, ok := p.auditRoles[actor.RoleName()]
	return ok
}
