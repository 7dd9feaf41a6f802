package permissions

import (
	"github.com/goliatone/go-campus-authz/pkg/types"
)

// Evaluator decides whether a role may perform an operation on a resource.
type Evaluator interface {
	Allows(role types.RoleTag, op types.OperationClass, resource types.ResourceType) bool
	RequiredRoles(op types.OperationClass, resource types.ResourceType) []types.RoleTag
}

type grantKey struct {
	role     types.RoleTag
	op       types.OperationClass
	resource types.ResourceType
}

// Matrix is an immutable permission table.
type Matrix struct {
	grants map[grantKey]struct{}
}

var _ Evaluator = (*Matrix)(nil)

// NewMatrix builds a matrix from rules. Deny rules override allow rules for the
// same triple regardless of order.
func NewMatrix(rules []types.PermissionRule) *Matrix {
	grants := make(map[grantKey]struct{}, len(rules))
	for _, rule := range rules {
		if rule.Effect != types.EffectAllow {
			continue
		}
		grants[keyOf(rule)] = struct{}{}
	}
	for _, rule := range rules {
		if rule.Effect == types.EffectDeny {
			delete(grants, keyOf(rule))
		}
	}
	return &Matrix{grants: grants}
}

// Allows reports whether an allow rule exists for the exact triple.
func (m *Matrix) Allows(role types.RoleTag, op types.OperationClass, resource types.ResourceType) bool {
	if m == nil {
		return false
	}
	_, ok := m.grants[grantKey{role: role, op: op, resource: resource}]
	return ok
}

// RequiredRoles lists the roles allowed to perform op on resource, in the
// canonical role order.
func (m *Matrix) RequiredRoles(op types.OperationClass, resource types.ResourceType) []types.RoleTag {
	out := make([]types.RoleTag, 0)
	for _, role := range types.AllRoles() {
		if m.Allows(role, op, resource) {
			out = append(out, role)
		}
	}
	return out
}

// Rules returns the allow rules of the matrix in a stable order.
func (m *Matrix) Rules() []types.PermissionRule {
	out := make([]types.PermissionRule, 0)
	if m == nil {
		return out
	}
	for _, resource := range types.AllResources() {
		for _, op := range types.AllOperations() {
			for _, role := range types.AllRoles() {
				if m.Allows(role, op, resource) {
					out = append(out, types.PermissionRule{
						Role:      role,
						Operation: op,
						Resource:  resource,
						Effect:    types.EffectAllow,
					})
				}
			}
		}
	}
	return out
}

// Len returns the number of allow rules.
func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.grants)
}

func keyOf(rule types.PermissionRule) grantKey {
	return grantKey{role: rule.Role, op: rule.Operation, resource: rule.Resource}
}
