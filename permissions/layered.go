package permissions

import (
	"github.com/goliatone/go-campus-authz/pkg/types"
	opts "github.com/goliatone/go-options"
)

const (
	layerDefaults = "defaults"
	layerOverride = "deployment"
)

// Layered merges deployment overrides on top of base. Each override can grant
// or revoke single triples; everything else keeps the base value. Overrides
// apply in order, later ones winning.
func Layered(base *Matrix, overrides ...Document) (*Matrix, error) {
	current := base
	if current == nil {
		current = NewMatrix(nil)
	}
	for _, override := range overrides {
		next, err := mergeOverride(current, override)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

func mergeOverride(base *Matrix, override Document) (*Matrix, error) {
	rules, err := override.PermissionRules()
	if err != nil {
		return nil, err
	}

	defaults := opts.NewScope(layerDefaults, opts.ScopePrioritySystem,
		opts.WithScopeLabel("Default Matrix"))
	deployment := opts.NewScope(layerOverride, opts.ScopePriorityTenant,
		opts.WithScopeLabel("Deployment Overrides"))

	stack, err := opts.NewStack(
		opts.NewLayer(defaults, tree(base.Rules()), opts.WithSnapshotID[map[string]any](defaults.Name)),
		opts.NewLayer(deployment, tree(rules), opts.WithSnapshotID[map[string]any](deployment.Name)),
	)
	if err != nil {
		return nil, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return nil, err
	}
	return NewMatrix(flatten(merged.Value)), nil
}

// tree renders rules as resource → operation → role → allowed so a higher
// layer can flip a single leaf.
func tree(rules []types.PermissionRule) map[string]any {
	out := make(map[string]any)
	for _, rule := range rules {
		ops, ok := out[string(rule.Resource)].(map[string]any)
		if !ok {
			ops = make(map[string]any)
			out[string(rule.Resource)] = ops
		}
		roles, ok := ops[string(rule.Operation)].(map[string]any)
		if !ok {
			roles = make(map[string]any)
			ops[string(rule.Operation)] = roles
		}
		allowed := rule.Effect == types.EffectAllow
		if prev, seen := roles[string(rule.Role)].(bool); seen && !prev {
			allowed = false
		}
		roles[string(rule.Role)] = allowed
	}
	return out
}

func flatten(value map[string]any) []types.PermissionRule {
	rules := make([]types.PermissionRule, 0)
	for resource, rawOps := range value {
		ops, ok := rawOps.(map[string]any)
		if !ok {
			continue
		}
		for op, rawRoles := range ops {
			roles, ok := rawRoles.(map[string]any)
			if !ok {
				continue
			}
			for role, rawAllowed := range roles {
				allowed, ok := rawAllowed.(bool)
				if !ok || !allowed {
					continue
				}
				rules = append(rules, types.PermissionRule{
					Role:      types.RoleTag(role),
					Operation: types.OperationClass(op),
					Resource:  types.ResourceType(resource),
					Effect:    types.EffectAllow,
				})
			}
		}
	}
	return rules
}
