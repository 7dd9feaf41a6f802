package registry

import (
	"fmt"

	"github.com/goliatone/go-campus-authz/pkg/types"
	goerrors "github.com/goliatone/go-errors"
)

const textCodeUnknownRole = "UNKNOWN_ROLE"

// RoleRegistry describes role tags.
type RoleRegistry interface {
	Describe(tag string) (types.RoleDescriptor, error)
	Tags() []types.RoleTag
}

// Registry is the fixed role set. It is built once and only read afterwards.
type Registry struct {
	descriptors map[types.RoleTag]types.RoleDescriptor
}

var _ RoleRegistry = (*Registry)(nil)

// New returns the registry for the academic records domain.
func New() *Registry {
	descriptors := []types.RoleDescriptor{
		{Tag: types.RoleAdmin, Universal: true},
		{Tag: types.RoleFinance, Universal: true},
		{Tag: types.RoleExamOfficer, Universal: true},
		{Tag: types.RoleLibrary, Universal: true},
		{Tag: types.RoleStudent, Scoped: true, Profile: types.ResourceStudent},
		{Tag: types.RoleProfessor, Scoped: true, Profile: types.ResourceProfessor},
		{Tag: types.RoleSecretary, Scoped: true, Profile: types.ResourceSecretary},
		{Tag: types.RoleLibrarian, Scoped: true, Profile: types.ResourceLibrarian},
	}
	index := make(map[types.RoleTag]types.RoleDescriptor, len(descriptors))
	for _, desc := range descriptors {
		index[desc.Tag] = desc
	}
	return &Registry{descriptors: index}
}

// Describe returns the descriptor for the tag. Stored aliases such as "exam"
// are accepted.
func (r *Registry) Describe(tag string) (types.RoleDescriptor, error) {
	role, _ := types.NormalizeRole(tag)
	desc, ok := r.descriptors[role]
	if !ok {
		return types.RoleDescriptor{}, UnknownRoleError(tag)
	}
	return desc, nil
}

// Tags lists the canonical tags in stable order.
func (r *Registry) Tags() []types.RoleTag {
	out := make([]types.RoleTag, 0, len(r.descriptors))
	for _, tag := range types.AllRoles() {
		if _, ok := r.descriptors[tag]; ok {
			out = append(out, tag)
		}
	}
	return out
}

// Universal lists the tags that see every row.
func (r *Registry) Universal() []types.RoleTag {
	out := make([]types.RoleTag, 0)
	for _, tag := range r.Tags() {
		if r.descriptors[tag].Universal {
			out = append(out, tag)
		}
	}
	return out
}

// UnknownRoleError builds the error returned for tags outside the role set.
func UnknownRoleError(tag string) error {
	return goerrors.Wrap(types.ErrUnknownRole, goerrors.CategoryAuth, fmt.Sprintf("unknown role tag %q", tag)).
		WithCode(goerrors.CodeUnauthorized).
		WithTextCode(textCodeUnknownRole).
		WithMetadata(map[string]any{"role": tag})
}
