package authorizer

import (
	"fmt"

	"github.com/goliatone/go-campus-authz/pkg/types"
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeAuthorizationDenied = "AUTHORIZATION_DENIED"
	TextCodeScopeViolation      = "SCOPE_VIOLATION_ON_WRITE"
	TextCodeRecordNotFound      = "RECORD_NOT_FOUND"
	TextCodeDuplicateRecord     = "DUPLICATE_RECORD"
)

// DeniedError reports a matrix denial. The metadata carries the roles that
// would have been allowed and nothing about the rows involved.
func DeniedError(role types.RoleTag, op types.OperationClass, resource types.ResourceType, required []types.RoleTag) error {
	roles := make([]string, 0, len(required))
	for _, tag := range required {
		roles = append(roles, string(tag))
	}
	return goerrors.Wrap(types.ErrAuthorizationDenied, goerrors.CategoryAuthz,
		fmt.Sprintf("role %s may not %s %s", role, op, resource)).
		WithCode(goerrors.CodeForbidden).
		WithTextCode(TextCodeAuthorizationDenied).
		WithMetadata(map[string]any{
			"operation":      string(op),
			"resource":       string(resource),
			"required_roles": roles,
		})
}

// ScopeViolationError reports a write whose unit or owner falls outside the
// actor's own.
func ScopeViolationError(role types.RoleTag, resource types.ResourceType) error {
	return goerrors.Wrap(types.ErrScopeViolation, goerrors.CategoryAuthz,
		fmt.Sprintf("%s write outside the unit of role %s", resource, role)).
		WithCode(goerrors.CodeForbidden).
		WithTextCode(TextCodeScopeViolation).
		WithMetadata(map[string]any{
			"resource": string(resource),
		})
}

// RecordNotFoundError hides rows outside the actor's scope behind a not-found.
func RecordNotFoundError(resource types.ResourceType) error {
	return goerrors.Wrap(types.ErrRecordNotFound, goerrors.CategoryNotFound,
		fmt.Sprintf("%s not found", resource)).
		WithCode(goerrors.CodeNotFound).
		WithTextCode(TextCodeRecordNotFound)
}

// DuplicateRecordError reports a create that repeats the refs of an existing
// row.
func DuplicateRecordError(resource types.ResourceType, refs []string) error {
	return goerrors.Wrap(types.ErrDuplicateRecord, goerrors.CategoryConflict,
		fmt.Sprintf("%s already exists for %v", resource, refs)).
		WithCode(goerrors.CodeConflict).
		WithTextCode(TextCodeDuplicateRecord).
		WithMetadata(map[string]any{"resource": string(resource), "refs": refs})
}
