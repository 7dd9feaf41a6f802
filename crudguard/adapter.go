package crudguard

import (
	"fmt"

	"github.com/goliatone/go-campus-authz/authorizer"
	"github.com/goliatone/go-campus-authz/permissions"
	"github.com/goliatone/go-campus-authz/pkg/authctx"
	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-campus-authz/registry"
	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeMissingOperation = "OPERATION_MAPPING_MISSING"
	textCodeMissingContext   = "CONTEXT_MISSING"
)

// Config drives Adapter construction.
type Config struct {
	Evaluator    permissions.Evaluator
	Registry     registry.RoleRegistry
	Logger       types.Logger
	OperationMap map[crud.CrudOperation]types.OperationClass
}

// Adapter resolves the actor of a go-crud request and rejects operations the
// permission matrix does not grant before any row is loaded. Row scoping stays
// with the authorizer behind the command and query handlers.
type Adapter struct {
	evaluator    permissions.Evaluator
	registry     registry.RoleRegistry
	logger       types.Logger
	operationMap map[crud.CrudOperation]types.OperationClass
}

// GuardInput captures per-request parameters supplied by transports.
type GuardInput struct {
	Context   crud.Context
	Operation crud.CrudOperation
	Resource  types.ResourceType
	Bypass    *BypassConfig
}

// GuardResult reports the actor and the operation class the request maps to.
type GuardResult struct {
	Actor         types.ActorRef
	Role          types.RoleTag
	Operation     types.OperationClass
	CrudOperation crud.CrudOperation
	Bypassed      bool
	BypassReason  string
}

// BypassConfig explicitly allows the matrix pre-check to be skipped for
// whitelisted routes such as schema exports. It must never be enabled by
// default.
type BypassConfig struct {
	Enabled bool
	Reason  string
}

// NewAdapter constructs the adapter. The evaluator, registry and operation
// map default to the shipped matrix, role set and DefaultOperationMap.
func NewAdapter(cfg Config) *Adapter {
	evaluator := cfg.Evaluator
	if evaluator == nil {
		evaluator = permissions.DefaultMatrix()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = registry.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	opMap := cloneOperationMap(cfg.OperationMap)
	if opMap == nil {
		opMap = DefaultOperationMap()
	}
	return &Adapter{
		evaluator:    evaluator,
		registry:     reg,
		logger:       logger,
		operationMap: opMap,
	}
}

// Enforce resolves the actor from the request and checks the matrix for the
// mapped operation class.
func (a *Adapter) Enforce(in GuardInput) (GuardResult, error) {
	if in.Context == nil {
		return GuardResult{}, goerrors.New("go-campus-authz: crudguard requires a context", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithTextCode(textCodeMissingContext)
	}

	actor, err := authctx.ResolveActor(in.Context.UserContext())
	if err != nil {
		return GuardResult{}, err
	}

	op, err := a.operationClass(in.Operation)
	if err != nil {
		return GuardResult{}, err
	}

	result := GuardResult{
		Actor:         actor,
		Role:          actor.RoleName(),
		Operation:     op,
		CrudOperation: in.Operation,
	}

	if in.Bypass != nil && in.Bypass.Enabled {
		a.logger.Info("crudguard: bypassing matrix check", "operation", string(in.Operation), "reason", in.Bypass.Reason)
		result.Bypassed = true
		result.BypassReason = in.Bypass.Reason
		return result, nil
	}

	descriptor, err := a.registry.Describe(actor.Role)
	if err != nil {
		return GuardResult{}, err
	}
	result.Role = descriptor.Tag
	if !a.evaluator.Allows(descriptor.Tag, op, in.Resource) {
		return GuardResult{}, authorizer.DeniedError(descriptor.Tag, op, in.Resource, a.evaluator.RequiredRoles(op, in.Resource))
	}
	return result, nil
}

func (a *Adapter) operationClass(op crud.CrudOperation) (types.OperationClass, error) {
	if class, ok := a.operationMap[op]; ok && class != "" {
		return class, nil
	}
	return "", goerrors.Wrap(types.ErrUnknownOperation, goerrors.CategoryInternal,
		fmt.Sprintf("no operation class configured for %s", op)).
		WithCode(goerrors.CodeInternal).
		WithTextCode(textCodeMissingOperation)
}
