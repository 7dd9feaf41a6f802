package crudsvc

import (
	"fmt"

	"github.com/goliatone/go-campus-authz/crudguard"
	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
)

// GuardAdapter captures the subset of crudguard.Adapter we rely on so tests can
// swap in fakes.
type GuardAdapter interface {
	Enforce(in crudguard.GuardInput) (crudguard.GuardResult, error)
}

type serviceOptions struct {
	logger      types.Logger
	defaultPage int
}

// ServiceOption customizes CRUD service behaviour.
type ServiceOption func(*serviceOptions)

// WithLogger wires a logger for service diagnostics.
func WithLogger(logger types.Logger) ServiceOption {
	return func(cfg *serviceOptions) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithDefaultPageSize sets the page size used when the request omits limit.
func WithDefaultPageSize(limit int) ServiceOption {
	return func(cfg *serviceOptions) {
		if limit > 0 {
			cfg.defaultPage = limit
		}
	}
}

func applyOptions(opts []ServiceOption) serviceOptions {
	cfg := serviceOptions{
		logger:      types.NopLogger{},
		defaultPage: 50,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func notSupported(op crud.CrudOperation) error {
	return goerrors.New(
		fmt.Sprintf("go-campus-authz: crud operation %s disabled for this resource", op),
		goerrors.CategoryValidation,
	).WithCode(goerrors.CodeBadRequest)
}

func missingDependency(name string) error {
	return goerrors.New(fmt.Sprintf("go-campus-authz: %s unavailable", name), goerrors.CategoryInternal).
		WithCode(goerrors.CodeInternal)
}
