package service

import (
	"context"
	"errors"

	"github.com/goliatone/go-campus-authz/activity"
	"github.com/goliatone/go-campus-authz/authorizer"
	"github.com/goliatone/go-campus-authz/command"
	"github.com/goliatone/go-campus-authz/crudguard"
	"github.com/goliatone/go-campus-authz/crudsvc"
	"github.com/goliatone/go-campus-authz/permissions"
	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-campus-authz/query"
	"github.com/goliatone/go-campus-authz/records"
	"github.com/goliatone/go-campus-authz/registry"
	"github.com/goliatone/go-campus-authz/resolver"
	"github.com/goliatone/go-campus-authz/scope"
	featuregate "github.com/goliatone/go-featuregate/gate"
)

// Service is the entry point for go-campus-authz. It wires the registry,
// resolver, matrix, scope filter and authorizer over the repositories supplied
// by the host application and exposes command/query facades built on them.
type Service struct {
	cfg          Config
	registry     registry.RoleRegistry
	resolver     *resolver.Resolver
	filter       *scope.Filter
	authorizer   *authorizer.Authorizer
	guard        *crudguard.Adapter
	commands     Commands
	queries      Queries
	profiles     types.ProfileRepository
	cascade      types.ProfileCascade
	decisionRepo types.DecisionRepository
}

// Commands exposes the service command handlers.
type Commands struct {
	CreateRecord  *command.CreateRecordCommand
	UpdateRecord  *command.UpdateRecordCommand
	DeleteRecords *command.DeleteRecordsCommand
	DeleteProfile *command.DeleteProfileCommand
}

// Queries exposes read-model helpers.
type Queries struct {
	RecordList   *query.RecordListQuery
	RecordDetail *query.RecordDetailQuery
	DecisionLog  *query.DecisionLog
}

// Config captures all required dependencies so callers can provide their own
// instances (bun.DB backed stores, cached profile repositories, hooks, etc.).
type Config struct {
	// Rows is required. It also serves as the relation source, and as the
	// profile repository and cascade when it implements those contracts.
	Rows               types.RowRepository
	ProfileRepository  types.ProfileRepository
	ProfileCascade     types.ProfileCascade
	RoleRegistry       registry.RoleRegistry
	Evaluator          permissions.Evaluator
	Catalog            *scope.Catalog
	Schema             *records.Schema
	FeatureGate        featuregate.FeatureGate
	DecisionSink       types.DecisionSink
	DecisionRepository types.DecisionRepository
	DecisionPolicy     activity.DecisionAccessPolicy
	Hooks              types.Hooks
	Clock              types.Clock
	IDGenerator        types.IDGenerator
	Logger             types.Logger
	TransitionPolicy   types.TransitionPolicy
}

// New constructs a Service from the supplied configuration.
func New(cfg Config) (*Service, error) {
	norm := normalizeConfig(cfg)
	if norm.Rows == nil {
		return nil, types.ErrMissingRowRepository
	}

	profiles := norm.ProfileRepository
	if profiles == nil {
		if cast, ok := norm.Rows.(types.ProfileRepository); ok {
			profiles = cast
		}
	}
	cascade := norm.ProfileCascade
	if cascade == nil {
		if cast, ok := profiles.(types.ProfileCascade); ok {
			cascade = cast
		} else if cast, ok := norm.Rows.(types.ProfileCascade); ok {
			cascade = cast
		}
	}
	decisionRepo := norm.DecisionRepository
	if decisionRepo == nil {
		if cast, ok := norm.DecisionSink.(types.DecisionRepository); ok {
			decisionRepo = cast
		}
	}

	res, err := resolver.New(resolver.Config{
		Registry:  norm.RoleRegistry,
		Profiles:  profiles,
		Relations: norm.Rows,
		Catalog:   norm.Catalog,
		Hooks:     norm.Hooks,
		Logger:    norm.Logger,
	})
	if err != nil {
		return nil, err
	}
	filter := scope.NewFilter(scope.FilterConfig{
		Catalog: norm.Catalog,
		Source:  norm.Rows,
		Logger:  norm.Logger,
	})
	authz, err := authorizer.New(authorizer.Config{
		Resolver:    res,
		Evaluator:   norm.Evaluator,
		Filter:      filter,
		FeatureGate: norm.FeatureGate,
		Sink:        norm.DecisionSink,
		Hooks:       norm.Hooks,
		Clock:       norm.Clock,
		Logger:      norm.Logger,
		Transitions: norm.TransitionPolicy,
	})
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:          norm,
		registry:     norm.RoleRegistry,
		resolver:     res,
		filter:       filter,
		authorizer:   authz,
		profiles:     profiles,
		cascade:      cascade,
		decisionRepo: decisionRepo,
	}
	s.guard = crudguard.NewAdapter(crudguard.Config{
		Evaluator: authz.Evaluator(),
		Registry:  norm.RoleRegistry,
		Logger:    norm.Logger,
	})
	s.commands = s.buildCommands()
	s.queries = s.buildQueries()
	return s, nil
}

func normalizeConfig(cfg Config) Config {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = types.UUIDGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	if cfg.TransitionPolicy == nil {
		cfg.TransitionPolicy = types.DefaultTransitionPolicy()
	}
	if cfg.RoleRegistry == nil {
		cfg.RoleRegistry = registry.New()
	}
	if cfg.Evaluator == nil {
		cfg.Evaluator = permissions.DefaultMatrix()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = scope.DefaultCatalog()
	}
	if cfg.Schema == nil {
		cfg.Schema = records.DefaultSchema()
	}
	return cfg
}

func (s *Service) buildCommands() Commands {
	recordCfg := command.RecordCommandConfig{
		Authorizer: s.authorizer,
		Rows:       s.cfg.Rows,
		Catalog:    s.cfg.Catalog,
		Hooks:      s.cfg.Hooks,
		Clock:      s.cfg.Clock,
		Logger:     s.cfg.Logger,
	}
	return Commands{
		CreateRecord:  command.NewCreateRecordCommand(recordCfg),
		UpdateRecord:  command.NewUpdateRecordCommand(recordCfg),
		DeleteRecords: command.NewDeleteRecordsCommand(recordCfg),
		DeleteProfile: command.NewDeleteProfileCommand(command.ProfileCommandConfig{
			Authorizer: s.authorizer,
			Rows:       s.cfg.Rows,
			Cascade:    s.cascade,
			Registry:   s.registry,
			Hooks:      s.cfg.Hooks,
			Clock:      s.cfg.Clock,
			Logger:     s.cfg.Logger,
		}),
	}
}

func (s *Service) buildQueries() Queries {
	recordCfg := query.RecordQueryConfig{
		Authorizer: s.authorizer,
		Rows:       s.cfg.Rows,
	}
	var logOpts []query.DecisionLogOption
	if s.cfg.DecisionPolicy != nil {
		logOpts = append(logOpts, query.WithDecisionAccessPolicy(s.cfg.DecisionPolicy))
	}
	return Queries{
		RecordList:   query.NewRecordListQuery(recordCfg),
		RecordDetail: query.NewRecordDetailQuery(recordCfg),
		DecisionLog:  query.NewDecisionLog(s.decisionRepo, logOpts...),
	}
}

// Commands returns the command facade.
func (s *Service) Commands() Commands {
	return s.commands
}

// Queries returns the query facade.
func (s *Service) Queries() Queries {
	return s.queries
}

// Authorizer returns the request authorizer shared by every handler.
func (s *Service) Authorizer() *authorizer.Authorizer {
	return s.authorizer
}

// Resolver returns the actor resolver.
func (s *Service) Resolver() *resolver.Resolver {
	return s.resolver
}

// Guard returns the go-crud guard adapter.
func (s *Service) Guard() *crudguard.Adapter {
	return s.guard
}

// WithRequestCache prepares ctx so the actor is resolved once per request.
func (s *Service) WithRequestCache(ctx context.Context) context.Context {
	return resolver.WithRequestCache(ctx)
}

// RecordService builds the go-crud service of resource. Index accepts the
// resource's ref columns as filters.
func (s *Service) RecordService(resource types.ResourceType, opts ...crudsvc.ServiceOption) (*crudsvc.RecordService, error) {
	table, err := s.cfg.Schema.Table(resource)
	if err != nil {
		return nil, err
	}
	opts = append([]crudsvc.ServiceOption{crudsvc.WithLogger(s.cfg.Logger)}, opts...)
	return crudsvc.NewRecordService(crudsvc.RecordServiceConfig{
		Resource: resource,
		Refs:     table.Refs,
		Guard:    s.guard,
		Create:   s.commands.CreateRecord,
		Update:   s.commands.UpdateRecord,
		Delete:   s.commands.DeleteRecords,
		List:     s.queries.RecordList,
		Detail:   s.queries.RecordDetail,
	}, opts...), nil
}

// DecisionService builds the read-only go-crud service over the decision log.
func (s *Service) DecisionService(opts ...crudsvc.ServiceOption) *crudsvc.DecisionService {
	opts = append([]crudsvc.ServiceOption{crudsvc.WithLogger(s.cfg.Logger)}, opts...)
	return crudsvc.NewDecisionService(crudsvc.DecisionServiceConfig{
		Guard: s.guard,
		Log:   s.queries.DecisionLog,
	}, opts...)
}

// Ready reports whether the service has the required dependencies wired in.
func (s *Service) Ready() bool {
	return s.HealthCheck(context.Background()) == nil
}

// HealthCheck surfaces missing dependencies so transports can refuse traffic
// before the first request fails.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s == nil || s.authorizer == nil {
		return types.ErrServiceNotReady
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var errs []error
	if s.cfg.Rows == nil {
		errs = append(errs, types.ErrMissingRowRepository)
	}
	if s.profiles == nil {
		errs = append(errs, types.ErrMissingProfileRepository)
	}
	if s.cascade == nil {
		errs = append(errs, command.ErrMissingProfileCascade)
	}
	if s.decisionRepo == nil {
		errs = append(errs, types.ErrMissingDecisionRepository)
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{types.ErrServiceNotReady}, errs...)...)
	}
	return nil
}
