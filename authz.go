package authz

import "github.com/goliatone/go-campus-authz/service"

// Re-export the service package entry point so consumers can do `authz.New(...)`
// without importing internal wiring helpers.
type (
	Service  = service.Service
	Config   = service.Config
	Commands = service.Commands
	Queries  = service.Queries
)

// New constructs the go-campus-authz runtime using the provided configuration.
func New(cfg Config) (*Service, error) {
	return service.New(cfg)
}
