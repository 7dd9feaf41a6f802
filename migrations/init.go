package migrations

import (
	"io/fs"

	authz "github.com/goliatone/go-campus-authz"
)

func init() {
	coreFS, err := fs.Sub(authz.MigrationsFS, "data/sql/migrations")
	if err != nil {
		return
	}
	Register(coreFS)
}
