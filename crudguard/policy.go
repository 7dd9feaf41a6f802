package crudguard

import (
	"maps"

	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/goliatone/go-crud"
)

// DefaultOperationMap maps the go-crud verbs onto operation classes.
// Create and update (and their batch variants) are writes.
func DefaultOperationMap() map[crud.CrudOperation]types.OperationClass {
	return map[crud.CrudOperation]types.OperationClass{
		crud.OpRead:        types.OperationRead,
		crud.OpList:        types.OperationRead,
		crud.OpCreate:      types.OperationWrite,
		crud.OpCreateBatch: types.OperationWrite,
		crud.OpUpdate:      types.OperationWrite,
		crud.OpUpdateBatch: types.OperationWrite,
		crud.OpDelete:      types.OperationDelete,
		crud.OpDeleteBatch: types.OperationDelete,
	}
}

func cloneOperationMap(in map[crud.CrudOperation]types.OperationClass) map[crud.CrudOperation]types.OperationClass {
	if len(in) == 0 {
		return nil
	}
	cp := make(map[crud.CrudOperation]types.OperationClass, len(in))
	maps.Copy(cp, in)
	return cp
}
