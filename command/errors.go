package command

import (
	"errors"

	"github.com/goliatone/go-campus-authz/pkg/types"
)

var (
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = types.ErrActorRequired
	// ErrResourceRequired indicates the resource type was missing.
	ErrResourceRequired = errors.New("go-campus-authz: resource type required")
	// ErrRecordIDRequired indicates an update or delete omitted the row id.
	ErrRecordIDRequired = errors.New("go-campus-authz: record id required")
	// ErrProfileIDRequired indicates a profile delete omitted the profile id.
	ErrProfileIDRequired = errors.New("go-campus-authz: profile id required")
	// ErrRoleRequired indicates a profile delete omitted the profile role.
	ErrRoleRequired = errors.New("go-campus-authz: role required")
	// ErrMissingAuthorizer indicates the command lacks its authorizer.
	ErrMissingAuthorizer = errors.New("go-campus-authz: missing request authorizer")
	// ErrMissingProfileCascade indicates the profile delete lacks its cascade store.
	ErrMissingProfileCascade = errors.New("go-campus-authz: missing profile cascade")
)
