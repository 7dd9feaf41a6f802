// Package query exposes go-command compatible read handlers: scoped record
// listings and lookups through the request authorizer, and the decision log.
package query
