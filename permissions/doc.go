// Package permissions implements the static role/operation/resource matrix.
// Matrices are built once, never mutated, and default to deny for any triple
// without an allow rule. They load from YAML and can be layered with
// deployment overrides through go-options.
package permissions
