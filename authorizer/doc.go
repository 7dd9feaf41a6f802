// Package authorizer orchestrates a single authorization decision: resolve the
// actor, gate the operation against the permission matrix, then either scope
// candidate rows or stamp and check a draft row. Each request walks
// unresolved → resolved → denied|scoped exactly once and the terminal state is
// reported to the decision sink and hooks.
package authorizer
