// Package records persists the rows of the academic records domain. Store
// reads and writes every resource table through Bun as generic rows; the
// MemoryStore keeps the same contract in process for tests and examples.
package records
