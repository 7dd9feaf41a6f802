// Package registry holds the closed role set. Every role tag resolves to an
// immutable RoleDescriptor; unknown tags are rejected with ErrUnknownRole.
package registry
