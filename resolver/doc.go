// Package resolver turns an authenticated actor into a ResolvedIdentity:
// the role descriptor plus, for scoped roles, the organizational unit derived
// from the role-specific profile. A missing or unit-less profile never fails
// open; it yields an identity carrying an IncompleteProfile fault.
package resolver
