// Package scope narrows candidate rows to the organizational unit of the
// requesting actor. Each faculty-partitioned resource declares a unit path in
// the Catalog; the Filter walks it (across as many hops as declared) and fails
// closed whenever an identity or a row cannot be resolved.
package scope
