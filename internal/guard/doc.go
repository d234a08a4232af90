// Package guard implements access-control predicates over a security context
// and a resource. Resource guards fetch the ownership projection of a record
// from storage and decide allow or deny from the caller's school memberships
// and role; the same-school middleware gates whole routes on a candidate
// school id taken from the request.
package guard
