// Package identity derives verified security contexts from authenticated
// principals. A SecurityContext is built once per request or connection,
// never persisted, and never mutated after construction. Every capability
// predicate is a pure function of the resolved memberships; none of them ever
// trusts a client-supplied school id.
package identity
