// Package auth is the authentication collaborator: it verifies credentials
// (bearer tokens for API clients, cookie sessions for browsers) and produces
// principals. The same verification pipeline serves stateless requests and
// websocket handshakes; there is no parallel token scheme for connections.
// Role and home school come from the verified credential only and are never
// re-derived from client input.
package auth
