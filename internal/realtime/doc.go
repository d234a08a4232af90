// Package realtime implements the connection registry and event distribution
// layer using the actor pattern.
//
// The Hub owns one record per live websocket connection in a single goroutine
// fed by a typed command channel (no mutexes). A connection's room set is
// computed once from its security context at registration and frozen for its
// lifetime; nothing a client sends can alter membership. The Dispatcher
// validates event envelopes, resolves their audience through the routing
// table, and fans out to room members. Fan-out guarantees hold only within
// one process: each process owns an independent registry, and cross-process
// distribution would require an external bus, which this package does not
// provide.
package realtime
