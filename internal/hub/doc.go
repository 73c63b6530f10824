// Package hub implements the connection registry and broadcast protocol engine
// using the actor pattern.
//
// A single goroutine owns the registry and performs every state, library and
// upload mutation, one inbound message at a time (no mutexes in the hub).
// Per-connection write goroutines isolate slow clients: a full send buffer gets
// the client disconnected instead of stalling the broadcast loop.
package hub
