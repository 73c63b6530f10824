// Package domain defines the core domain types and errors.
//
// Concept-oriented files (state.go, library.go, connection.go, errors.go) with
// shared types used across packages. No implementation code - just contracts.
// Prevents circular imports by keeping types on the consumer side.
package domain
