// Package mocks provides centralized in-memory implementations of the
// persistence interfaces for testing.
//
// The request store mirrors the database's guarded-update semantics,
// including the terminal-state protection, so lifecycle tests exercise
// the same rules the real store enforces. Instead of defining inline
// fakes in individual test files, these implementations can be reused
// across packages.
package mocks
