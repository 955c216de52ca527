package store

import "context"

// VersionStore allocates per-resource artifact version numbers.
//
// Next must be an atomic increment-and-return keyed by the resource:
// two concurrent allocations for the same resource must never be handed
// the same number, while allocations for different resources must never
// block each other. Numbers for a key are strictly increasing, start at
// 1, and are never reused.
type VersionStore interface {
	// Next reserves and returns the next version for the resource
	// identified by serviceID, or by the (lowercased) name when
	// serviceID is nil.
	Next(ctx context.Context, serviceID *int64, serviceName string) (int, error)
}
