// Package kv provides the string key/value stores that back account settings.
//
// A Backend always has a root store. Backends that can produce dedicated named
// stores (one per account) report so through Named; otherwise callers are
// expected to namespace their keys inside the root store.
package kv

import "context"

// RootStoreName is the name of the shared store every backend exposes.
const RootStoreName = "app"

// Store is a flat string key/value store.
//
// Get reports absence through found == false; the error is reserved for
// backend failures.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

// Backend groups the stores of one persistence medium.
type Backend interface {
	// Root returns the shared store.
	Root() Store

	// Named returns a dedicated store with the given name. ok is false when the
	// backend cannot produce dedicated stores.
	Named(name string) (s Store, ok bool)

	// Atomically runs fn against a backend whose writes are applied together:
	// if fn returns an error none of them are kept.
	Atomically(ctx context.Context, fn func(ctx context.Context, b Backend) error) error
}
