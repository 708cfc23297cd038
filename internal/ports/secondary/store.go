// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import "context"

// TreeStore is the hierarchical key-value tree every component reads and writes.
// Values follow the JSON value model: map[string]any, []any, string, float64, bool.
// There is no null: writing nil removes the node.
type TreeStore interface {
	// Read returns the value at path. ok is false when nothing is stored there.
	// The returned value belongs to the caller. The empty path reads the whole tree.
	Read(ctx context.Context, path string) (value any, ok bool, err error)

	// Write replaces the whole subtree at path with value.
	Write(ctx context.Context, path string, value any) error

	// Merge writes each key of partial as a child of path, leaving other
	// children untouched. A nil entry removes that child.
	Merge(ctx context.Context, path string, partial map[string]any) error

	// Delete removes the subtree at path. Deleting an absent path is not an error.
	Delete(ctx context.Context, path string) error
}

// IDGenerator produces fresh unique record ids.
type IDGenerator interface {
	NewID() string
}

// ScratchStoreFactory builds an isolated store seeded with a copy of tree.
// Dry runs execute against it.
type ScratchStoreFactory func(tree map[string]any) (TreeStore, error)
