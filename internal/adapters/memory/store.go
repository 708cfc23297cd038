// Package memory implements the tree store as nested maps in process memory.
// It backs tests, dry runs and the "memory" store driver.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/lms/internal/core/tree"
	"github.com/example/lms/internal/ports/secondary"
)

// Store is an in-memory tree.
type Store struct {
	mu   sync.RWMutex
	root map[string]any
}

// New creates an empty Store.
func New() *Store {
	return &Store{root: map[string]any{}}
}

// NewFromValue creates a Store holding a deep copy of value.
func NewFromValue(value map[string]any) (*Store, error) {
	s := New()
	if err := s.Write(context.Background(), "", value); err != nil {
		return nil, err
	}
	return s, nil
}

// Read returns a deep copy of the value at path.
func (s *Store) Read(ctx context.Context, path string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	segs := tree.Split(path)
	if len(segs) == 0 {
		if len(s.root) == 0 {
			return nil, false, nil
		}
		return tree.Clone(s.root), true, nil
	}
	var node any = s.root
	for _, seg := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false, nil
		}
		node, ok = m[seg]
		if !ok {
			return nil, false, nil
		}
	}
	return tree.Clone(node), true, nil
}

// Write replaces the subtree at path.
func (s *Store) Write(ctx context.Context, path string, value any) error {
	norm, err := prepare(path, value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(tree.Split(path), norm)
}

// Merge writes every key of partial under path in one step.
func (s *Store) Merge(ctx context.Context, path string, partial map[string]any) error {
	prepared := make(map[string]any, len(partial))
	for k, v := range partial {
		if !tree.ValidKey(k) {
			return fmt.Errorf("invalid key %q under %q", k, path)
		}
		norm, err := prepare(tree.Join(path, k), v)
		if err != nil {
			return err
		}
		prepared[k] = norm
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	base := tree.Split(path)
	for k, v := range prepared {
		if err := s.set(append(append([]string{}, base...), k), v); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the subtree at path and any ancestors left empty.
func (s *Store) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(tree.Split(path), nil)
}

func prepare(path string, value any) (any, error) {
	norm, err := tree.Normalize(value)
	if err != nil {
		return nil, fmt.Errorf("failed to store value at %q: %w", path, err)
	}
	norm = tree.Prune(norm)
	if _, err := tree.Flatten(path, norm); err != nil {
		return nil, err
	}
	return norm, nil
}

// set stores value at segs; nil removes the node. Caller holds the write lock.
func (s *Store) set(segs []string, value any) error {
	if len(segs) == 0 {
		switch t := value.(type) {
		case nil:
			s.root = map[string]any{}
		case map[string]any:
			s.root = t
		default:
			return fmt.Errorf("the tree root must be an object, got %T", value)
		}
		return nil
	}

	if value == nil {
		s.remove(segs)
		return nil
	}

	node := s.root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := node[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[seg] = next
		}
		node = next
	}
	node[segs[len(segs)-1]] = value
	return nil
}

func (s *Store) remove(segs []string) {
	parents := make([]map[string]any, 0, len(segs))
	node := s.root
	for _, seg := range segs[:len(segs)-1] {
		parents = append(parents, node)
		next, ok := node[seg].(map[string]any)
		if !ok {
			return
		}
		node = next
	}
	if _, ok := node[segs[len(segs)-1]]; !ok {
		return
	}
	delete(node, segs[len(segs)-1])

	// Prune ancestors left empty, deepest first.
	for i := len(parents) - 1; i >= 0 && len(node) == 0; i-- {
		delete(parents[i], segs[i])
		node = parents[i]
	}
}

var _ secondary.TreeStore = (*Store)(nil)
