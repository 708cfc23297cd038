package tree

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Leaf is one stored row of a flat tree backend: a full path and its JSON encoded value.
// Non-empty maps never appear as leaves; they are represented by their descendants.
// Lists are stored whole.
type Leaf struct {
	Path  string
	Value string
}

// Flatten converts the (normalized) value at path into leaves, sorted by path.
// Empty maps are kept as a "{}" leaf so that an explicitly written empty node survives.
func Flatten(path string, v any) ([]Leaf, error) {
	var leaves []Leaf
	if err := flatten(Clean(path), v, &leaves); err != nil {
		return nil, err
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].Path < leaves[j].Path })
	return leaves, nil
}

func flatten(path string, v any, out *[]Leaf) error {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok && len(m) > 0 {
		for k, child := range m {
			if !ValidKey(k) {
				return fmt.Errorf("invalid key %q under %q", k, path)
			}
			if err := flatten(Join(path, k), child, out); err != nil {
				return err
			}
		}
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode value at %q: %w", path, err)
	}
	*out = append(*out, Leaf{Path: path, Value: string(raw)})
	return nil
}

// Assemble rebuilds the value at base from the leaves at or under it.
// It reports false when no leaf belongs to base.
func Assemble(base string, leaves []Leaf) (any, bool, error) {
	base = Clean(base)
	var root any
	found := false
	for _, leaf := range leaves {
		rel, ok := Rel(base, leaf.Path)
		if !ok {
			continue
		}
		var val any
		if err := json.Unmarshal([]byte(leaf.Value), &val); err != nil {
			return nil, false, fmt.Errorf("failed to decode leaf %q: %w", leaf.Path, err)
		}
		found = true
		if rel == "" {
			root = val
			continue
		}
		m, ok := root.(map[string]any)
		if !ok {
			m = make(map[string]any)
			root = m
		}
		segs := Split(rel)
		for _, seg := range segs[:len(segs)-1] {
			next, ok := m[seg].(map[string]any)
			if !ok {
				next = make(map[string]any)
				m[seg] = next
			}
			m = next
		}
		m[segs[len(segs)-1]] = val
	}
	return root, found, nil
}
