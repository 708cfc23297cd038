package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/core/tree"
)

// decode converts a canonical record into its typed entity.
func decode[T any](rec schema.Record) (*T, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &out, nil
}

func decodeAll[T any](recs []schema.Record) ([]*T, error) {
	out := make([]*T, 0, len(recs))
	for _, rec := range recs {
		v, err := decode[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// readNode reads the object stored at path. Absent paths and non-objects yield nil.
func (r *Repository) readNode(ctx context.Context, path string) (schema.Record, error) {
	value, ok, err := r.store.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !ok {
		return nil, nil
	}
	rec, _ := tree.AsMap(value)
	return rec, nil
}

// readAs reads and decodes the object at path, or returns nil when it is absent.
func readAs[T any](ctx context.Context, r *Repository, path string) (*T, error) {
	rec, err := r.readNode(ctx, path)
	if err != nil || rec == nil {
		return nil, err
	}
	return decode[T](rec)
}

// copyRecord returns a shallow copy of rec so callers can add defaults without
// touching their input.
func copyRecord(rec schema.Record) schema.Record {
	out := make(schema.Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// mergeChanges shallow-merges changes over base. Legacy field names replace the
// canonical field instead of losing to it.
func mergeChanges(kind schema.Kind, base, changes schema.Record) schema.Record {
	merged := make(schema.Record, len(base)+len(changes))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range changes {
		if canonical, ok := schema.CanonicalName(kind, k); ok {
			k = canonical
		}
		merged[k] = v
	}
	return merged
}

func sortedSet(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
