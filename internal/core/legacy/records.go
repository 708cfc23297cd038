package legacy

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/core/tree"
)

// namespace seeds the deterministic ids given to legacy records that carry none.
var namespace = uuid.MustParse("6f1f7a4e-3c0b-4d59-9a51-2b8e4b0c9d17")

// SyntheticID derives a stable id from the location of a keyless record.
func SyntheticID(path string, index int) string {
	return uuid.NewSHA1(namespace, []byte(path+"#"+strconv.Itoa(index))).String()
}

// Item is one legacy record found under a source.
type Item struct {
	// Path is the tree path of the record.
	Path string
	// ID is the record id: its key, else its id field, else a synthetic id.
	ID string
	// Raw is the record exactly as stored.
	Raw schema.Record
	// Record is a copy of Raw enriched with the key bindings, the location
	// renames and the location defaults.
	Record schema.Record
}

// Records enumerates the records stored under s. v is the value read at s.Path.
// Children that are not objects are counted as skipped.
func (s Source) Records(v any) (items []Item, skipped int) {
	nesting := s.Nesting
	if len(nesting) == 0 {
		nesting = []string{"id"}
	}
	s.walk(tree.Clean(s.Path), v, nesting, map[string]string{}, &items, &skipped)
	return items, skipped
}

func (s Source) walk(path string, v any, nesting []string, bound map[string]string, items *[]Item, skipped *int) {
	field, rest := nesting[0], nesting[1:]

	visit := func(key string, index int, child any, keyed bool) {
		childPath := tree.Join(path, key)
		if !tree.IsObject(child) {
			*skipped++
			return
		}
		next := make(map[string]string, len(bound)+1)
		for k, val := range bound {
			next[k] = val
		}
		if keyed {
			next[field] = key
		}
		if len(rest) > 0 {
			s.walk(childPath, child, rest, next, items, skipped)
			return
		}
		raw := child.(map[string]any)
		rec := s.enrich(raw, next)
		id := next[field]
		if field == "id" {
			if id == "" {
				id = recordID(raw)
			}
			if id == "" {
				id = SyntheticID(path, index)
			}
			rec["id"] = id
		}
		*items = append(*items, Item{Path: childPath, ID: id, Raw: raw, Record: rec})
	}

	switch t := v.(type) {
	case map[string]any:
		for i, key := range tree.SortedKeys(t) {
			visit(key, i, t[key], true)
		}
	case []any:
		for i, child := range t {
			if child == nil {
				continue
			}
			visit(strconv.Itoa(i), i, child, false)
		}
	case nil:
	default:
		*skipped++
	}
}

func (s Source) enrich(raw map[string]any, bound map[string]string) schema.Record {
	rec, _ := tree.Clone(raw).(map[string]any)
	for from, to := range s.Fields {
		if v, ok := rec[from]; ok {
			if _, exists := rec[to]; !exists {
				rec[to] = v
			}
			delete(rec, from)
		}
	}
	for field, val := range bound {
		rec[field] = val
	}
	for field, val := range s.Set {
		if !schema.HasField(s.Kind, rec, field) {
			rec[field] = tree.Clone(val)
		}
	}
	return rec
}

func recordID(rec map[string]any) string {
	for _, k := range []string{"id", "uid", "_id"} {
		if s, ok := tree.String(rec[k]); ok && s != "" {
			return s
		}
	}
	return ""
}

// LegacyShapeError reports a legacy value that matched no known shape and was
// replaced by a placeholder.
type LegacyShapeError struct {
	Path   string
	Reason string
}

func (e *LegacyShapeError) Error() string {
	return fmt.Sprintf("unrecognized legacy shape at %s: %s", e.Path, e.Reason)
}
