package legacy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/core/tree"
)

// PlaceholderTitle is the title given to modules substituted for unreadable entries.
const PlaceholderTitle = "Unavailable module"

// EmbeddedModule is a module recovered from a course's embedded module list.
type EmbeddedModule struct {
	ID string
	// Record is the module to write, before standardization. It is nil for
	// entries that were already plain membership flags.
	Record      schema.Record
	Placeholder bool
}

// NeedsConversion reports whether a course's modules value is anything other
// than a membership map of flags.
func NeedsConversion(v any) bool {
	switch t := v.(type) {
	case []any:
		return true
	case map[string]any:
		for _, child := range t {
			if _, ok := child.(bool); !ok {
				return true
			}
		}
	}
	return false
}

// ConvertModules turns an embedded module list (array, or map of objects or
// references) into module records for courseID. String entries are resolved
// through lookup. Entries that cannot be resolved become placeholder modules and
// are reported as LegacyShapeErrors. Positions start at 1 and are used as the
// default order.
func ConvertModules(coursePath, courseID string, v any, lookup map[string]schema.Record) ([]EmbeddedModule, []*LegacyShapeError) {
	type entry struct {
		key   string
		keyed bool
		value any
	}
	var entries []entry
	switch t := v.(type) {
	case []any:
		for i, child := range t {
			entries = append(entries, entry{key: strconv.Itoa(i), value: child})
		}
	case map[string]any:
		for _, k := range tree.SortedKeys(t) {
			entries = append(entries, entry{key: k, keyed: true, value: t[k]})
		}
	default:
		return nil, nil
	}

	listPath := tree.Join(coursePath, "modules")
	var out []EmbeddedModule
	var shapeErrs []*LegacyShapeError
	for i, e := range entries {
		position := i + 1
		elemPath := tree.Join(listPath, e.key)

		switch val := e.value.(type) {
		case nil:
			continue
		case bool:
			if val && e.keyed {
				out = append(out, EmbeddedModule{ID: e.key})
			}
			continue
		case map[string]any:
			rec, _ := tree.Clone(val).(map[string]any)
			id := ""
			if e.keyed && !numeric(e.key) {
				id = e.key
			}
			if id == "" {
				id = recordID(val)
			}
			if id == "" {
				id = SyntheticID(listPath, i)
			}
			out = append(out, EmbeddedModule{ID: id, Record: moduleRecord(rec, id, courseID, position)})
			continue
		case string:
			ref := strings.TrimSpace(val)
			if found, ok := lookup[ref]; ok && ref != "" {
				rec, _ := tree.Clone(found).(map[string]any)
				out = append(out, EmbeddedModule{ID: ref, Record: moduleRecord(rec, ref, courseID, position)})
				continue
			}
			err := &LegacyShapeError{Path: elemPath, Reason: fmt.Sprintf("module reference %q not found", ref)}
			id := ref
			if id == "" || !tree.ValidKey(id) {
				id = SyntheticID(listPath, i)
			}
			out = append(out, placeholder(id, courseID, position, err))
			shapeErrs = append(shapeErrs, err)
		default:
			err := &LegacyShapeError{Path: elemPath, Reason: fmt.Sprintf("unsupported module entry of type %T", val)}
			out = append(out, placeholder(SyntheticID(listPath, i), courseID, position, err))
			shapeErrs = append(shapeErrs, err)
		}
	}
	return out, shapeErrs
}

func moduleRecord(rec schema.Record, id, courseID string, position int) schema.Record {
	rec["id"] = id
	rec["courseId"] = courseID
	hasOrder := false
	for _, name := range append([]string{"order"}, schema.Aliases(schema.KindModule)["order"]...) {
		if rec[name] != nil {
			hasOrder = true
			break
		}
	}
	if !hasOrder {
		rec["order"] = float64(position)
	}
	return rec
}

func placeholder(id, courseID string, position int, cause *LegacyShapeError) EmbeddedModule {
	return EmbeddedModule{
		ID: id,
		Record: schema.Record{
			"id":          id,
			"courseId":    courseID,
			"title":       PlaceholderTitle,
			"description": cause.Reason,
			"order":       float64(position),
			"placeholder": true,
		},
		Placeholder: true,
	}
}

func numeric(key string) bool {
	_, err := strconv.Atoi(key)
	return err == nil
}
