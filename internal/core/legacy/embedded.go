package legacy

import (
	"strconv"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/core/tree"
)

// CourseEnrollmentKeys are the course fields that historically held the enrolled users.
var CourseEnrollmentKeys = []string{"enrollments", "inscriptions", "inscrits", "etudiants", "students"}

// ModuleEvaluationKeys are the module fields that historically held evaluations.
var ModuleEvaluationKeys = []string{"evaluations", "quiz", "devoirs"}

// CourseModuleKeys are the course fields that may hold the module list.
var CourseModuleKeys = []string{"modules", "chapitres"}

// EmbeddedEnrollments reads the enrollments embedded in a course. The value may be
// a map keyed by user id (objects or flags) or a list of user ids or objects.
// Entries that name no user are counted as skipped.
func EmbeddedEnrollments(courseID string, v any) (records []schema.Record, skipped int) {
	add := func(userID string, entry any) {
		rec := schema.Record{}
		if m, ok := tree.AsMap(entry); ok {
			rec, _ = tree.Clone(m).(map[string]any)
		}
		if userID == "" {
			userID, _ = schema.Standardize(schema.KindEnrollment, rec)["userId"].(string)
		}
		if userID == "" {
			skipped++
			return
		}
		rec["userId"] = userID
		rec["courseId"] = courseID
		records = append(records, rec)
	}

	switch t := v.(type) {
	case map[string]any:
		for _, key := range tree.SortedKeys(t) {
			switch entry := t[key].(type) {
			case bool:
				if entry {
					add(key, nil)
				}
			case map[string]any:
				add(key, entry)
			default:
				skipped++
			}
		}
	case []any:
		for _, item := range t {
			switch entry := item.(type) {
			case string:
				add(entry, nil)
			case map[string]any:
				add("", entry)
			case nil:
			default:
				skipped++
			}
		}
	case nil:
	default:
		skipped++
	}
	return records, skipped
}

// EmbeddedEvaluations reads the evaluations embedded in a module stored at
// modulePath under key. Keyed entries take their key as id; list entries their
// own id, else a synthetic one. Non-objects are counted as skipped.
func EmbeddedEvaluations(modulePath, key, moduleID string, v any) (items []Item, skipped int) {
	listPath := tree.Join(modulePath, key)
	visit := func(childKey string, index int, child any, keyed bool) {
		raw, ok := tree.AsMap(child)
		if !ok {
			skipped++
			return
		}
		id := ""
		if keyed {
			id = childKey
		}
		if id == "" {
			id = recordID(raw)
		}
		if id == "" {
			id = SyntheticID(listPath, index)
		}
		rec, _ := tree.Clone(raw).(map[string]any)
		rec["id"] = id
		rec["moduleId"] = moduleID
		items = append(items, Item{Path: tree.Join(listPath, childKey), ID: id, Raw: raw, Record: rec})
	}

	switch t := v.(type) {
	case map[string]any:
		for i, k := range tree.SortedKeys(t) {
			visit(k, i, t[k], true)
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
		skipped++
	}
	return items, skipped
}
