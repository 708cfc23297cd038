package schema

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/example/lms/internal/core/tree"
)

// Standardizer maps records of any legacy shape onto the canonical shape of a kind.
// It is total: absent or unusable fields get a type-appropriate default, and date
// defaults come from Now.
type Standardizer struct {
	Now func() time.Time
}

var defaultStandardizer = Standardizer{Now: time.Now}

// Standardize standardizes rec with the wall clock.
func Standardize(kind Kind, rec Record) Record {
	return defaultStandardizer.Standardize(kind, rec)
}

// Standardize returns the canonical record for kind. The input is never mutated and
// Standardize(Standardize(x)) equals Standardize(x). Unknown kinds are returned as a
// pruned deep copy.
func (s Standardizer) Standardize(kind Kind, rec Record) Record {
	switch kind {
	case KindUser:
		return ToRecord(s.User(rec))
	case KindCourse:
		return ToRecord(s.Course(rec))
	case KindModule:
		return ToRecord(s.Module(rec))
	case KindEvaluation:
		return ToRecord(s.Evaluation(rec))
	case KindEnrollment:
		return ToRecord(s.Enrollment(rec))
	case KindProgress:
		return ToRecord(s.Progress(rec))
	case KindFeedback:
		return ToRecord(s.Feedback(rec))
	}
	out, _ := tree.Prune(tree.Clone(rec)).(map[string]any)
	if out == nil {
		out = Record{}
	}
	return out
}

func (s Standardizer) now() string {
	if s.Now == nil {
		return Timestamp(time.Now())
	}
	return Timestamp(s.Now())
}

func (s Standardizer) fields(kind Kind, rec Record) fields {
	return fields{rec: rec, aliases: aliases[kind], now: s.now()}
}

func (s Standardizer) User(rec Record) User {
	f := s.fields(KindUser, rec)
	u := User{
		ID:        f.id("id"),
		FirstName: f.str("firstName"),
		LastName:  f.str("lastName"),
		Email:     strings.TrimSpace(f.str("email")),
		Role:      enum("role", f.str("role"), RoleStudent),
		CreatedAt: f.date("createdAt"),
		UpdatedAt: f.date("updatedAt"),
		Avatar:    f.str("avatar"),
	}
	if u.FirstName == "" && u.LastName == "" {
		for _, key := range []string{"name", "displayName", "nomComplet", "fullName"} {
			full, ok := tree.String(rec[key])
			if !ok || strings.TrimSpace(full) == "" {
				continue
			}
			first, last, _ := strings.Cut(strings.TrimSpace(full), " ")
			u.FirstName, u.LastName = first, strings.TrimSpace(last)
			break
		}
	}
	return u
}

func (s Standardizer) Course(rec Record) Course {
	f := s.fields(KindCourse, rec)
	c := Course{
		ID:           f.id("id"),
		Title:        f.str("title"),
		Description:  f.str("description"),
		Content:      f.str("content"),
		Duration:     f.str("duration"),
		Image:        f.str("image"),
		InstructorID: f.id("instructorId"),
		Category:     f.str("category"),
		Level:        enum("level", f.str("level"), LevelBeginner),
		Price:        f.num("price"),
		Rating:       f.num("rating"),
		TotalRatings: f.integer("totalRatings"),
		CreatedAt:    f.date("createdAt"),
		UpdatedAt:    f.date("updatedAt"),
		Modules:      map[string]bool{},
	}
	if v, ok := f.value("modules"); ok {
		for _, id := range MembershipIDs(v) {
			c.Modules[id] = true
		}
	}
	return c
}

// MembershipIDs extracts the member ids of a membership value: a map of
// {id: true} (false entries are dropped), a map of objects, or a list of ids or objects.
func MembershipIDs(v any) []string {
	var ids []string
	switch t := v.(type) {
	case map[string]any:
		for _, k := range tree.SortedKeys(t) {
			if b, ok := t[k].(bool); ok && !b {
				continue
			}
			if t[k] == nil {
				continue
			}
			ids = append(ids, k)
		}
	case []any:
		for _, item := range t {
			if id := refID(item); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (s Standardizer) Module(rec Record) Module {
	f := s.fields(KindModule, rec)
	m := Module{
		ID:          f.id("id"),
		CourseID:    f.id("courseId"),
		Title:       f.str("title"),
		Description: f.str("description"),
		Order:       f.integer("order"),
		Content:     f.str("content"),
		Duration:    f.str("duration"),
		Resources:   []Resource{},
		CreatedAt:   f.date("createdAt"),
		UpdatedAt:   f.date("updatedAt"),
	}
	if b, ok := tree.Bool(rec["placeholder"]); ok {
		m.Placeholder = b
	}
	if v, ok := f.value("resources"); ok {
		m.Resources = resources(v)
	}
	return m
}

func resources(v any) []Resource {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case map[string]any:
		for _, k := range tree.SortedKeys(t) {
			items = append(items, t[k])
		}
	}
	out := []Resource{}
	for _, item := range items {
		switch r := item.(type) {
		case map[string]any:
			f := fields{rec: r, aliases: resourceAliases}
			out = append(out, Resource{
				Title: f.str("title"),
				Type:  enum("resourceType", f.str("type"), ResourceLink),
				URL:   strings.TrimSpace(f.str("url")),
			})
		case string:
			if strings.TrimSpace(r) != "" {
				out = append(out, Resource{Type: ResourceLink, URL: strings.TrimSpace(r)})
			}
		}
	}
	return out
}

func (s Standardizer) Evaluation(rec Record) Evaluation {
	f := s.fields(KindEvaluation, rec)
	e := Evaluation{
		ID:           f.id("id"),
		ModuleID:     f.id("moduleId"),
		Title:        f.str("title"),
		Type:         enum("evaluationType", f.str("type"), EvaluationQuiz),
		Description:  f.str("description"),
		Questions:    []any{},
		MaxScore:     f.num("maxScore"),
		PassingScore: f.num("passingScore"),
		CreatedAt:    f.date("createdAt"),
		UpdatedAt:    f.date("updatedAt"),
	}
	if v, ok := f.value("questions"); ok {
		switch t := v.(type) {
		case []any:
			e.Questions, _ = tree.Clone(t).([]any)
		case map[string]any:
			for _, k := range tree.SortedKeys(t) {
				e.Questions = append(e.Questions, tree.Clone(t[k]))
			}
		}
	}
	return e
}

func (s Standardizer) Enrollment(rec Record) Enrollment {
	f := s.fields(KindEnrollment, rec)
	return Enrollment{
		UserID:     f.id("userId"),
		CourseID:   f.id("courseId"),
		EnrolledAt: f.date("enrolledAt"),
		Status:     enum("status", f.str("status"), StatusActive),
	}
}

func (s Standardizer) Progress(rec Record) Progress {
	f := s.fields(KindProgress, rec)
	p := Progress{
		CourseID:    f.id("courseId"),
		UserID:      f.id("userId"),
		StartDate:   f.date("startDate"),
		Progress:    f.num("progress"),
		Completed:   f.boolean("completed"),
		LastUpdated: f.date("lastUpdated"),
		Score:       f.num("score"),
		Modules:     map[string]ModuleProgress{},
		Details:     ProgressDetails{ModuleScores: map[string]float64{}},
	}

	// Flattened legacy entries first so an explicit modules map wins.
	for _, key := range tree.SortedKeys(rec) {
		if IsProgressScalar(key) || !tree.IsObject(rec[key]) {
			continue
		}
		p.Modules[key] = s.moduleProgress(key, rec[key], f.now)
	}
	switch t := rec["modules"].(type) {
	case map[string]any:
		for _, key := range tree.SortedKeys(t) {
			if t[key] == nil {
				continue
			}
			p.Modules[key] = s.moduleProgress(key, t[key], f.now)
		}
	case []any:
		for _, item := range t {
			entry := s.moduleProgress("", item, f.now)
			if entry.ModuleID != "" {
				p.Modules[entry.ModuleID] = entry
			}
		}
	}

	if d, ok := tree.AsMap(rec["details"]); ok {
		df := fields{rec: d}
		p.Details.CompletedModules = df.integer("completedModules")
		p.Details.TotalModules = df.integer("totalModules")
		if scores, ok := tree.AsMap(d["moduleScores"]); ok {
			for k, v := range scores {
				if n, ok := tree.Number(v); ok {
					p.Details.ModuleScores[k] = n
				}
			}
		}
	}
	return p
}

func (s Standardizer) moduleProgress(key string, v any, now string) ModuleProgress {
	entry := ModuleProgress{ModuleID: key, LastUpdated: now}
	switch t := v.(type) {
	case map[string]any:
		f := fields{rec: t, aliases: moduleProgressAliases, now: now}
		if id := f.id("moduleId"); id != "" && key == "" {
			entry.ModuleID = id
		}
		entry.Completed = f.boolean("completed")
		entry.Score = f.num("score")
		entry.LastUpdated = f.date("lastUpdated")
	default:
		if b, ok := tree.Bool(v); ok {
			entry.Completed = b
		}
	}
	return entry
}

func (s Standardizer) Feedback(rec Record) Feedback {
	f := s.fields(KindFeedback, rec)
	return Feedback{
		ID:        f.id("id"),
		UserID:    f.id("userId"),
		CourseID:  f.id("courseId"),
		Rating:    f.num("rating"),
		Comment:   f.str("comment"),
		CreatedAt: f.date("createdAt"),
	}
}

// fields reads canonical fields out of a legacy record through an alias table.
type fields struct {
	rec     Record
	aliases fieldAliases
	now     string
}

func (f fields) value(canonical string) (any, bool) {
	names := []string{canonical}
	if f.aliases != nil {
		names = f.aliases.names(canonical)
	}
	for _, name := range names {
		if v, ok := f.rec[name]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (f fields) str(canonical string) string {
	v, ok := f.value(canonical)
	if !ok {
		return ""
	}
	s, _ := tree.String(v)
	return s
}

// id reads an identifier. Embedded objects ({id: "u1", nom: ...}) yield their id.
func (f fields) id(canonical string) string {
	v, ok := f.value(canonical)
	if !ok {
		return ""
	}
	return refID(v)
}

func refID(v any) string {
	if m, ok := tree.AsMap(v); ok {
		for _, k := range []string{"id", "uid", "_id"} {
			if s, ok := tree.String(m[k]); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		return ""
	}
	s, _ := tree.String(v)
	return strings.TrimSpace(s)
}

func (f fields) num(canonical string) float64 {
	v, ok := f.value(canonical)
	if !ok {
		return 0
	}
	n, _ := tree.Number(v)
	return n
}

func (f fields) integer(canonical string) int {
	return int(math.Round(f.num(canonical)))
}

func (f fields) boolean(canonical string) bool {
	v, ok := f.value(canonical)
	if !ok {
		return false
	}
	b, _ := tree.Bool(v)
	return b
}

// date keeps string dates verbatim, converts epoch numbers and defaults to now.
func (f fields) date(canonical string) string {
	v, ok := f.value(canonical)
	if !ok {
		return f.now
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) != "" {
			return t
		}
	default:
		if n, ok := tree.Number(t); ok && n > 0 {
			if n >= 1e11 {
				return Timestamp(time.UnixMilli(int64(n)))
			}
			return Timestamp(time.Unix(int64(n), 0))
		}
	}
	return f.now
}

// StringList reads a list of strings from a list, a membership map or a comma separated string.
func StringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := tree.String(item); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range t {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case map[string]any:
		out = append(out, MembershipIDs(t)...)
	case string:
		for _, part := range strings.Split(t, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// AppendUnique appends v to list unless it is already there.
func AppendUnique(list []string, v string) ([]string, bool) {
	if contains(list, v) {
		return list, false
	}
	return append(list, v), true
}

// Remove drops every occurrence of v from list.
func Remove(list []string, v string) ([]string, bool) {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out, len(out) != len(list)
}

// SortModules orders modules for display: order, then createdAt, then id.
func SortModules(modules []Module) {
	sort.SliceStable(modules, func(i, j int) bool {
		a, b := modules[i], modules[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})
}
