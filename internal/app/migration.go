package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/lms/internal/core/legacy"
	"github.com/example/lms/internal/core/progress"
	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/core/tree"
	"github.com/example/lms/internal/ports/primary"
)

// canonicalCollections are removed by a reset, in this order. Run history under
// meta is kept.
var canonicalCollections = []string{
	schema.CollectionUsers,
	schema.CollectionStudents,
	schema.CollectionInstructors,
	schema.CollectionAdmins,
	schema.CollectionCourses,
	schema.CollectionModules,
	schema.CollectionEvaluations,
	schema.CollectionEnrollments,
	schema.CollectionProgress,
	schema.CollectionFeedback,
}

// carried lists the fields kept from the existing canonical record when the
// legacy record lacks them, so that repeated runs converge.
func carried(kind schema.Kind) []string {
	fields := kind.DateFields()
	switch kind {
	case schema.KindModule:
		fields = append(fields, "courseId", "order")
	case schema.KindEvaluation:
		fields = append(fields, "moduleId")
	}
	return fields
}

// migrator rewrites every legacy source into the canonical layout, one stage
// per kind.
type migrator struct {
	repo  *Repository
	table *legacy.Table
	run   *runLog

	moduleLookup map[string]schema.Record
}

func (m *migrator) migrate(ctx context.Context) error {
	stages := []struct {
		kind schema.Kind
		fn   func(context.Context, legacy.Item, *primary.StageReport) error
	}{
		{schema.KindUser, m.user},
		{schema.KindCourse, m.course},
		{schema.KindModule, m.module},
		{schema.KindEvaluation, m.evaluation},
		{schema.KindEnrollment, m.enrollment},
		{schema.KindProgress, m.progress},
		{schema.KindFeedback, m.feedback},
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := m.run.stage(stage.kind.Collection())
		touched := map[string]bool{}
		for _, src := range m.table.For(stage.kind) {
			items, skipped, err := m.read(ctx, src)
			if err != nil {
				return err
			}
			if skipped > 0 {
				st.Skipped += skipped
				m.run.warnf("%s: %d non-object entries skipped", src.Path, skipped)
			}
			for _, item := range items {
				st.Processed++
				if err := stage.fn(ctx, item, st); err != nil {
					return fmt.Errorf("%s %s: %w", stage.kind, item.Path, err)
				}
				touched[touchKey(stage.kind, item.Record)] = true
			}
		}
		if err := m.finish(ctx, stage.kind, touched); err != nil {
			return err
		}
		m.run.done(st)
	}
	return nil
}

func (m *migrator) read(ctx context.Context, src legacy.Source) ([]legacy.Item, int, error) {
	value, ok, err := m.repo.store.Read(ctx, src.Path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", src.Path, err)
	}
	if !ok {
		return nil, 0, nil
	}
	items, skipped := src.Records(value)
	return items, skipped, nil
}

// touchKey names what a stage must refresh once all its records are written.
func touchKey(kind schema.Kind, rec schema.Record) string {
	switch kind {
	case schema.KindProgress:
		id, _ := rec["userId"].(string)
		return id
	case schema.KindFeedback:
		id, _ := schema.Standardize(schema.KindFeedback, rec)["courseId"].(string)
		return id
	}
	return ""
}

// finish recomputes the aggregates a stage invalidated.
func (m *migrator) finish(ctx context.Context, kind schema.Kind, touched map[string]bool) error {
	for _, key := range sortedSet(touched) {
		if key == "" {
			continue
		}
		switch kind {
		case schema.KindProgress:
			if err := m.repo.refreshStudentProgress(ctx, key); err != nil {
				return err
			}
		case schema.KindFeedback:
			if err := m.repo.refreshCourseRating(ctx, key); err != nil {
				return err
			}
		}
	}
	return nil
}

// put standardizes rec and writes it at path unconditionally. Validation
// problems are reported but never block the write.
func (m *migrator) put(ctx context.Context, kind schema.Kind, path string, rec schema.Record, st *primary.StageReport) (schema.Record, error) {
	existing, err := m.repo.readNode(ctx, path)
	if err != nil {
		return nil, err
	}
	rec = carryOver(kind, existing, rec)
	canonical := m.repo.standardizer.Standardize(kind, rec)
	m.check(kind, path, canonical, st)
	if err := m.repo.store.Write(ctx, path, canonical); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	st.Written++
	return canonical, nil
}

func (m *migrator) check(kind schema.Kind, path string, canonical schema.Record, st *primary.StageReport) {
	if res := schema.Validate(kind, canonical); !res.IsValid {
		st.Invalid++
		m.run.warnf("%s: %s", path, strings.Join(res.Errors, "; "))
	}
}

func carryOver(kind schema.Kind, existing, rec schema.Record) schema.Record {
	out := copyRecord(rec)
	if existing == nil {
		return out
	}
	for _, field := range carried(kind) {
		if !schema.HasField(kind, rec, field) && existing[field] != nil {
			out[field] = existing[field]
		}
	}
	return out
}

func (m *migrator) user(ctx context.Context, item legacy.Item, st *primary.StageReport) error {
	rec := copyRecord(item.Record)
	rec["id"] = item.ID
	canonical, err := m.put(ctx, schema.KindUser, m.repo.Path(schema.CollectionUsers, item.ID), rec, st)
	if err != nil {
		return err
	}
	role, _ := canonical["role"].(string)
	if err := m.repo.ensureSatellite(ctx, role, item.ID); err != nil {
		return err
	}

	switch role {
	case schema.RoleInstructor:
		bio, hasBio := firstString(item.Raw, "bio", "biographie", "presentation")
		expertise, hasExpertise := firstValue(item.Raw, "expertise", "specialites", "spécialités", "competences")
		if !hasBio && !hasExpertise {
			return nil
		}
		return m.repo.updateInstructor(ctx, item.ID, func(inst *schema.Instructor) bool {
			if hasBio {
				inst.Bio = bio
			}
			if hasExpertise {
				inst.Expertise = schema.StringList(expertise)
			}
			return true
		})
	case schema.RoleAdmin:
		perms, ok := firstValue(item.Raw, "permissions", "droits")
		if !ok {
			return nil
		}
		path := tree.Join(m.repo.satellitePath(schema.RoleAdmin, item.ID), "permissions")
		if err := m.repo.store.Write(ctx, path, schema.StringList(perms)); err != nil {
			return fmt.Errorf("failed to write permissions of %s: %w", item.ID, err)
		}
	}
	return nil
}

func (m *migrator) course(ctx context.Context, item legacy.Item, st *primary.StageReport) error {
	courseID := item.ID
	rec := copyRecord(item.Record)
	rec["id"] = courseID

	var lifted []legacy.EmbeddedModule
	if key, value, ok := firstKey(rec, legacy.CourseModuleKeys...); ok && legacy.NeedsConversion(value) {
		lookup, err := m.modules(ctx)
		if err != nil {
			return err
		}
		converted, shapeErrs := legacy.ConvertModules(item.Path, courseID, value, lookup)
		membership := map[string]any{}
		for _, c := range converted {
			membership[c.ID] = true
			if c.Record != nil {
				lifted = append(lifted, c)
			}
		}
		for _, shapeErr := range shapeErrs {
			st.Placeholders++
			m.run.warnf("%v", shapeErr)
		}
		delete(rec, key)
		rec["modules"] = membership
	}

	var embedded []schema.Record
	for _, key := range legacy.CourseEnrollmentKeys {
		if v, ok := rec[key]; ok {
			records, skipped := legacy.EmbeddedEnrollments(courseID, v)
			embedded = append(embedded, records...)
			st.Skipped += skipped
			delete(rec, key)
		}
	}

	canonical, err := m.put(ctx, schema.KindCourse, m.repo.Path(schema.CollectionCourses, courseID), rec, st)
	if err != nil {
		return err
	}
	instructorID, _ := canonical["instructorId"].(string)
	if err := m.repo.attachCourse(ctx, instructorID, courseID); err != nil {
		return err
	}

	for _, mod := range lifted {
		path := m.repo.Path(schema.CollectionModules, mod.ID)
		if mod.Placeholder {
			existing, err := m.repo.readNode(ctx, path)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
		}
		if _, err := m.put(ctx, schema.KindModule, path, mod.Record, st); err != nil {
			return err
		}
		if err := m.liftEvaluations(ctx, path, mod.ID, mod.Record, st); err != nil {
			return err
		}
	}

	for _, rec := range embedded {
		if err := m.putEnrollment(ctx, rec, st); err != nil {
			return err
		}
	}
	return nil
}

// modules indexes the legacy module records by id for resolving course references.
func (m *migrator) modules(ctx context.Context) (map[string]schema.Record, error) {
	if m.moduleLookup != nil {
		return m.moduleLookup, nil
	}
	lookup := map[string]schema.Record{}
	for _, src := range m.table.For(schema.KindModule) {
		items, _, err := m.read(ctx, src)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			lookup[item.ID] = item.Record
		}
	}
	m.moduleLookup = lookup
	return lookup, nil
}

func (m *migrator) module(ctx context.Context, item legacy.Item, st *primary.StageReport) error {
	rec := copyRecord(item.Record)
	rec["id"] = item.ID
	path := m.repo.Path(schema.CollectionModules, item.ID)
	canonical, err := m.put(ctx, schema.KindModule, path, rec, st)
	if err != nil {
		return err
	}

	courseID, _ := canonical["courseId"].(string)
	if courseID != "" {
		course, err := m.repo.readNode(ctx, m.repo.Path(schema.CollectionCourses, courseID))
		if err != nil {
			return err
		}
		if course == nil {
			m.run.warnf("%s: course %s does not exist, membership not registered", item.Path, courseID)
		} else if err := m.repo.registerModule(ctx, courseID, item.ID); err != nil {
			return err
		}
	}
	return m.liftEvaluations(ctx, path, item.ID, item.Raw, st)
}

// liftEvaluations writes the evaluations embedded in a legacy module record.
func (m *migrator) liftEvaluations(ctx context.Context, modulePath, moduleID string, raw schema.Record, st *primary.StageReport) error {
	for _, key := range legacy.ModuleEvaluationKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		items, skipped := legacy.EmbeddedEvaluations(modulePath, key, moduleID, v)
		st.Skipped += skipped
		for _, item := range items {
			if _, err := m.put(ctx, schema.KindEvaluation, m.repo.Path(schema.CollectionEvaluations, moduleID, item.ID), item.Record, st); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *migrator) evaluation(ctx context.Context, item legacy.Item, st *primary.StageReport) error {
	rec := copyRecord(item.Record)
	rec["id"] = item.ID
	moduleID := m.repo.standardizer.Evaluation(rec).ModuleID
	if moduleID == "" {
		st.Skipped++
		m.run.warnf("%s: evaluation without module skipped", item.Path)
		return nil
	}
	_, err := m.put(ctx, schema.KindEvaluation, m.repo.Path(schema.CollectionEvaluations, moduleID, item.ID), rec, st)
	return err
}

func (m *migrator) enrollment(ctx context.Context, item legacy.Item, st *primary.StageReport) error {
	return m.putEnrollment(ctx, item.Record, st)
}

// putEnrollment writes both index copies of an enrollment and registers it on
// the student satellite.
func (m *migrator) putEnrollment(ctx context.Context, rec schema.Record, st *primary.StageReport) error {
	draft := m.repo.standardizer.Enrollment(rec)
	if draft.UserID == "" || draft.CourseID == "" {
		st.Skipped++
		m.run.warnf("enrollment without user or course skipped (user %q, course %q)", draft.UserID, draft.CourseID)
		return nil
	}

	_, byUser := m.repo.enrollmentPaths(draft.UserID, draft.CourseID)
	existing, err := m.repo.readNode(ctx, byUser)
	if err != nil {
		return err
	}
	canonical := m.repo.standardizer.Standardize(schema.KindEnrollment, carryOver(schema.KindEnrollment, existing, rec))
	m.check(schema.KindEnrollment, byUser, canonical, st)

	enrollment, err := decode[schema.Enrollment](canonical)
	if err != nil {
		return err
	}
	if err := m.repo.writeEnrollment(ctx, *enrollment); err != nil {
		return err
	}
	st.Written++
	return m.repo.updateStudentEnrollments(ctx, enrollment.UserID, false, func(list []string) ([]string, bool) {
		return schema.AppendUnique(list, enrollment.CourseID)
	})
}

func (m *migrator) progress(ctx context.Context, item legacy.Item, st *primary.StageReport) error {
	rec := item.Record
	userID, _ := rec["userId"].(string)
	courseID, _ := rec["courseId"].(string)
	if userID == "" || courseID == "" {
		st.Skipped++
		m.run.warnf("%s: progress without user or course skipped", item.Path)
		return nil
	}

	path := m.repo.Path(schema.CollectionProgress, userID, courseID)
	existing, err := m.repo.readNode(ctx, path)
	if err != nil {
		return err
	}
	p := m.repo.standardizer.Progress(carryOver(schema.KindProgress, existing, rec))
	if existing != nil {
		before := m.repo.standardizer.Progress(existing)
		for id, entry := range p.Modules {
			prev, ok := before.Modules[id]
			if ok && !moduleEntryDated(rec, id) {
				entry.LastUpdated = prev.LastUpdated
				p.Modules[id] = entry
			}
		}
	}
	if len(p.Modules) > 0 {
		p = progress.Recalculate(p, "")
	}

	canonical := schema.ToRecord(p)
	m.check(schema.KindProgress, path, canonical, st)
	if err := m.repo.store.Write(ctx, path, canonical); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	st.Written++
	return nil
}

// moduleEntryDated reports whether the module entry id of a legacy progress
// node carries its own timestamp, either under modules or as a flattened sibling.
func moduleEntryDated(rec schema.Record, id string) bool {
	if modules, ok := tree.AsMap(rec["modules"]); ok && schema.ModuleProgressDated(modules[id]) {
		return true
	}
	return schema.ModuleProgressDated(rec[id])
}

func (m *migrator) feedback(ctx context.Context, item legacy.Item, st *primary.StageReport) error {
	rec := copyRecord(item.Record)
	rec["id"] = item.ID
	courseID := m.repo.standardizer.Feedback(rec).CourseID
	if courseID == "" {
		st.Skipped++
		m.run.warnf("%s: feedback without course skipped", item.Path)
		return nil
	}
	_, err := m.put(ctx, schema.KindFeedback, m.repo.Path(schema.CollectionFeedback, courseID, item.ID), rec, st)
	return err
}

func firstKey(rec schema.Record, keys ...string) (string, any, bool) {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return k, v, true
		}
	}
	return "", nil, false
}

func firstValue(rec schema.Record, keys ...string) (any, bool) {
	_, v, ok := firstKey(rec, keys...)
	return v, ok
}

func firstString(rec schema.Record, keys ...string) (string, bool) {
	v, ok := firstValue(rec, keys...)
	if !ok {
		return "", false
	}
	return tree.String(v)
}
