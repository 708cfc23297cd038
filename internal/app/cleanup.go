package app

import (
	"context"
	"fmt"

	"github.com/example/lms/internal/core/legacy"
	"github.com/example/lms/internal/core/progress"
	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/core/tree"
	"github.com/example/lms/internal/ports/primary"
)

// cleaner lifts embedded legacy shapes into the canonical layout and finally
// removes the obsolete legacy roots.
type cleaner struct {
	repo   *Repository
	table  *legacy.Table
	run    *runLog
	dryRun bool
	force  bool
}

func (c *cleaner) clean(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context, *primary.StageReport) error
	}{
		{"course-enrollments", c.courseEnrollments},
		{"enrollments", c.enrollments},
		{"modules", c.modules},
		{"evaluations", c.evaluations},
		{"progress", c.progress},
		{"obsolete", c.obsolete},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := c.run.stage(step.name)
		if err := step.fn(ctx, st); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		c.run.done(st)
	}
	return nil
}

// courseLocations lists the canonical course collection followed by the legacy ones.
func (c *cleaner) courseLocations() []string {
	canonical := c.repo.Path(schema.CollectionCourses)
	locations := []string{canonical}
	for _, p := range c.table.Cleanup.Courses {
		if p = tree.Clean(p); p != canonical {
			locations = append(locations, p)
		}
	}
	return locations
}

// eachCourse calls fn for every course object found in any course location.
func (c *cleaner) eachCourse(ctx context.Context, st *primary.StageReport, fn func(location, path, id string, course schema.Record) error) error {
	for _, location := range c.courseLocations() {
		courses, err := c.repo.readNode(ctx, location)
		if err != nil {
			return err
		}
		for _, id := range tree.SortedKeys(courses) {
			course, ok := tree.AsMap(courses[id])
			if !ok {
				st.Skipped++
				c.run.warnf("%s/%s: course is not an object, skipped", location, id)
				continue
			}
			if err := fn(location, tree.Join(location, id), id, course); err != nil {
				return err
			}
		}
	}
	return nil
}

// lift writes an enrollment to whichever index lacks it.
func (c *cleaner) lift(ctx context.Context, rec schema.Record, origin string, st *primary.StageReport) error {
	st.Processed++
	e := c.repo.standardizer.Enrollment(rec)
	if e.UserID == "" || e.CourseID == "" {
		st.Skipped++
		c.run.warnf("%s: enrollment without user or course skipped", origin)
		return nil
	}
	written, err := c.repo.liftEnrollment(ctx, e, true)
	if err != nil {
		return err
	}
	if written {
		st.Written++
	}
	return nil
}

func (c *cleaner) courseEnrollments(ctx context.Context, st *primary.StageReport) error {
	return c.eachCourse(ctx, st, func(_, path, id string, course schema.Record) error {
		for _, key := range legacy.CourseEnrollmentKeys {
			v, ok := course[key]
			if !ok {
				continue
			}
			records, skipped := legacy.EmbeddedEnrollments(id, v)
			st.Skipped += skipped
			for _, rec := range records {
				if err := c.lift(ctx, rec, tree.Join(path, key), st); err != nil {
					return err
				}
			}
			if err := c.repo.store.Delete(ctx, tree.Join(path, key)); err != nil {
				return fmt.Errorf("failed to remove embedded enrollments of %s: %w", path, err)
			}
		}
		return nil
	})
}

func (c *cleaner) enrollments(ctx context.Context, st *primary.StageReport) error {
	for _, src := range c.table.Cleanup.Enrollments {
		value, ok, err := c.repo.store.Read(ctx, src.Path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", src.Path, err)
		}
		if !ok {
			continue
		}
		items, skipped := src.Records(value)
		st.Skipped += skipped
		for _, item := range items {
			if err := c.lift(ctx, item.Record, item.Path, st); err != nil {
				return err
			}
		}
	}
	return nil
}

// moduleLookup indexes legacy module records by id. Canonical modules win.
func (c *cleaner) moduleLookup(ctx context.Context) (map[string]schema.Record, error) {
	lookup := map[string]schema.Record{}
	locations := append(append([]string{}, c.table.Cleanup.Modules...), c.repo.Path(schema.CollectionModules))
	for _, location := range locations {
		modules, err := c.repo.readNode(ctx, location)
		if err != nil {
			return nil, err
		}
		for id, v := range modules {
			if rec, ok := tree.AsMap(v); ok {
				lookup[id] = rec
			}
		}
	}
	return lookup, nil
}

func (c *cleaner) modules(ctx context.Context, st *primary.StageReport) error {
	lookup, err := c.moduleLookup(ctx)
	if err != nil {
		return err
	}
	canonicalCourses := c.repo.Path(schema.CollectionCourses)

	return c.eachCourse(ctx, st, func(location, path, id string, course schema.Record) error {
		key, value, ok := firstKey(course, legacy.CourseModuleKeys...)
		if !ok || !legacy.NeedsConversion(value) {
			return nil
		}
		converted, shapeErrs := legacy.ConvertModules(path, id, value, lookup)
		for _, shapeErr := range shapeErrs {
			st.Placeholders++
			c.run.warnf("%v", shapeErr)
		}

		membership := map[string]any{}
		for _, mod := range converted {
			membership[mod.ID] = true
			if mod.Record == nil {
				continue
			}
			st.Processed++
			if err := c.writeModule(ctx, mod, st); err != nil {
				return err
			}
		}

		if key != "modules" {
			if err := c.repo.store.Delete(ctx, tree.Join(path, key)); err != nil {
				return fmt.Errorf("failed to remove %s/%s: %w", path, key, err)
			}
		}
		if err := c.repo.store.Write(ctx, tree.Join(path, "modules"), membership); err != nil {
			return fmt.Errorf("failed to rewrite modules of %s: %w", path, err)
		}

		if location == canonicalCourses {
			return nil
		}
		canonical, err := c.repo.readNode(ctx, tree.Join(canonicalCourses, id))
		if err != nil || canonical == nil {
			return err
		}
		for _, moduleID := range tree.SortedKeys(membership) {
			if err := c.repo.registerModule(ctx, id, moduleID); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeModule writes a converted module under its own id. Embedded evaluations
// are kept on the written module for the evaluation step.
func (c *cleaner) writeModule(ctx context.Context, mod legacy.EmbeddedModule, st *primary.StageReport) error {
	path := c.repo.Path(schema.CollectionModules, mod.ID)
	existing, err := c.repo.readNode(ctx, path)
	if err != nil {
		return err
	}
	if mod.Placeholder && existing != nil {
		return nil
	}

	canonical := c.repo.standardizer.Standardize(schema.KindModule, carryOver(schema.KindModule, existing, mod.Record))
	for _, key := range legacy.ModuleEvaluationKeys {
		if v, ok := mod.Record[key]; ok {
			canonical[key] = v
		}
	}
	if err := c.repo.store.Write(ctx, path, canonical); err != nil {
		return fmt.Errorf("failed to write module %s: %w", mod.ID, err)
	}
	st.Written++
	return nil
}

// putIfAbsent writes a standardized evaluation unless one is already stored.
func (c *cleaner) putIfAbsent(ctx context.Context, moduleID string, item legacy.Item, st *primary.StageReport) error {
	path := c.repo.Path(schema.CollectionEvaluations, moduleID, item.ID)
	existing, err := c.repo.readNode(ctx, path)
	if err != nil || existing != nil {
		return err
	}
	rec := copyRecord(item.Record)
	rec["id"] = item.ID
	rec["moduleId"] = moduleID
	canonical := c.repo.standardizer.Standardize(schema.KindEvaluation, rec)
	if err := c.repo.store.Write(ctx, path, canonical); err != nil {
		return fmt.Errorf("failed to write evaluation %s: %w", path, err)
	}
	st.Written++
	return nil
}

func (c *cleaner) evaluations(ctx context.Context, st *primary.StageReport) error {
	modulesPath := c.repo.Path(schema.CollectionModules)
	modules, err := c.repo.readNode(ctx, modulesPath)
	if err != nil {
		return err
	}
	for _, moduleID := range tree.SortedKeys(modules) {
		module, ok := tree.AsMap(modules[moduleID])
		if !ok {
			continue
		}
		path := tree.Join(modulesPath, moduleID)
		for _, key := range legacy.ModuleEvaluationKeys {
			v, ok := module[key]
			if !ok {
				continue
			}
			items, skipped := legacy.EmbeddedEvaluations(path, key, moduleID, v)
			st.Skipped += skipped
			for _, item := range items {
				st.Processed++
				if err := c.putIfAbsent(ctx, moduleID, item, st); err != nil {
					return err
				}
			}
			if err := c.repo.store.Delete(ctx, tree.Join(path, key)); err != nil {
				return fmt.Errorf("failed to remove embedded evaluations of %s: %w", path, err)
			}
		}
	}

	for _, src := range c.table.Cleanup.Evaluations {
		value, ok, err := c.repo.store.Read(ctx, src.Path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", src.Path, err)
		}
		if !ok {
			continue
		}
		items, skipped := src.Records(value)
		st.Skipped += skipped
		for _, item := range items {
			st.Processed++
			moduleID := c.repo.standardizer.Evaluation(item.Record).ModuleID
			if moduleID == "" {
				st.Skipped++
				c.run.warnf("%s: evaluation without module skipped", item.Path)
				continue
			}
			if err := c.putIfAbsent(ctx, moduleID, item, st); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *cleaner) progress(ctx context.Context, st *primary.StageReport) error {
	touched := map[string]bool{}
	base := c.repo.Path(schema.CollectionProgress)
	users, err := c.repo.readNode(ctx, base)
	if err != nil {
		return err
	}
	for _, userID := range tree.SortedKeys(users) {
		courses, ok := tree.AsMap(users[userID])
		if !ok {
			st.Skipped++
			continue
		}
		for _, courseID := range tree.SortedKeys(courses) {
			node, ok := tree.AsMap(courses[courseID])
			if !ok {
				st.Skipped++
				continue
			}
			st.Processed++
			if err := c.rewriteProgress(ctx, userID, courseID, node); err != nil {
				return err
			}
			st.Written++
			touched[userID] = true
		}
	}

	for _, src := range c.table.Cleanup.Progress {
		value, ok, err := c.repo.store.Read(ctx, src.Path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", src.Path, err)
		}
		if !ok {
			continue
		}
		items, skipped := src.Records(value)
		st.Skipped += skipped
		for _, item := range items {
			st.Processed++
			userID, _ := item.Record["userId"].(string)
			courseID, _ := item.Record["courseId"].(string)
			if userID == "" || courseID == "" {
				st.Skipped++
				continue
			}
			existing, err := c.repo.readNode(ctx, tree.Join(base, userID, courseID))
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := c.rewriteProgress(ctx, userID, courseID, item.Record); err != nil {
				return err
			}
			st.Written++
			touched[userID] = true
		}
	}

	for _, userID := range sortedSet(touched) {
		if err := c.repo.refreshStudentProgress(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

// rewriteProgress folds flattened module entries, recomputes the derived
// fields and writes the node back without the flattened siblings. Nodes
// without module entries keep their stored progress and completed flag.
func (c *cleaner) rewriteProgress(ctx context.Context, userID, courseID string, node schema.Record) error {
	p := c.repo.standardizer.Progress(node)
	p.UserID, p.CourseID = userID, courseID
	if len(p.Modules) > 0 {
		p = progress.Recalculate(p, "")
	}
	path := c.repo.Path(schema.CollectionProgress, userID, courseID)
	if err := c.repo.store.Write(ctx, path, p); err != nil {
		return fmt.Errorf("failed to write progress %s: %w", path, err)
	}
	return nil
}

func (c *cleaner) obsolete(ctx context.Context, st *primary.StageReport) error {
	if c.dryRun {
		c.run.infof("dry run: obsolete legacy locations kept")
		return nil
	}
	skipped, placeholders := c.run.report.Skipped(), c.run.report.Placeholders()
	if (skipped > 0 || placeholders > 0) && !c.force {
		c.run.warnf("obsolete legacy locations kept: %d skipped and %d placeholder records need review (use --force to delete anyway)", skipped, placeholders)
		return nil
	}

	for _, path := range c.table.Cleanup.Obsolete {
		st.Processed++
		_, ok, err := c.repo.store.Read(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if !ok {
			continue
		}
		if err := c.repo.store.Delete(ctx, path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
		st.Written++
		c.run.infof("deleted %s", path)
	}
	c.run.report.ObsoleteDeleted = true
	return nil
}
