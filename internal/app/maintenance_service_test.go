package app

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/example/lms/internal/adapters/memory"
	"github.com/example/lms/internal/core/legacy"
	"github.com/example/lms/internal/db"
	"github.com/example/lms/internal/logger"
	"github.com/example/lms/internal/ports/primary"
	"github.com/example/lms/internal/ports/secondary"
)

func scratchMemory(tree map[string]any) (secondary.TreeStore, error) {
	return memory.NewFromValue(tree)
}

func newTestMaintenanceService(t *testing.T, store secondary.TreeStore) (*MaintenanceServiceImpl, *mockRunHistory) {
	t.Helper()
	table, err := legacy.Default()
	if err != nil {
		t.Fatalf("legacy.Default() error: %v", err)
	}
	history := &mockRunHistory{}
	identity := &mockIdentityProvider{identity: secondary.Identity{UserID: "admin-1"}}
	svc := NewMaintenanceService(newTestRepository(t, store), table, history, identity, scratchMemory, logger.NewNop())
	return svc, history
}

func fixtureStore(t *testing.T) *memory.Store {
	t.Helper()
	return seedStore(t, db.Fixtures())
}

func stage(report *primary.RunReport, name string) *primary.StageReport {
	for _, st := range report.Stages {
		if st.Name == name {
			return st
		}
	}
	return nil
}

func fieldOf(t *testing.T, store secondary.TreeStore, path, field string) any {
	t.Helper()
	node, ok := readPath(t, store, path).(map[string]any)
	if !ok {
		t.Fatalf("%s is not an object", path)
	}
	return node[field]
}

// ============================================================================
// Migration Tests
// ============================================================================

func TestRunMigration_Fixtures(t *testing.T) {
	store := fixtureStore(t)
	svc, history := newTestMaintenanceService(t, store)

	var lines []string
	result := svc.RunMigration(context.Background(), primary.MigrationOptions{Sink: func(l string) { lines = append(lines, l) }})
	if !result.Success {
		t.Fatalf("migration failed: %s", result.Message)
	}
	if result.Report.Actor != "admin-1" || result.Report.RunID == "" {
		t.Errorf("unexpected report identity: %+v", result.Report)
	}
	if result.Report.Placeholders() != 1 {
		t.Errorf("placeholders = %d, want 1", result.Report.Placeholders())
	}
	if len(history.runs) != 1 || !history.runs[0].Success {
		t.Errorf("run history = %+v", history.runs)
	}
	if len(lines) == 0 {
		t.Error("sink received no lines")
	}

	t.Run("users and satellites", func(t *testing.T) {
		roles := map[string]string{"f1": "instructor", "e1": "student", "e2": "student", "a1": "admin"}
		for id, role := range roles {
			if got := fieldOf(t, store, "lms/users/"+id, "role"); got != role {
				t.Errorf("%s role = %v, want %s", id, got, role)
			}
		}
		if got := fieldOf(t, store, "lms/users/e2", "email"); got != "louis@example.com" {
			t.Errorf("e2 email = %v", got)
		}
		if got := fieldOf(t, store, "lms/users/e2", "createdAt"); got != "2023-09-01T00:00:00.000Z" {
			t.Errorf("e2 createdAt = %v", got)
		}
		if got := fieldOf(t, store, "lms/instructors/f1", "bio"); got != "Physicienne et chimiste" {
			t.Errorf("f1 bio = %v", got)
		}
		if got := fieldOf(t, store, "lms/instructors/f1", "expertise"); !reflect.DeepEqual(got, []any{"Physique", "Chimie"}) {
			t.Errorf("f1 expertise = %v", got)
		}
		if got := fieldOf(t, store, "lms/instructors/f1", "courses"); !reflect.DeepEqual(got, []any{"c1"}) {
			t.Errorf("f1 courses = %v", got)
		}
		if readPath(t, store, "lms/admins/a1") == nil {
			t.Error("admin satellite missing")
		}
	})

	inline := legacy.SyntheticID("Formations/c1/modules", 1)
	broken := legacy.SyntheticID("Formations/c1/modules", 2)

	t.Run("course and modules", func(t *testing.T) {
		if got := fieldOf(t, store, "lms/courses/c1", "price"); got != 49.9 {
			t.Errorf("price = %v", got)
		}
		if got := fieldOf(t, store, "lms/courses/c1", "level"); got != "beginner" {
			t.Errorf("level = %v", got)
		}
		want := map[string]any{"m1": true, inline: true, broken: true}
		if got := fieldOf(t, store, "lms/courses/c1", "modules"); !reflect.DeepEqual(got, want) {
			t.Errorf("modules = %v, want %v", got, want)
		}
		if got := fieldOf(t, store, "lms/modules/m1", "title"); got != "Installation" {
			t.Errorf("m1 title = %v", got)
		}
		if got := fieldOf(t, store, "lms/modules/"+inline, "order"); got != 2.0 {
			t.Errorf("inline module order = %v", got)
		}
		if got := fieldOf(t, store, "lms/modules/"+broken, "placeholder"); got != true {
			t.Errorf("placeholder flag = %v", got)
		}
		if got := fieldOf(t, store, "lms/evaluations/"+inline+"/q1", "type"); got != "quiz" {
			t.Errorf("q1 type = %v", got)
		}
		if got := fieldOf(t, store, "lms/evaluations/"+inline+"/q1", "passingScore"); got != 10.0 {
			t.Errorf("q1 passingScore = %v", got)
		}
	})

	t.Run("enrollments progress and feedback", func(t *testing.T) {
		for user, status := range map[string]string{"e1": "active", "e2": "completed"} {
			byCourse := readPath(t, store, "lms/enrollments/byCourse/c1/"+user)
			byUser := readPath(t, store, "lms/enrollments/byUser/"+user+"/c1")
			if byCourse == nil || !reflect.DeepEqual(byCourse, byUser) {
				t.Errorf("%s copies differ: %v vs %v", user, byCourse, byUser)
				continue
			}
			if got := byCourse.(map[string]any)["status"]; got != status {
				t.Errorf("%s status = %v, want %s", user, got, status)
			}
		}
		if got := fieldOf(t, store, "lms/students/e2", "enrollments"); !reflect.DeepEqual(got, []any{"c1"}) {
			t.Errorf("e2 enrollments = %v", got)
		}

		if got := fieldOf(t, store, "lms/progress/e1/c1", "progress"); got != 100.0 {
			t.Errorf("progress = %v", got)
		}
		if got := fieldOf(t, store, "lms/progress/e1/c1", "score"); got != 80.0 {
			t.Errorf("score = %v", got)
		}
		summary := fieldOf(t, store, "lms/students/e1", "progress").(map[string]any)
		if summary["completedCourses"] != 1.0 {
			t.Errorf("student summary = %v", summary)
		}

		if got := fieldOf(t, store, "lms/feedback/c1/av1", "rating"); got != 5.0 {
			t.Errorf("feedback rating = %v", got)
		}
		if got := fieldOf(t, store, "lms/courses/c1", "totalRatings"); got != 1.0 {
			t.Errorf("totalRatings = %v", got)
		}
	})

	if readPath(t, store, "Formations") == nil {
		t.Error("migration must leave legacy locations in place")
	}
}

func TestRunMigration_Converges(t *testing.T) {
	store := fixtureStore(t)
	svc, _ := newTestMaintenanceService(t, store)
	ctx := context.Background()

	if r := svc.RunMigration(ctx, primary.MigrationOptions{}); !r.Success {
		t.Fatalf("first run failed: %s", r.Message)
	}
	first := readPath(t, store, "lms")
	if r := svc.RunMigration(ctx, primary.MigrationOptions{}); !r.Success {
		t.Fatalf("second run failed: %s", r.Message)
	}
	if second := readPath(t, store, "lms"); !reflect.DeepEqual(first, second) {
		t.Errorf("second run changed the canonical tree\nfirst:  %v\nsecond: %v", first, second)
	}
}

func TestRunMigration_DryRunWritesNothing(t *testing.T) {
	store := fixtureStore(t)
	svc, history := newTestMaintenanceService(t, store)
	before := readPath(t, store, "")

	result := svc.RunMigration(context.Background(), primary.MigrationOptions{DryRun: true})
	if !result.Success || !result.DryRun {
		t.Fatalf("dry run result = %+v", result)
	}
	if st := stage(result.Report, "users"); st == nil || st.Written != 4 {
		t.Errorf("users stage = %+v", st)
	}
	if after := readPath(t, store, ""); !reflect.DeepEqual(before, after) {
		t.Error("dry run modified the store")
	}
	if len(history.runs) != 0 {
		t.Errorf("dry runs are not recorded, got %d", len(history.runs))
	}
}

func TestRunMigration_Reset(t *testing.T) {
	tree := db.Fixtures()
	tree["lms"] = map[string]any{
		"users": map[string]any{"stale": map[string]any{"email": "old@example.com", "role": "student"}},
		"meta":  map[string]any{"keep": true},
	}
	store := seedStore(t, tree)
	svc, _ := newTestMaintenanceService(t, store)

	if r := svc.RunMigration(context.Background(), primary.MigrationOptions{Reset: true}); !r.Success {
		t.Fatalf("migration failed: %s", r.Message)
	}
	if v := readPath(t, store, "lms/users/stale"); v != nil {
		t.Errorf("reset should clear canonical users, got %v", v)
	}
	if v := readPath(t, store, "lms/meta/keep"); v != true {
		t.Errorf("reset must keep meta, got %v", v)
	}
	if readPath(t, store, "lms/users/e1") == nil {
		t.Error("users were not migrated after reset")
	}
}

func TestRunMigration_Failures(t *testing.T) {
	tests := []struct {
		name    string
		store   func(t *testing.T) secondary.TreeStore
		message string
	}{
		{
			name: "write error",
			store: func(t *testing.T) secondary.TreeStore {
				return &failingStore{TreeStore: fixtureStore(t), failPrefix: "lms/courses", writeErr: errors.New("disk full")}
			},
			message: "disk full",
		},
		{
			name: "panic",
			store: func(t *testing.T) secondary.TreeStore {
				return &failingStore{TreeStore: fixtureStore(t), failPrefix: "lms/modules", panicMsg: "boom"}
			},
			message: "panic: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, history := newTestMaintenanceService(t, tt.store(t))

			result := svc.RunMigration(context.Background(), primary.MigrationOptions{})
			if result.Success {
				t.Fatal("expected failure")
			}
			if !strings.Contains(result.Message, tt.message) {
				t.Errorf("message = %q, want it to contain %q", result.Message, tt.message)
			}
			if len(history.runs) != 1 || history.runs[0].Success {
				t.Errorf("failed run should be recorded: %+v", history.runs)
			}
		})
	}
}

func TestRunMigration_RefusesConcurrentRun(t *testing.T) {
	svc, history := newTestMaintenanceService(t, nil)
	svc.mu.Lock()
	defer svc.mu.Unlock()

	result := svc.RunMigration(context.Background(), primary.MigrationOptions{})
	if result.Success || !strings.Contains(result.Message, "already in progress") {
		t.Errorf("result = %+v", result)
	}
	if len(history.runs) != 0 {
		t.Error("refused run should not be recorded")
	}
}

// ============================================================================
// Cleanup Tests
// ============================================================================

func TestRunCleanup_LiftsEmbeddedShapes(t *testing.T) {
	store := seedStore(t, map[string]any{
		"lms": map[string]any{
			"users": map[string]any{
				"u1": map[string]any{"email": "u1@example.com", "role": "student"},
			},
			"students": map[string]any{
				"u1": map[string]any{"enrollments": []any{}},
			},
			"courses": map[string]any{
				"c1": map[string]any{
					"title": "Go", "description": "Bases",
					"inscriptions": map[string]any{"u1": true},
					"chapitres":    map[string]any{"m9": map[string]any{"titre": "Intro", "quiz": []any{map[string]any{"titre": "Q"}}}},
				},
			},
			"progress": map[string]any{
				"u1": map[string]any{
					"c1": map[string]any{"m9": map[string]any{"termine": true, "note": 90}},
				},
			},
		},
		"Utilisateurs": map[string]any{"u1": map[string]any{"email": "u1@example.com"}},
	})
	svc, history := newTestMaintenanceService(t, store)

	result := svc.RunCleanup(context.Background(), primary.CleanupOptions{})
	if !result.Success {
		t.Fatalf("cleanup failed: %s", result.Message)
	}

	course := readPath(t, store, "lms/courses/c1").(map[string]any)
	if _, ok := course["inscriptions"]; ok {
		t.Error("embedded enrollments should be removed")
	}
	if _, ok := course["chapitres"]; ok {
		t.Error("legacy module key should be removed")
	}
	if !reflect.DeepEqual(course["modules"], map[string]any{"m9": true}) {
		t.Errorf("modules = %v", course["modules"])
	}
	if readPath(t, store, "lms/enrollments/byCourse/c1/u1") == nil || readPath(t, store, "lms/enrollments/byUser/u1/c1") == nil {
		t.Error("enrollment not lifted into both indexes")
	}
	if got := fieldOf(t, store, "lms/students/u1", "enrollments"); !reflect.DeepEqual(got, []any{"c1"}) {
		t.Errorf("student enrollments = %v", got)
	}

	module := readPath(t, store, "lms/modules/m9").(map[string]any)
	if _, ok := module["quiz"]; ok {
		t.Error("embedded evaluations should be removed from the module")
	}
	evaluations, _ := readPath(t, store, "lms/evaluations/m9").(map[string]any)
	if len(evaluations) != 1 {
		t.Errorf("evaluations = %v", evaluations)
	}

	node := readPath(t, store, "lms/progress/u1/c1").(map[string]any)
	if _, ok := node["m9"]; ok {
		t.Error("flattened progress entry should be folded")
	}
	if node["progress"] != 100.0 || node["score"] != 90.0 {
		t.Errorf("progress node = %v", node)
	}
	details, _ := node["details"].(map[string]any)
	if !reflect.DeepEqual(details["moduleScores"], map[string]any{"m9": 90.0}) {
		t.Errorf("details.moduleScores = %v", details["moduleScores"])
	}

	if !result.Report.ObsoleteDeleted {
		t.Error("obsolete locations should be deleted on a clean run")
	}
	if readPath(t, store, "Utilisateurs") != nil {
		t.Error("Utilisateurs should be deleted")
	}
	runs, _ := svc.ListRuns(context.Background(), 0)
	if len(runs) != 1 || !runs[0].ObsoleteDeleted || runs[0].Engine != "cleanup" || len(history.runs) != 1 {
		t.Errorf("ListRuns() = %+v", runs)
	}
}

func TestRunCleanup_EmbeddedEnrollmentKeepsEnrolledAt(t *testing.T) {
	store := seedStore(t, map[string]any{
		"lms": map[string]any{
			"courses": map[string]any{
				"c1": map[string]any{
					"title": "Go", "description": "Bases",
					"enrollments": map[string]any{
						"u1": map[string]any{"enrolledAt": "2024-01-01T00:00:00Z"},
					},
				},
			},
		},
	})
	svc, _ := newTestMaintenanceService(t, store)

	if result := svc.RunCleanup(context.Background(), primary.CleanupOptions{}); !result.Success {
		t.Fatalf("cleanup failed: %s", result.Message)
	}

	byCourse := fieldOf(t, store, "lms/enrollments/byCourse/c1/u1", "enrolledAt")
	byUser := fieldOf(t, store, "lms/enrollments/byUser/u1/c1", "enrolledAt")
	if byCourse != "2024-01-01T00:00:00Z" || byUser != byCourse {
		t.Errorf("enrolledAt byCourse = %v, byUser = %v", byCourse, byUser)
	}
	if _, ok := readPath(t, store, "lms/courses/c1").(map[string]any)["enrollments"]; ok {
		t.Error("embedded enrollments should be removed")
	}
}

func TestRunCleanup_KeepsProgressWithoutModules(t *testing.T) {
	store := seedStore(t, map[string]any{
		"lms": map[string]any{
			"progress": map[string]any{
				"u1": map[string]any{
					"c1": map[string]any{"userId": "u1", "courseId": "c1", "progress": 70, "completed": false},
				},
			},
		},
		"Progression": map[string]any{
			"u2": map[string]any{"c1": map[string]any{"progression": 70}},
		},
	})
	svc, _ := newTestMaintenanceService(t, store)
	ctx := context.Background()

	if r := svc.RunMigration(ctx, primary.MigrationOptions{}); !r.Success {
		t.Fatalf("migration failed: %s", r.Message)
	}
	for _, user := range []string{"u1", "u2"} {
		if got := fieldOf(t, store, "lms/progress/"+user+"/c1", "progress"); got != 70.0 {
			t.Fatalf("after migration %s progress = %v, want 70", user, got)
		}
	}

	if r := svc.RunCleanup(ctx, primary.CleanupOptions{}); !r.Success {
		t.Fatalf("cleanup failed: %s", r.Message)
	}
	for _, user := range []string{"u1", "u2"} {
		path := "lms/progress/" + user + "/c1"
		if got := fieldOf(t, store, path, "progress"); got != 70.0 {
			t.Errorf("after cleanup %s progress = %v, want 70", user, got)
		}
		if got := fieldOf(t, store, path, "completed"); got != false {
			t.Errorf("after cleanup %s completed = %v", user, got)
		}
	}
}

func TestRunCleanup_ObsoleteNeedsCleanRunOrForce(t *testing.T) {
	store := fixtureStore(t)
	svc, _ := newTestMaintenanceService(t, store)
	ctx := context.Background()
	if r := svc.RunMigration(ctx, primary.MigrationOptions{}); !r.Success {
		t.Fatalf("migration failed: %s", r.Message)
	}

	result := svc.RunCleanup(ctx, primary.CleanupOptions{})
	if !result.Success {
		t.Fatalf("cleanup failed: %s", result.Message)
	}
	if result.Report.ObsoleteDeleted || readPath(t, store, "Formations") == nil {
		t.Error("placeholders should keep obsolete locations")
	}

	result = svc.RunCleanup(ctx, primary.CleanupOptions{Force: true})
	if !result.Success || !result.Report.ObsoleteDeleted {
		t.Fatalf("forced cleanup = %+v", result)
	}
	for _, path := range []string{"Formations", "Formateurs", "Modules", "Inscriptions", "Progression", "Avis"} {
		if readPath(t, store, path) != nil {
			t.Errorf("%s should be deleted", path)
		}
	}
	if readPath(t, store, "lms/courses/c1") == nil {
		t.Error("canonical data must survive cleanup")
	}
}

func TestRunCleanup_DryRun(t *testing.T) {
	store := fixtureStore(t)
	svc, _ := newTestMaintenanceService(t, store)
	before := readPath(t, store, "")

	result := svc.RunCleanup(context.Background(), primary.CleanupOptions{DryRun: true, Force: true})
	if !result.Success || result.Report.ObsoleteDeleted {
		t.Fatalf("dry run result = %+v", result)
	}
	if after := readPath(t, store, ""); !reflect.DeepEqual(before, after) {
		t.Error("dry run modified the store")
	}
}

// ============================================================================
// Tree Import / Export Tests
// ============================================================================

func TestImportExportTree(t *testing.T) {
	svc, _ := newTestMaintenanceService(t, nil)
	ctx := context.Background()

	if err := svc.ImportTree(ctx, "Formations", map[string]any{"c1": map[string]any{"titre": "Go"}}, false); err != nil {
		t.Fatalf("ImportTree() error: %v", err)
	}
	if err := svc.ImportTree(ctx, "Formations/c1", map[string]any{"prix": 10.0}, true); err != nil {
		t.Fatalf("ImportTree(merge) error: %v", err)
	}
	if err := svc.ImportTree(ctx, "Formations", "scalar", true); err == nil {
		t.Error("merging a scalar should fail")
	}

	got, ok, err := svc.ExportTree(ctx, "Formations/c1")
	if err != nil || !ok {
		t.Fatalf("ExportTree() = %v, %v", ok, err)
	}
	want := map[string]any{"titre": "Go", "prix": 10.0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExportTree() = %v, want %v", got, want)
	}
	if _, ok, _ := svc.ExportTree(ctx, "missing"); ok {
		t.Error("missing path should not be found")
	}
}
