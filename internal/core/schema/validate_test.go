package schema

import (
	"strings"
	"testing"
)

func TestValidate_CourseLevel(t *testing.T) {
	res := Validate(KindCourse, Record{"id": "c1", "title": "t", "description": "d", "level": "master"})

	if res.IsValid {
		t.Fatal("expected invalid course")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "level") || !strings.Contains(res.Errors[0], "master") {
		t.Errorf("errors = %v, want a single level error naming the value", res.Errors)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		rec      Record
		valid    bool
		contains []string
	}{
		{
			name:  "valid user",
			kind:  KindUser,
			rec:   Record{"email": "a@x.io", "role": "student", "firstName": "A"},
			valid: true,
		},
		{
			name:     "user missing email and bad role",
			kind:     KindUser,
			rec:      Record{"role": "guest"},
			contains: []string{"email is required", "role must be one of"},
		},
		{
			name:     "user invalid email",
			kind:     KindUser,
			rec:      Record{"email": "nope", "role": "admin"},
			contains: []string{"valid email"},
		},
		{
			name:     "course price type and rating range",
			kind:     KindCourse,
			rec:      Record{"title": "t", "description": "d", "price": "12", "rating": float64(7)},
			contains: []string{"price must be a number", "rating must be <= 5"},
		},
		{
			name:     "course negative price",
			kind:     KindCourse,
			rec:      Record{"title": "t", "description": "d", "price": float64(-1)},
			contains: []string{"price must be >= 0"},
		},
		{
			name:  "course with integer numbers",
			kind:  KindCourse,
			rec:   Record{"title": "t", "description": "d", "price": 5, "rating": 4, "totalRatings": int64(2)},
			valid: true,
		},
		{
			name:     "evaluation integer scores passing above max",
			kind:     KindEvaluation,
			rec:      Record{"moduleId": "m1", "title": "q", "maxScore": 10, "passingScore": 12},
			contains: []string{"passingScore must be <= maxScore"},
		},
		{
			name:     "module resources",
			kind:     KindModule,
			rec:      Record{"courseId": "c1", "title": "m", "resources": []any{map[string]any{"type": "audio", "url": "x"}, "bad"}},
			contains: []string{"resources[0].type", "resources[1] must be an object"},
		},
		{
			name:     "evaluation passing above max",
			kind:     KindEvaluation,
			rec:      Record{"moduleId": "m1", "title": "q", "maxScore": float64(10), "passingScore": float64(12)},
			contains: []string{"passingScore must be <= maxScore"},
		},
		{
			name:     "enrollment required keys",
			kind:     KindEnrollment,
			rec:      Record{"status": "done"},
			contains: []string{"userId is required", "courseId is required", "enrolledAt is required", "status must be one of"},
		},
		{
			name:     "progress out of range",
			kind:     KindProgress,
			rec:      Record{"userId": "u", "courseId": "c", "progress": float64(120), "modules": map[string]any{"m1": map[string]any{"completed": "yes"}}},
			contains: []string{"progress must be <= 100", "modules.m1.completed must be a boolean"},
		},
		{
			name:     "feedback rating range",
			kind:     KindFeedback,
			rec:      Record{"userId": "u", "courseId": "c", "rating": float64(0)},
			contains: []string{"rating must be >= 1"},
		},
		{
			name:     "feedback rating missing",
			kind:     KindFeedback,
			rec:      Record{"userId": "u", "courseId": "c"},
			contains: []string{"rating is required"},
		},
		{
			name:     "unknown kind",
			kind:     Kind("badge"),
			rec:      Record{},
			contains: []string{"unknown entity kind"},
		},
		{
			name:     "nil record",
			kind:     KindCourse,
			rec:      nil,
			contains: []string{"title is required", "description is required"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.kind, tt.rec)
			if res.IsValid != tt.valid {
				t.Errorf("IsValid = %v, want %v (errors: %v)", res.IsValid, tt.valid, res.Errors)
			}
			joined := strings.Join(res.Errors, "\n")
			for _, want := range tt.contains {
				if !strings.Contains(joined, want) {
					t.Errorf("errors %v missing %q", res.Errors, want)
				}
			}
		})
	}
}

func TestValidate_StandardizedRecordsAreValid(t *testing.T) {
	s := fixedStandardizer()
	tests := []struct {
		kind Kind
		in   Record
	}{
		{KindUser, Record{"prenom": "Ana", "email": "ana@x.io", "role": "formateur"}},
		{KindCourse, Record{"titre": "Go", "description": "intro", "prix": "10", "modules": []any{"m1"}}},
		{KindModule, Record{"formation": "c1", "titre": "Intro", "ressources": []any{"http://x"}}},
		{KindEvaluation, Record{"module": "m1", "titre": "Quiz", "noteMax": float64(20), "seuil": float64(10)}},
		{KindEnrollment, Record{"apprenant": "u1", "formation": "c1"}},
		{KindProgress, Record{"apprenant": "u1", "formation": "c1", "m1": map[string]any{"termine": true}}},
		{KindFeedback, Record{"apprenant": "u1", "formation": "c1", "note": "5"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			res := Validate(tt.kind, s.Standardize(tt.kind, tt.in))
			if !res.IsValid {
				t.Errorf("standardized %s invalid: %v", tt.kind, res.Errors)
			}
		})
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	rec := Record{"title": "t"}
	Validate(KindCourse, rec)
	if len(rec) != 1 {
		t.Errorf("record mutated: %v", rec)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"course": KindCourse, "Courses": KindCourse, "progress": KindProgress, "feedback": KindFeedback} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseKind("badge"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
