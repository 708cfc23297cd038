// Package schema defines the canonical entity shapes of the learning platform and the two
// pure functions every writer goes through: Standardize (any legacy shape -> canonical record)
// and Validate (canonical record -> list of violations).
package schema

import (
	"fmt"
	"strings"
)

// Kind identifies an entity kind.
type Kind string

const (
	KindUser       Kind = "user"
	KindCourse     Kind = "course"
	KindModule     Kind = "module"
	KindEvaluation Kind = "evaluation"
	KindEnrollment Kind = "enrollment"
	KindProgress   Kind = "progress"
	KindFeedback   Kind = "feedback"
)

// Kinds lists every kind in dependency order. Migration stages run in this order.
var Kinds = []Kind{
	KindUser,
	KindCourse,
	KindModule,
	KindEvaluation,
	KindEnrollment,
	KindProgress,
	KindFeedback,
}

// Role values.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// Course level values.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Evaluation type values.
const (
	EvaluationQuiz       = "quiz"
	EvaluationAssignment = "assignment"
)

// Enrollment status values.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusPaused    = "paused"
)

// Resource type values.
const (
	ResourceVideo = "video"
	ResourcePDF   = "pdf"
	ResourceLink  = "link"
)

var (
	Roles            = []string{RoleStudent, RoleInstructor, RoleAdmin}
	Levels           = []string{LevelBeginner, LevelIntermediate, LevelAdvanced}
	EvaluationTypes  = []string{EvaluationQuiz, EvaluationAssignment}
	EnrollmentStatus = []string{StatusActive, StatusCompleted, StatusPaused}
	ResourceTypes    = []string{ResourceVideo, ResourcePDF, ResourceLink}
)

// Canonical collection names, relative to the canonical root.
const (
	CollectionUsers       = "users"
	CollectionStudents    = "students"
	CollectionInstructors = "instructors"
	CollectionAdmins      = "admins"
	CollectionCourses     = "courses"
	CollectionModules     = "modules"
	CollectionEvaluations = "evaluations"
	CollectionEnrollments = "enrollments"
	CollectionProgress    = "progress"
	CollectionFeedback    = "feedback"
	CollectionMeta        = "meta"

	EnrollmentsByCourse = "byCourse"
	EnrollmentsByUser   = "byUser"
)

// ParseKind resolves a user supplied kind name ("course", "courses", "Course").
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if s == string(k) || s == k.Collection() || s == string(k)+"s" {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Collection returns the canonical collection name for the kind.
func (k Kind) Collection() string {
	switch k {
	case KindUser:
		return CollectionUsers
	case KindCourse:
		return CollectionCourses
	case KindModule:
		return CollectionModules
	case KindEvaluation:
		return CollectionEvaluations
	case KindEnrollment:
		return CollectionEnrollments
	case KindProgress:
		return CollectionProgress
	case KindFeedback:
		return CollectionFeedback
	}
	return ""
}

// DateFields lists the timestamp fields a kind carries.
func (k Kind) DateFields() []string {
	switch k {
	case KindUser, KindCourse, KindModule, KindEvaluation:
		return []string{"createdAt", "updatedAt"}
	case KindEnrollment:
		return []string{"enrolledAt"}
	case KindProgress:
		return []string{"startDate", "lastUpdated"}
	case KindFeedback:
		return []string{"createdAt"}
	}
	return nil
}

// TouchField is the field stamped on every update, if any.
func (k Kind) TouchField() string {
	switch k {
	case KindUser, KindCourse, KindModule, KindEvaluation:
		return "updatedAt"
	case KindProgress:
		return "lastUpdated"
	}
	return ""
}

// SatelliteCollection returns the role satellite collection for a role.
func SatelliteCollection(role string) string {
	switch role {
	case RoleInstructor:
		return CollectionInstructors
	case RoleAdmin:
		return CollectionAdmins
	case RoleStudent:
		return CollectionStudents
	}
	return ""
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
