package schema

import (
	"encoding/json"
	"time"
)

// Record is a tree node in the JSON value model (string, float64, bool, []any, map[string]any).
type Record = map[string]any

// TimeLayout is the timestamp layout written for generated dates.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t the way generated dates are stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

type User struct {
	ID        string `json:"id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	Avatar    string `json:"avatar"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Student is the satellite record of a student user.
type Student struct {
	UserID      string          `json:"userId"`
	Enrollments []string        `json:"enrollments"`
	Progress    StudentProgress `json:"progress"`
}

type StudentProgress struct {
	CompletedCourses int `json:"completedCourses"`
	ActiveCourses    int `json:"activeCourses"`
}

// Instructor is the satellite record of an instructor user.
type Instructor struct {
	UserID    string   `json:"userId"`
	Bio       string   `json:"bio"`
	Expertise []string `json:"expertise"`
	Courses   []string `json:"courses"`
}

// Admin is the satellite record of an admin user.
type Admin struct {
	UserID      string   `json:"userId"`
	Permissions []string `json:"permissions"`
}

type Course struct {
	ID           string          `json:"id,omitempty"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Content      string          `json:"content"`
	Duration     string          `json:"duration"`
	Image        string          `json:"image"`
	InstructorID string          `json:"instructorId"`
	Category     string          `json:"category"`
	Level        string          `json:"level"`
	Price        float64         `json:"price"`
	Rating       float64         `json:"rating"`
	TotalRatings int             `json:"totalRatings"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
	Modules      map[string]bool `json:"modules"`
}

type Resource struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	URL   string `json:"url"`
}

type Module struct {
	ID          string     `json:"id,omitempty"`
	CourseID    string     `json:"courseId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Order       int        `json:"order"`
	Content     string     `json:"content"`
	Duration    string     `json:"duration"`
	Resources   []Resource `json:"resources"`
	CreatedAt   string     `json:"createdAt"`
	UpdatedAt   string     `json:"updatedAt"`
	Placeholder bool       `json:"placeholder,omitempty"`
}

type Evaluation struct {
	ID           string  `json:"id,omitempty"`
	ModuleID     string  `json:"moduleId"`
	Title        string  `json:"title"`
	Type         string  `json:"type"`
	Description  string  `json:"description"`
	Questions    []any   `json:"questions"`
	MaxScore     float64 `json:"maxScore"`
	PassingScore float64 `json:"passingScore"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

type Enrollment struct {
	UserID     string `json:"userId"`
	CourseID   string `json:"courseId"`
	EnrolledAt string `json:"enrolledAt"`
	Status     string `json:"status"`
}

type ModuleProgress struct {
	ModuleID    string  `json:"moduleId"`
	Completed   bool    `json:"completed"`
	Score       float64 `json:"score"`
	LastUpdated string  `json:"lastUpdated"`
}

type ProgressDetails struct {
	ModuleScores     map[string]float64 `json:"moduleScores"`
	CompletedModules int                `json:"completedModules"`
	TotalModules     int                `json:"totalModules"`
}

// Progress is the per (user, course) progress node. Per-module entries live under Modules.
type Progress struct {
	CourseID    string                    `json:"courseId"`
	UserID      string                    `json:"userId"`
	StartDate   string                    `json:"startDate"`
	Progress    float64                   `json:"progress"`
	Completed   bool                      `json:"completed"`
	LastUpdated string                    `json:"lastUpdated"`
	Score       float64                   `json:"score"`
	Modules     map[string]ModuleProgress `json:"modules"`
	Details     ProgressDetails           `json:"details"`
}

type Feedback struct {
	ID        string  `json:"id,omitempty"`
	UserID    string  `json:"userId"`
	CourseID  string  `json:"courseId"`
	Rating    float64 `json:"rating"`
	Comment   string  `json:"comment"`
	CreatedAt string  `json:"createdAt"`
}

// ToRecord converts a typed entity into the tree value model.
func ToRecord(v any) Record {
	raw, err := json.Marshal(v)
	if err != nil {
		return Record{}
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil || rec == nil {
		return Record{}
	}
	return rec
}
