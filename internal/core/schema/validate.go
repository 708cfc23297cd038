package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/lms/internal/core/tree"
)

var validate = validator.New()

// Result is the outcome of validating one record.
type Result struct {
	IsValid bool
	Errors  []string
}

type valueType int

const (
	typeString valueType = iota
	typeNumber
	typeBool
	typeObject
	typeList
)

func (t valueType) String() string {
	switch t {
	case typeString:
		return "a string"
	case typeNumber:
		return "a number"
	case typeBool:
		return "a boolean"
	case typeObject:
		return "an object"
	case typeList:
		return "a list"
	}
	return "unknown"
}

// rule describes one field check. tag is a validator tag applied to the
// typed value once the primitive type matched.
type rule struct {
	field    string
	typ      valueType
	required bool
	tag      string
}

func oneOf(values []string) string {
	return "oneof=" + strings.Join(values, " ")
}

var rules = map[Kind][]rule{
	KindUser: {
		{field: "firstName", typ: typeString},
		{field: "lastName", typ: typeString},
		{field: "email", typ: typeString, required: true, tag: "email"},
		{field: "role", typ: typeString, required: true, tag: oneOf(Roles)},
		{field: "createdAt", typ: typeString},
		{field: "updatedAt", typ: typeString},
		{field: "avatar", typ: typeString},
	},
	KindCourse: {
		{field: "title", typ: typeString, required: true},
		{field: "description", typ: typeString, required: true},
		{field: "content", typ: typeString},
		{field: "duration", typ: typeString},
		{field: "image", typ: typeString},
		{field: "instructorId", typ: typeString},
		{field: "category", typ: typeString},
		{field: "level", typ: typeString, tag: oneOf(Levels)},
		{field: "price", typ: typeNumber, tag: "gte=0"},
		{field: "rating", typ: typeNumber, tag: "gte=0,lte=5"},
		{field: "totalRatings", typ: typeNumber, tag: "gte=0"},
		{field: "createdAt", typ: typeString},
		{field: "updatedAt", typ: typeString},
		{field: "modules", typ: typeObject},
	},
	KindModule: {
		{field: "courseId", typ: typeString, required: true},
		{field: "title", typ: typeString, required: true},
		{field: "description", typ: typeString},
		{field: "order", typ: typeNumber, tag: "gte=0"},
		{field: "content", typ: typeString},
		{field: "duration", typ: typeString},
		{field: "resources", typ: typeList},
		{field: "createdAt", typ: typeString},
		{field: "updatedAt", typ: typeString},
		{field: "placeholder", typ: typeBool},
	},
	KindEvaluation: {
		{field: "moduleId", typ: typeString, required: true},
		{field: "title", typ: typeString, required: true},
		{field: "type", typ: typeString, tag: oneOf(EvaluationTypes)},
		{field: "description", typ: typeString},
		{field: "questions", typ: typeList},
		{field: "maxScore", typ: typeNumber, tag: "gte=0"},
		{field: "passingScore", typ: typeNumber, tag: "gte=0"},
		{field: "createdAt", typ: typeString},
		{field: "updatedAt", typ: typeString},
	},
	KindEnrollment: {
		{field: "userId", typ: typeString, required: true},
		{field: "courseId", typ: typeString, required: true},
		{field: "enrolledAt", typ: typeString, required: true},
		{field: "status", typ: typeString, tag: oneOf(EnrollmentStatus)},
	},
	KindProgress: {
		{field: "userId", typ: typeString, required: true},
		{field: "courseId", typ: typeString, required: true},
		{field: "startDate", typ: typeString},
		{field: "progress", typ: typeNumber, tag: "gte=0,lte=100"},
		{field: "completed", typ: typeBool},
		{field: "lastUpdated", typ: typeString},
		{field: "score", typ: typeNumber, tag: "gte=0"},
		{field: "modules", typ: typeObject},
		{field: "details", typ: typeObject},
	},
	KindFeedback: {
		{field: "userId", typ: typeString, required: true},
		{field: "courseId", typ: typeString, required: true},
		{field: "rating", typ: typeNumber, required: true, tag: "gte=1,lte=5"},
		{field: "comment", typ: typeString},
		{field: "createdAt", typ: typeString},
	},
}

// Validate checks rec against the canonical rules of kind and reports every
// violation. It never mutates rec and never panics.
func Validate(kind Kind, rec Record) (res Result) {
	res = Result{Errors: []string{}}
	defer func() {
		if r := recover(); r != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("validation aborted: %v", r))
		}
		res.IsValid = len(res.Errors) == 0
	}()

	kindRules, ok := rules[kind]
	if !ok {
		res.Errors = append(res.Errors, fmt.Sprintf("unknown entity kind %q", kind))
		return res
	}
	for _, r := range kindRules {
		res.Errors = append(res.Errors, checkField(r, rec[r.field])...)
	}

	switch kind {
	case KindEvaluation:
		maxScore, okMax := number(rec["maxScore"])
		passing, okPass := number(rec["passingScore"])
		if okMax && okPass && passing > maxScore {
			res.Errors = append(res.Errors, fmt.Sprintf("passingScore must be <= maxScore (%v), got %v", maxScore, passing))
		}
	case KindModule:
		if list, ok := tree.AsList(rec["resources"]); ok {
			for i, item := range list {
				res.Errors = append(res.Errors, checkResource(i, item)...)
			}
		}
	case KindProgress:
		if modules, ok := tree.AsMap(rec["modules"]); ok {
			for _, id := range tree.SortedKeys(modules) {
				entry, ok := tree.AsMap(modules[id])
				if !ok {
					res.Errors = append(res.Errors, fmt.Sprintf("modules.%s must be an object", id))
					continue
				}
				if v, present := entry["completed"]; present {
					if _, ok := v.(bool); !ok {
						res.Errors = append(res.Errors, fmt.Sprintf("modules.%s.completed must be a boolean, got %v", id, v))
					}
				}
			}
		}
	}
	return res
}

func checkResource(i int, item any) []string {
	r, ok := tree.AsMap(item)
	if !ok {
		return []string{fmt.Sprintf("resources[%d] must be an object", i)}
	}
	var errs []string
	errs = append(errs, checkField(rule{field: fmt.Sprintf("resources[%d].url", i), typ: typeString}, r["url"])...)
	errs = append(errs, checkField(rule{field: fmt.Sprintf("resources[%d].type", i), typ: typeString, tag: oneOf(ResourceTypes)}, r["type"])...)
	return errs
}

// number accepts any Go numeric value. Numeric strings are not numbers here.
func number(v any) (float64, bool) {
	if _, isString := v.(string); isString {
		return 0, false
	}
	return tree.Number(v)
}

func checkField(r rule, v any) []string {
	if v == nil {
		if r.required {
			return []string{fmt.Sprintf("%s is required", r.field)}
		}
		return nil
	}

	var typed any
	switch r.typ {
	case typeString:
		s, ok := v.(string)
		if !ok {
			return []string{fmt.Sprintf("%s must be %s, got %T", r.field, r.typ, v)}
		}
		if strings.TrimSpace(s) == "" {
			if r.required {
				return []string{fmt.Sprintf("%s is required", r.field)}
			}
			return nil
		}
		typed = s
	case typeNumber:
		n, ok := number(v)
		if !ok {
			return []string{fmt.Sprintf("%s must be %s, got %v", r.field, r.typ, v)}
		}
		typed = n
	case typeBool:
		if _, ok := v.(bool); !ok {
			return []string{fmt.Sprintf("%s must be %s, got %v", r.field, r.typ, v)}
		}
		return nil
	case typeObject:
		if _, ok := v.(map[string]any); !ok {
			return []string{fmt.Sprintf("%s must be %s", r.field, r.typ)}
		}
		return nil
	case typeList:
		if _, ok := v.([]any); !ok {
			return []string{fmt.Sprintf("%s must be %s", r.field, r.typ)}
		}
		return nil
	}

	if r.tag == "" {
		return nil
	}
	err := validate.Var(typed, r.tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{fmt.Sprintf("%s: %v", r.field, err)}
	}
	out := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, message(r.field, fe, typed))
	}
	return out
}

func message(field string, fe validator.FieldError, value any) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), value)
	case "gte":
		return fmt.Sprintf("%s must be >= %s, got %v", field, fe.Param(), value)
	case "lte":
		return fmt.Sprintf("%s must be <= %s, got %v", field, fe.Param(), value)
	case "email":
		return fmt.Sprintf("%s must be a valid email address, got %q", field, value)
	case "required":
		return fmt.Sprintf("%s is required", field)
	}
	return fmt.Sprintf("%s failed %s check, got %v", field, fe.Tag(), value)
}
