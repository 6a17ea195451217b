package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldViolation is a single schema failure: the JSON path of the field and
// why it was rejected.
type FieldViolation struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func formatViolations(vs []FieldViolation) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, v.Path+": "+v.Reason)
	}
	return strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names so paths match the stored document.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks s against its `validate` tags and returns the violations in
// field order. A nil result means s is valid.
func Validate(s any) []FieldViolation {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []FieldViolation{{Path: "$", Reason: err.Error()}}
	}
	out := make([]FieldViolation, 0, len(ves))
	for _, fe := range ves {
		out = append(out, FieldViolation{
			Path:   trimRoot(fe.Namespace()),
			Reason: violationMessage(fe),
		})
	}
	return out
}

// trimRoot drops the struct type name validator puts in front of the path.
func trimRoot(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

// ValidateRecord returns InvalidRecord when r violates the record schema.
func ValidateRecord(r UserRecord) error {
	if vs := Validate(r); len(vs) > 0 {
		return InvalidRecord(r.ChatID, vs, nil)
	}
	return nil
}
