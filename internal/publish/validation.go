package publish

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Violation is a single failed constraint on a request field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a request is rejected before dispatch.
// It carries every violation found, not just the first one.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has reports whether field has at least one violation.
func (e *ValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

type violations []Violation

func (v *violations) add(field, msg string) {
	*v = append(*v, Violation{Field: field, Message: msg})
}

func (v *violations) checkNotBlank(field, label, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.add(field, label+" cannot be blank")
		return false
	}
	return true
}

func (v *violations) checkText(field, label, value string, max int) {
	if !v.checkNotBlank(field, label, value) {
		return
	}
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("%s must be between 1 and %d characters", label, max))
	}
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Violations: v}
}
