package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchemaViolation is the category of every structural validation failure.
var ErrSchemaViolation = errors.New("schema violation")

// FieldViolation describes one failed constraint.
type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// SchemaViolation reports that a candidate element or document does not match
// its structural contract. Field is the path of the first offending field,
// relative to Subject; Violations holds every failed constraint.
type SchemaViolation struct {
	Subject    string
	Field      string
	Message    string
	Violations []FieldViolation
}

func newSchemaViolation(subject string, violations []FieldViolation) *SchemaViolation {
	e := &SchemaViolation{Subject: subject, Violations: violations}
	if len(violations) > 0 {
		e.Field = violations[0].Field
		e.Message = violations[0].Message
	}

	return e
}

func (e *SchemaViolation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Subject, e.Message)
	}

	return fmt.Sprintf("%s: field %s %s", e.Subject, e.Field, e.Message)
}

func (e *SchemaViolation) Unwrap() error {
	return ErrSchemaViolation
}

// Fields returns the paths of every offending field.
func (e *SchemaViolation) Fields() []string {
	fields := make([]string, 0, len(e.Violations))
	for _, violation := range e.Violations {
		fields = append(fields, violation.Field)
	}

	return fields
}

// Summary joins every violation into a single line.
func (e *SchemaViolation) Summary() string {
	parts := make([]string, 0, len(e.Violations))
	for _, violation := range e.Violations {
		parts = append(parts, strings.TrimSpace(violation.Field+" "+violation.Message))
	}

	return strings.Join(parts, "; ")
}

// IsSchemaViolation checks if an error is a structural validation failure.
func IsSchemaViolation(err error) bool {
	return errors.Is(err, ErrSchemaViolation)
}

// AsSchemaViolation extracts the violation details from err.
func AsSchemaViolation(err error) (*SchemaViolation, bool) {
	var violation *SchemaViolation
	ok := errors.As(err, &violation)

	return violation, ok
}
