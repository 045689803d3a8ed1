// Package schema holds the structural contracts of workflow elements and of the
// persisted workflow document. JSON Schema (draft-07) covers shape, types and
// exclusive field groups; struct rules cover constraints JSON Schema cannot
// express, such as variant-specific fields and uniqueness inside a phase.
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dukex/procflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

const documentSubject = "workflow"

type compiledSchemas struct {
	document *gojsonschema.Schema
	elements map[models.ElementType]*gojsonschema.Schema
}

var compiled = sync.OnceValues(func() (*compiledSchemas, error) {
	document, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(Document()))
	if err != nil {
		return nil, fmt.Errorf("failed to compile workflow schema: %w", err)
	}

	schemas := &compiledSchemas{
		document: document,
		elements: make(map[models.ElementType]*gojsonschema.Schema, len(models.ElementTypes)),
	}

	for _, kind := range models.ElementTypes {
		element, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(Element(kind)))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", definitionNames[kind], err)
		}

		schemas.elements[kind] = element
	}

	return schemas, nil
})

// ValidateWorkflow checks a whole workflow value against the document schema
// and the element struct rules.
func ValidateWorkflow(workflow models.Workflow) error {
	schemas, err := compiled()
	if err != nil {
		return err
	}

	if err := validateJSON(documentSubject, schemas.document, gojsonschema.NewGoLoader(workflow)); err != nil {
		return err
	}

	if err := validate.Struct(workflow); err != nil {
		return violationFromValidation(documentSubject, err)
	}

	return nil
}

// DecodeDocument validates a raw JSON workflow document and decodes it.
func DecodeDocument(data []byte) (models.Workflow, error) {
	schemas, err := compiled()
	if err != nil {
		return models.Workflow{}, err
	}

	if err := validateJSON(documentSubject, schemas.document, gojsonschema.NewBytesLoader(data)); err != nil {
		return models.Workflow{}, err
	}

	var workflow models.Workflow
	if err := json.Unmarshal(data, &workflow); err != nil {
		return models.Workflow{}, newSchemaViolation(documentSubject, []FieldViolation{{Rule: "decode", Message: err.Error()}})
	}

	if err := validate.Struct(workflow); err != nil {
		return models.Workflow{}, violationFromValidation(documentSubject, err)
	}

	return workflow, nil
}

// ValidateDocument checks raw JSON against the workflow document contract.
func ValidateDocument(data []byte) error {
	_, err := DecodeDocument(data)

	return err
}

func validateJSON(subject string, schema *gojsonschema.Schema, document gojsonschema.JSONLoader) error {
	result, err := schema.Validate(document)
	if err != nil {
		return newSchemaViolation(subject, []FieldViolation{{Rule: "decode", Message: err.Error()}})
	}

	if result.Valid() {
		return nil
	}

	violations := make([]FieldViolation, 0, len(result.Errors()))
	for _, resultError := range result.Errors() {
		violations = append(violations, FieldViolation{
			Field:   resultErrorField(resultError),
			Rule:    resultError.Type(),
			Message: resultError.Description(),
		})
	}

	return newSchemaViolation(subject, violations)
}

// resultErrorField turns a gojsonschema context into a dotted path; missing
// properties are reported on the property itself rather than on its parent.
func resultErrorField(resultError gojsonschema.ResultError) string {
	field := resultError.Field()
	if field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		field = ""
	}

	if resultError.Type() == "required" {
		if property, ok := resultError.Details()["property"].(string); ok {
			if field == "" {
				return property
			}

			return field + "." + property
		}
	}

	return field
}
