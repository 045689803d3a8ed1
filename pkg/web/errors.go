package web

import (
	"encoding/json"
	"errors"

	"github.com/dukex/procflow/pkg/persistence"
	"github.com/dukex/procflow/pkg/schema"
	"github.com/dukex/procflow/pkg/services"
	"github.com/dukex/procflow/pkg/workflow"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func unprocessable(c fiber.Ctx, problemType string, err error) error {
	problem := problems.NewStatusProblem(422).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(err.Error())

	return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// schemaViolation answers 422 with the failed field constraints listed under
// the "violations" extension member.
func schemaViolation(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(422).
		WithInstance(c.Path()).
		WithType("schema_violation").
		WithDetail(err.Error())

	encoded, marshalErr := json.Marshal(problem)
	if marshalErr != nil {
		return internalError(c, marshalErr)
	}

	payload := fiber.Map{}
	if marshalErr := json.Unmarshal(encoded, &payload); marshalErr != nil {
		return internalError(c, marshalErr)
	}

	violations := []schema.FieldViolation{}
	if violation, ok := schema.AsSchemaViolation(err); ok {
		violations = violation.Violations
	}

	payload["violations"] = violations

	return c.Status(fiber.StatusUnprocessableEntity).JSON(payload)
}

// handleServiceError maps the error categories of the editing service onto
// problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case persistence.IsWorkflowNotFound(err):
		return notFound(c, "workflow_not_found", "workflow not found")

	case errors.Is(err, persistence.ErrInvalidWorkflowID):
		return badRequest(c, err.Error())

	case workflow.IsElementNotFound(err):
		return notFound(c, "element_not_found", err.Error())

	case schema.IsSchemaViolation(err):
		return schemaViolation(c, err)

	case workflow.IsRuleViolation(err):
		return unprocessable(c, "rule_violation", err)

	case workflow.IsConfigurationError(err):
		return unprocessable(c, "configuration_error", err)

	default:
		return internalError(c, err)
	}
}
