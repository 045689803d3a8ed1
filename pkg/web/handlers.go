// Package web provides the HTTP API for editing process workflows.
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dukex/procflow/pkg/schema"
	"github.com/dukex/procflow/pkg/services"
	"github.com/dukex/procflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService *services.Workflow
	validator       *validator.Validate
}

func NewAPIHandlers(workflowService *services.Workflow, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		validator:       validator,
	}
}

// RegisterRoutes mounts every API endpoint on the app.
func (h *APIHandlers) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.HealthCheck)
	app.Get("/schema", h.GetSchema)
	app.Post("/validate", h.ValidateDocument)

	w := app.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Put("/:id", h.SaveWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Post("/:id/validate", h.ValidateWorkflow)

	w.Post("/:id/elements/:collection", h.AddElement)
	w.Patch("/:id/elements/:collection/:elementId", h.UpdateElement)
	w.Delete("/:id/elements/:elementId", h.RemoveElement)

	w.Post("/:id/flows", h.AddFlow)
	w.Post("/:id/loopback-flows", h.AddLoopbackFlow)
	w.Post("/:id/conditional-flows", h.AddConditionalFlow)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "procflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "procflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetSchema(c fiber.Ctx) error {
	return c.JSON(schema.Document())
}

// ValidateDocument validates a posted workflow document without storing it.
func (h *APIHandlers) ValidateDocument(c fiber.Ctx) error {
	if !json.Valid(c.Body()) {
		return badRequest(c, "Invalid JSON format")
	}

	document, err := schema.DecodeDocument(c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	if err := workflow.Validate(document); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ValidationResponse{Valid: true})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(WorkflowsResponse{Workflows: workflows, TotalCount: len(workflows)})
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	created, err := h.workflowService.Create(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	current, err := h.workflowService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(current)
}

// SaveWorkflow replaces the stored document with the request body.
func (h *APIHandlers) SaveWorkflow(c fiber.Ctx) error {
	if !json.Valid(c.Body()) {
		return badRequest(c, "Invalid JSON format")
	}

	document, err := schema.DecodeDocument(c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	saved, err := h.workflowService.Save(c.Context(), c.Params("id"), &document)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(saved)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.workflowService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	if err := h.workflowService.Validate(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ValidationResponse{Valid: true})
}

func (h *APIHandlers) AddElement(c fiber.Ctx) error {
	var candidate map[string]any
	if err := c.Bind().JSON(&candidate); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	edited, err := h.workflowService.AddElement(c.Context(), c.Params("id"), c.Params("collection"), candidate)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(edited)
}

func (h *APIHandlers) UpdateElement(c fiber.Ctx) error {
	var patch map[string]any
	if err := c.Bind().JSON(&patch); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	edited, err := h.workflowService.UpdateElement(
		c.Context(),
		c.Params("id"),
		c.Params("collection"),
		c.Params("elementId"),
		patch,
	)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(edited)
}

func (h *APIHandlers) RemoveElement(c fiber.Ctx) error {
	edited, err := h.workflowService.RemoveElement(c.Context(), c.Params("id"), c.Params("elementId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(edited)
}

func (h *APIHandlers) AddFlow(c fiber.Ctx) error {
	req, ok, err := h.bindFlowRequest(c)
	if !ok {
		return err
	}

	edited, err := h.workflowService.AddFlow(c.Context(), c.Params("id"), req.SrcID, req.DestID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(edited)
}

func (h *APIHandlers) AddLoopbackFlow(c fiber.Ctx) error {
	req, ok, err := h.bindFlowRequest(c)
	if !ok {
		return err
	}

	edited, err := h.workflowService.AddLoopbackFlow(c.Context(), c.Params("id"), req.SrcID, req.DestID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(edited)
}

func (h *APIHandlers) AddConditionalFlow(c fiber.Ctx) error {
	var req ConditionalFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	edited, err := h.workflowService.AddConditionalFlow(c.Context(), c.Params("id"), req.SrcID, req.DestID, *req.Branch)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(edited)
}

// bindFlowRequest decodes and validates a flow request. When ok is false the
// problem response has already been written and err is its result.
func (h *APIHandlers) bindFlowRequest(c fiber.Ctx) (FlowRequest, bool, error) {
	var req FlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return req, false, badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return req, false, badRequest(c, err.Error())
	}

	return req, true, nil
}
