package services

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/otelhelper"
	"github.com/dukex/procflow/pkg/persistence"
	"github.com/dukex/procflow/pkg/schema"
	"github.com/dukex/procflow/pkg/store"
	"github.com/dukex/procflow/pkg/workflow"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

// collectionKinds maps the element collection names used in documents and
// routes to the element type they hold.
var collectionKinds = map[string]models.ElementType{
	store.EventListeners.Name:   models.ElementTypeEventListener,
	store.EventDispatchers.Name: models.ElementTypeEventDispatcher,
	store.Gateways.Name:         models.ElementTypeGateway,
	store.Phases.Name:           models.ElementTypePhase,
	store.Flows.Name:            models.ElementTypeFlow,
}

// Workflow edits stored workflow documents. Every edit loads the document,
// applies one integrity-checked change and saves the result.
type Workflow struct {
	persistence persistence.Persistence
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewWorkflow creates a new workflow service. A nil tracer records nothing.
func NewWorkflow(persistence persistence.Persistence, logger *slog.Logger, tracer trace.Tracer) *Workflow {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Workflow{
		persistence: persistence,
		logger:      logger,
		tracer:      tracer,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns every stored workflow.
func (w *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.workflow.list")
	defer span.End()

	workflows, err := w.persistence.Workflows(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.workflow.fetch",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	current, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return current, nil
}

// Create stores a new workflow built from the default template under a fresh id.
func (w *Workflow) Create(ctx context.Context) (*models.Workflow, error) {
	id := uuid.New().String()

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.workflow.create",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	created, err := workflow.NewTemplate(id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to build workflow template: %w", err)
	}

	if err := w.persistence.SaveWorkflow(ctx, &created); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "Workflow created", "workflow_id", id)

	return &created, nil
}

// Save replaces the stored document addressed by id. The document is
// schema-validated first; its id defaults to the addressed one.
func (w *Workflow) Save(ctx context.Context, id string, document *models.Workflow) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.workflow.save",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	if document == nil {
		otelhelper.SetError(span, ErrWorkflowNil)

		return nil, ErrWorkflowNil
	}

	saved := *document
	if saved.ID == "" {
		saved.ID = id
	}

	if saved.ID != id {
		err := NewValidationError("Save", "ID_MISMATCH",
			fmt.Sprintf("document id %q does not match %q", saved.ID, id), ErrIDMismatch)
		otelhelper.SetError(span, err)

		return nil, err
	}

	if err := schema.ValidateWorkflow(saved); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if err := w.persistence.SaveWorkflow(ctx, &saved); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "Workflow saved", "workflow_id", id)

	return &saved, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.workflow.delete",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	if err := w.persistence.DeleteWorkflow(ctx, id); err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	w.logger.InfoContext(ctx, "Workflow deleted", "workflow_id", id)

	return nil
}

// Validate runs the full workflow validation on the stored document. A nil
// error means the workflow is valid.
func (w *Workflow) Validate(ctx context.Context, id string) error {
	current, err := w.FetchByID(ctx, id)
	if err != nil {
		return err
	}

	return workflow.Validate(*current)
}

// AddElement adds an element to the named collection. The candidate gets its
// id and elementType assigned; defaults are applied before the integrity checks.
func (w *Workflow) AddElement(ctx context.Context, id, collection string, candidate map[string]any) (*models.Workflow, error) {
	kind, err := collectionKind("AddElement", collection)
	if err != nil {
		return nil, err
	}

	return w.edit(ctx, "add_element", id, func(current models.Workflow) (models.Workflow, error) {
		return addElement(current, kind, candidate)
	}, attribute.String(otelhelper.ElementKindKey, string(kind)))
}

// UpdateElement shallow-merges patch onto an element of the named collection.
func (w *Workflow) UpdateElement(
	ctx context.Context,
	id, collection, elementID string,
	patch map[string]any,
) (*models.Workflow, error) {
	kind, err := collectionKind("UpdateElement", collection)
	if err != nil {
		return nil, err
	}

	return w.edit(ctx, "update_element", id, func(current models.Workflow) (models.Workflow, error) {
		element, found := store.FindElement(current, elementID)
		if !found || element.GetElementType() != kind {
			return current, &workflow.ElementNotFoundError{ID: elementID}
		}

		return workflow.Update(current, elementID, store.Patch(patch))
	}, attribute.String(otelhelper.ElementIDKey, elementID), attribute.String(otelhelper.ElementKindKey, string(kind)))
}

// RemoveElement removes an element together with everything that depends on it.
func (w *Workflow) RemoveElement(ctx context.Context, id, elementID string) (*models.Workflow, error) {
	return w.edit(ctx, "remove_element", id, func(current models.Workflow) (models.Workflow, error) {
		return workflow.Remove(current, elementID)
	}, attribute.String(otelhelper.ElementIDKey, elementID))
}

// AddFlow connects two elements.
func (w *Workflow) AddFlow(ctx context.Context, id, srcID, destID string) (*models.Workflow, error) {
	return w.edit(ctx, "add_flow", id, func(current models.Workflow) (models.Workflow, error) {
		return workflow.AddFlow(current, srcID, destID)
	}, flowAttributes(srcID, destID)...)
}

// AddLoopbackFlow adds the loopback flow of a LOOP gateway.
func (w *Workflow) AddLoopbackFlow(ctx context.Context, id, srcID, destID string) (*models.Workflow, error) {
	return w.edit(ctx, "add_loopback_flow", id, func(current models.Workflow) (models.Workflow, error) {
		return workflow.AddLoopbackFlow(current, srcID, destID)
	}, flowAttributes(srcID, destID)...)
}

// AddConditionalFlow adds the true or false branch of a CONDITIONAL gateway.
func (w *Workflow) AddConditionalFlow(
	ctx context.Context,
	id, srcID, destID string,
	branch bool,
) (*models.Workflow, error) {
	return w.edit(ctx, "add_conditional_flow", id, func(current models.Workflow) (models.Workflow, error) {
		return workflow.AddConditionalFlow(current, srcID, destID, branch)
	}, append(flowAttributes(srcID, destID), attribute.Bool("procflow.flow.branch", branch))...)
}

func (w *Workflow) edit(
	ctx context.Context,
	op, id string,
	mutate func(models.Workflow) (models.Workflow, error),
	attrs ...attribute.KeyValue,
) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.workflow."+op,
		append([]attribute.KeyValue{attribute.String(otelhelper.WorkflowIDKey, id)}, attrs...)...)
	defer span.End()

	current, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	next, err := mutate(*current)
	if err != nil {
		otelhelper.SetError(span, err)
		w.logger.InfoContext(ctx, "Workflow edit refused", "workflow_id", id, "op", op, "error", err)

		return nil, err
	}

	if err := w.persistence.SaveWorkflow(ctx, &next); err != nil {
		otelhelper.SetError(span, err)
		w.logger.ErrorContext(ctx, "Failed to save workflow", "workflow_id", id, "op", op, "error", err)

		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "Workflow edited", "workflow_id", id, "op", op)

	return &next, nil
}

func collectionKind(op, collection string) (models.ElementType, error) {
	kind, ok := collectionKinds[collection]
	if !ok {
		return "", NewValidationError(op, "UNKNOWN_COLLECTION",
			fmt.Sprintf("unknown element collection %q", collection), ErrUnknownCollection)
	}

	return kind, nil
}

func flowAttributes(srcID, destID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(otelhelper.FlowSourceKey, srcID),
		attribute.String(otelhelper.FlowDestKey, destID),
	}
}

func addElement(current models.Workflow, kind models.ElementType, candidate map[string]any) (models.Workflow, error) {
	candidate = maps.Clone(candidate)
	if candidate == nil {
		candidate = make(map[string]any)
	}

	candidate["elementType"] = string(kind)

	switch kind {
	case models.ElementTypeEventListener:
		candidate["id"] = store.EventListeners.UniqueID(current)

		listener, err := schema.NormalizeEventListener(candidate)
		if err != nil {
			return current, err
		}

		return workflow.AddEventListener(current, listener)
	case models.ElementTypeEventDispatcher:
		candidate["id"] = store.EventDispatchers.UniqueID(current)

		dispatcher, err := schema.NormalizeEventDispatcher(candidate)
		if err != nil {
			return current, err
		}

		return workflow.AddEventDispatcher(current, dispatcher)
	case models.ElementTypeGateway:
		candidate["id"] = store.Gateways.UniqueID(current)

		gateway, err := schema.NormalizeGateway(candidate)
		if err != nil {
			return current, err
		}

		return workflow.AddGateway(current, gateway)
	case models.ElementTypePhase:
		candidate["id"] = store.Phases.UniqueID(current)

		phase, err := schema.NormalizePhase(candidate)
		if err != nil {
			return current, err
		}

		return workflow.AddPhase(current, phase)
	default:
		candidate["id"] = store.Flows.UniqueID(current)

		srcID, srcOK := candidate["srcId"].(string)
		destID, destOK := candidate["destId"].(string)

		if srcOK && destOK && srcID != "" && destID != "" {
			if err := workflow.CheckConnection(current, srcID, destID); err != nil {
				return current, err
			}
		}

		flow, err := schema.NormalizeFlow(candidate)
		if err != nil {
			return current, err
		}

		return workflow.AddFlow(current, flow.SrcID, flow.DestID)
	}
}
