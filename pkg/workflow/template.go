package workflow

import (
	"fmt"

	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/store"
)

// TemplateVersion is the version assigned to workflows built by NewTemplate.
const TemplateVersion = "1"

// NewTemplate builds the smallest valid workflow: a START listener leading to
// a phase whose APPROVAL listener leads to the END dispatcher.
func NewTemplate(id string) (models.Workflow, error) {
	workflow, err := AddEventListener(models.Workflow{ID: id, Version: TemplateVersion},
		models.EventListener{Type: models.EventListenerTypeStart})
	if err != nil {
		return models.Workflow{}, fmt.Errorf("failed to add start listener: %w", err)
	}

	start, _ := store.EventListeners.GetLast(workflow)

	if workflow, err = AddPhase(workflow, models.Phase{}); err != nil {
		return models.Workflow{}, fmt.Errorf("failed to add phase: %w", err)
	}

	phase, _ := store.Phases.GetLast(workflow)

	workflow, err = AddEventListener(workflow, models.EventListener{
		Type:    models.EventListenerTypeApproval,
		PhaseID: models.StringPtr(phase.ID),
	})
	if err != nil {
		return models.Workflow{}, fmt.Errorf("failed to add approval listener: %w", err)
	}

	approval, _ := store.EventListeners.GetLast(workflow)

	if workflow, err = AddEventDispatcher(workflow, models.EventDispatcher{Type: models.EventDispatcherTypeEnd}); err != nil {
		return models.Workflow{}, fmt.Errorf("failed to add end dispatcher: %w", err)
	}

	end, _ := store.EventDispatchers.GetLast(workflow)

	if workflow, err = AddFlow(workflow, start.ID, phase.ID); err != nil {
		return models.Workflow{}, fmt.Errorf("failed to connect start listener: %w", err)
	}

	if workflow, err = AddFlow(workflow, approval.ID, end.ID); err != nil {
		return models.Workflow{}, fmt.Errorf("failed to connect approval listener: %w", err)
	}

	return workflow, nil
}
