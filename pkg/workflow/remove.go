package workflow

import (
	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/store"
)

// Remove deletes the element with the given id together with everything that
// depends on it.
func Remove(workflow models.Workflow, id string) (models.Workflow, error) {
	element, ok := store.FindElement(workflow, id)
	if !ok {
		return workflow, &ElementNotFoundError{ID: id}
	}

	switch element.(type) {
	case models.EventListener:
		return RemoveEventListener(workflow, id)
	case models.EventDispatcher:
		return RemoveEventDispatcher(workflow, id)
	case models.Gateway:
		return RemoveGateway(workflow, id)
	case models.Phase:
		return RemovePhase(workflow, id)
	case models.Flow:
		return RemoveFlow(workflow, id)
	default:
		return workflow, &ElementNotFoundError{ID: id}
	}
}

// RemoveFlow deletes a flow and clears every gateway pointer naming it.
func RemoveFlow(workflow models.Workflow, id string) (models.Workflow, error) {
	if _, ok := store.Flows.GetByID(workflow, id); !ok {
		return workflow, &ElementNotFoundError{ID: id}
	}

	next, err := clearFlowReferences(store.Flows.Remove(workflow, id), id)
	if err != nil {
		return workflow, err
	}

	return next, nil
}

// clearFlowReferences resets every gateway pointer naming flowID to null.
func clearFlowReferences(workflow models.Workflow, flowID string) (models.Workflow, error) {
	next := workflow

	for _, gateway := range workflow.Elements.Gateways {
		patch := store.Patch{}

		for field, ref := range gateway.FlowReferences() {
			if ref != nil && *ref == flowID {
				patch[field] = nil
			}
		}

		if len(patch) == 0 {
			continue
		}

		var err error

		next, err = store.Gateways.Update(next, gateway.ID, patch)
		if err != nil {
			return workflow, err
		}
	}

	return next, nil
}

// RemoveEventListener deletes a listener and its flows. The sole START
// listener cannot be removed.
func RemoveEventListener(workflow models.Workflow, id string) (models.Workflow, error) {
	listener, ok := store.EventListeners.GetByID(workflow, id)
	if !ok {
		return workflow, &ElementNotFoundError{ID: id}
	}

	if listener.IsStart() {
		if starts := len(workflow.StartListeners()); starts == 1 {
			return workflow, &IncorrectAmountOfStartEventListenersError{Count: starts - 1}
		}
	}

	return removeWithFlows(workflow, id, store.EventListeners.Remove)
}

// RemoveEventDispatcher deletes a dispatcher and its flows. The last END
// dispatcher cannot be removed.
func RemoveEventDispatcher(workflow models.Workflow, id string) (models.Workflow, error) {
	dispatcher, ok := store.EventDispatchers.GetByID(workflow, id)
	if !ok {
		return workflow, &ElementNotFoundError{ID: id}
	}

	if dispatcher.IsEnd() && len(workflow.EndDispatchers()) == 1 {
		return workflow, &NoEndEventDispatcherError{}
	}

	return removeWithFlows(workflow, id, store.EventDispatchers.Remove)
}

// RemoveGateway deletes a gateway and its flows.
func RemoveGateway(workflow models.Workflow, id string) (models.Workflow, error) {
	if _, ok := store.Gateways.GetByID(workflow, id); !ok {
		return workflow, &ElementNotFoundError{ID: id}
	}

	return removeWithFlows(workflow, id, store.Gateways.Remove)
}

// RemovePhase deletes a phase, its flows and every listener scoped to it
// along with their flows. The last phase cannot be removed, and neither can a
// phase holding the sole START listener.
func RemovePhase(workflow models.Workflow, id string) (models.Workflow, error) {
	if _, ok := store.Phases.GetByID(workflow, id); !ok {
		return workflow, &ElementNotFoundError{ID: id}
	}

	if len(workflow.Elements.Phases) == 1 {
		return workflow, &NoPhasesError{}
	}

	scoped := PhaseListeners(workflow, id)

	scopedStarts := 0

	for _, listener := range scoped {
		if listener.IsStart() {
			scopedStarts++
		}
	}

	if scopedStarts > 0 && scopedStarts == len(workflow.StartListeners()) {
		return workflow, &IncorrectAmountOfStartEventListenersError{Count: 0}
	}

	next, err := removeWithFlows(workflow, id, store.Phases.Remove)
	if err != nil {
		return workflow, err
	}

	for _, listener := range scoped {
		next, err = removeWithFlows(next, listener.ID, store.EventListeners.Remove)
		if err != nil {
			return workflow, err
		}
	}

	return next, nil
}

// removeWithFlows applies the collection primitive, then removes every flow
// attached to the removed element.
func removeWithFlows(
	workflow models.Workflow,
	id string,
	remove func(models.Workflow, string) models.Workflow,
) (models.Workflow, error) {
	attached := AttachedFlows(workflow, id)
	next := remove(workflow, id)

	for _, flow := range attached {
		var err error

		next, err = RemoveFlow(next, flow.ID)
		if err != nil {
			return workflow, err
		}
	}

	return next, nil
}
