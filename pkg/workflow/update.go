package workflow

import (
	"maps"
	"slices"

	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/store"
)

// Update applies patch to the element with the given id using the rules of
// its element family.
func Update(workflow models.Workflow, id string, patch store.Patch) (models.Workflow, error) {
	element, ok := store.FindElement(workflow, id)
	if !ok {
		return workflow, &ElementNotFoundError{ID: id}
	}

	switch element.(type) {
	case models.EventListener:
		return UpdateEventListener(workflow, id, patch)
	case models.EventDispatcher:
		return UpdateEventDispatcher(workflow, id, patch)
	case models.Gateway:
		return UpdateGateway(workflow, id, patch)
	case models.Phase:
		return UpdatePhase(workflow, id, patch)
	case models.Flow:
		return UpdateFlow(workflow, id, patch)
	default:
		return workflow, &ElementNotFoundError{ID: id}
	}
}

// UpdateEventListener patches a listener. The workflow must keep its START
// listener and may not gain a second one.
func UpdateEventListener(workflow models.Workflow, id string, patch store.Patch) (models.Workflow, error) {
	next, err := store.EventListeners.Update(workflow, id, patch)
	if err != nil {
		return workflow, err
	}

	listener, _ := store.EventListeners.GetByID(next, id)
	if err := checkPhaseReference(next, listener.PhaseID); err != nil {
		return workflow, err
	}

	before, after := len(workflow.StartListeners()), len(next.StartListeners())

	switch {
	case after > 1 && after > before:
		return workflow, &IncorrectAmountOfStartEventListenersError{Count: after}
	case after == 0 && before > 0:
		return workflow, &IncorrectAmountOfStartEventListenersError{Count: after}
	}

	return next, nil
}

// UpdateEventDispatcher patches a dispatcher. The last END dispatcher cannot
// change its type.
func UpdateEventDispatcher(workflow models.Workflow, id string, patch store.Patch) (models.Workflow, error) {
	next, err := store.EventDispatchers.Update(workflow, id, patch)
	if err != nil {
		return workflow, err
	}

	if len(next.EndDispatchers()) == 0 && len(workflow.EndDispatchers()) > 0 {
		return workflow, &NoEndEventDispatcherError{}
	}

	return next, nil
}

// UpdateGateway patches a gateway. Flow pointers must name outgoing flows of
// the gateway and its existing flows must fit the limits of its type.
func UpdateGateway(workflow models.Workflow, id string, patch store.Patch) (models.Workflow, error) {
	next, err := store.Gateways.Update(workflow, id, patch)
	if err != nil {
		return workflow, err
	}

	gateway, _ := store.Gateways.GetByID(next, id)
	if err := checkFlowReferences(next, gateway); err != nil {
		return workflow, err
	}

	if limit := gateway.MaxIncomingFlows(); limit >= 0 {
		if incoming := IncomingFlows(next, id); len(incoming) > limit {
			return workflow, &IncorrectAmountOfIncomingFlowsError{Element: gateway, Flows: incoming, Max: limit}
		}
	}

	if limit := gateway.MaxOutgoingFlows(); limit >= 0 {
		if outgoing := OutgoingFlows(next, id); len(outgoing) > limit {
			return workflow, &IncorrectAmountOfOutgoingFlowsError{Element: gateway, Flows: outgoing, Max: limit}
		}
	}

	return next, nil
}

// UpdatePhase patches a phase.
func UpdatePhase(workflow models.Workflow, id string, patch store.Patch) (models.Workflow, error) {
	return store.Phases.Update(workflow, id, patch)
}

// UpdateFlow moves a flow to new endpoints under the same rules as AddFlow.
// A flow leaving its source gateway is cleared from that gateway's pointers.
func UpdateFlow(workflow models.Workflow, id string, patch store.Patch) (models.Workflow, error) {
	previous, ok := store.Flows.GetByID(workflow, id)
	if !ok {
		return workflow, &ElementNotFoundError{ID: id}
	}

	srcID, srcOK := patchedEndpoint(patch, "srcId", previous.SrcID)
	destID, destOK := patchedEndpoint(patch, "destId", previous.DestID)

	// Malformed endpoints are left to the schema check of the merged flow.
	if srcOK && destOK {
		if err := checkConnection(workflow, srcID, destID, id); err != nil {
			return workflow, err
		}
	}

	next, err := store.Flows.Update(workflow, id, patch)
	if err != nil {
		return workflow, err
	}

	if srcID != previous.SrcID {
		next, err = clearFlowReferences(next, id)
		if err != nil {
			return workflow, err
		}
	}

	return next, nil
}

func patchedEndpoint(patch store.Patch, field, current string) (string, bool) {
	value, ok := patch[field]
	if !ok {
		return current, true
	}

	id, ok := value.(string)

	return id, ok && id != ""
}

func checkFlowReferences(workflow models.Workflow, gateway models.Gateway) error {
	references := gateway.FlowReferences()

	for _, field := range slices.Sorted(maps.Keys(references)) {
		flowID := references[field]
		if flowID == nil {
			continue
		}

		flow, ok := store.Flows.GetByID(workflow, *flowID)
		if !ok || flow.SrcID != gateway.ID {
			return &InvalidFlowReferenceError{Gateway: gateway, Field: field, FlowID: *flowID}
		}
	}

	return nil
}
