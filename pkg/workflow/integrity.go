package workflow

import (
	"fmt"
	"slices"

	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/store"
)

// ConnectionMap lists, per source element type, the element types a flow may lead to.
var ConnectionMap = map[models.ElementType][]models.ElementType{
	models.ElementTypeEventListener:   {models.ElementTypeEventDispatcher, models.ElementTypeGateway, models.ElementTypePhase},
	models.ElementTypeGateway:         {models.ElementTypeEventDispatcher, models.ElementTypeGateway, models.ElementTypePhase},
	models.ElementTypeEventDispatcher: {},
	models.ElementTypePhase:           {},
}

// CanConnect reports whether a flow may lead from an element of type src to one of type dest.
func CanConnect(src, dest models.ElementType) bool {
	return slices.Contains(ConnectionMap[src], dest)
}

// AllowedDestinations returns the element types a flow from src may lead to.
func AllowedDestinations(src models.ElementType) []models.ElementType {
	return slices.Clone(ConnectionMap[src])
}

// AddEventListener adds a listener. A second START listener is refused and a
// phaseId must name an existing phase.
func AddEventListener(workflow models.Workflow, listener models.EventListener) (models.Workflow, error) {
	if listener.IsStart() {
		if starts := len(workflow.StartListeners()); starts > 0 {
			return workflow, &IncorrectAmountOfStartEventListenersError{Count: starts + 1}
		}
	}

	if err := checkPhaseReference(workflow, listener.PhaseID); err != nil {
		return workflow, err
	}

	return store.EventListeners.Add(workflow, listener)
}

// AddEventDispatcher adds a dispatcher.
func AddEventDispatcher(workflow models.Workflow, dispatcher models.EventDispatcher) (models.Workflow, error) {
	return store.EventDispatchers.Add(workflow, dispatcher)
}

// AddGateway adds a gateway. Flow pointers cannot be set on a new gateway
// since it has no outgoing flows yet.
func AddGateway(workflow models.Workflow, gateway models.Gateway) (models.Workflow, error) {
	for field, flowID := range gateway.FlowReferences() {
		if flowID != nil {
			return workflow, &InvalidFlowReferenceError{Gateway: gateway, Field: field, FlowID: *flowID}
		}
	}

	return store.Gateways.Add(workflow, gateway)
}

// AddPhase adds a phase.
func AddPhase(workflow models.Workflow, phase models.Phase) (models.Workflow, error) {
	return store.Phases.Add(workflow, phase)
}

// AddFlow connects srcID to destID once the connection rules allow it.
func AddFlow(workflow models.Workflow, srcID, destID string) (models.Workflow, error) {
	if err := checkConnection(workflow, srcID, destID, ""); err != nil {
		return workflow, err
	}

	return store.Flows.Add(workflow, models.Flow{SrcID: srcID, DestID: destID})
}

// AddLoopbackFlow adds a flow from a LOOP gateway and records it as the
// gateway's loopback flow.
func AddLoopbackFlow(workflow models.Workflow, srcID, destID string) (models.Workflow, error) {
	if _, err := gatewayOfType(workflow, srcID, models.GatewayTypeLoop); err != nil {
		return workflow, err
	}

	return addReferencedFlow(workflow, srcID, destID, "loopbackFlowId")
}

// AddConditionalFlow adds a flow from a CONDITIONAL gateway and records it as
// the branch taken when the gateway condition evaluates to branch.
func AddConditionalFlow(workflow models.Workflow, srcID, destID string, branch bool) (models.Workflow, error) {
	if _, err := gatewayOfType(workflow, srcID, models.GatewayTypeConditional); err != nil {
		return workflow, err
	}

	field := "falseFlowId"
	if branch {
		field = "trueFlowId"
	}

	return addReferencedFlow(workflow, srcID, destID, field)
}

func addReferencedFlow(workflow models.Workflow, srcID, destID, field string) (models.Workflow, error) {
	next, err := AddFlow(workflow, srcID, destID)
	if err != nil {
		return workflow, err
	}

	flow, _ := store.Flows.GetLast(next)

	next, err = store.Gateways.Update(next, srcID, store.Patch{field: flow.ID})
	if err != nil {
		return workflow, err
	}

	return next, nil
}

func gatewayOfType(workflow models.Workflow, id string, gatewayType models.GatewayType) (models.Gateway, error) {
	element, ok := store.FindElement(workflow, id)
	if !ok {
		return models.Gateway{}, &ElementNotFoundError{ID: id}
	}

	gateway, ok := element.(models.Gateway)
	if !ok || gateway.Type != gatewayType {
		return models.Gateway{}, &IncorrectElementTypeError{Element: element, Expected: string(gatewayType) + " gateway"}
	}

	return gateway, nil
}

// checkConnection applies the connection rules to a flow from srcID to
// destID. The flow named by excludeID is ignored when counting flows.
// CheckConnection reports whether a new flow from srcID to destID would be
// accepted by AddFlow, without adding it.
func CheckConnection(workflow models.Workflow, srcID, destID string) error {
	return checkConnection(workflow, srcID, destID, "")
}

func checkConnection(workflow models.Workflow, srcID, destID, excludeID string) error {
	src, ok := store.FindElement(workflow, srcID)
	if !ok {
		return &ElementNotFoundError{ID: srcID}
	}

	dest, ok := store.FindElement(workflow, destID)
	if !ok {
		return &ElementNotFoundError{ID: destID}
	}

	if srcID == destID {
		return &ForbiddenConnectionError{Source: src, Destination: dest, Reason: "cannot connect an element to itself"}
	}

	if src.GetElementType() == models.ElementTypeFlow || dest.GetElementType() == models.ElementTypeFlow {
		return &ForbiddenConnectionError{Source: src, Destination: dest, Reason: "flows cannot be connected"}
	}

	if !CanConnect(src.GetElementType(), dest.GetElementType()) {
		return &ForbiddenConnectionError{
			Source:      src,
			Destination: dest,
			Reason:      fmt.Sprintf("%s cannot lead to %s", src.GetElementType(), dest.GetElementType()),
		}
	}

	if limit := maxIncomingFlows(dest); limit >= 0 {
		incoming := withoutFlow(IncomingFlows(workflow, destID), excludeID)
		if len(incoming) >= limit {
			return &IncorrectAmountOfIncomingFlowsError{Element: dest, Flows: incoming, Max: limit}
		}
	}

	if limit := maxOutgoingFlows(src); limit >= 0 {
		outgoing := withoutFlow(OutgoingFlows(workflow, srcID), excludeID)
		if len(outgoing) >= limit {
			return &IncorrectAmountOfOutgoingFlowsError{Element: src, Flows: outgoing, Max: limit}
		}
	}

	return nil
}

func maxIncomingFlows(element models.Element) int {
	switch element := element.(type) {
	case models.Phase:
		return 1
	case models.Gateway:
		return element.MaxIncomingFlows()
	default:
		return -1
	}
}

func maxOutgoingFlows(element models.Element) int {
	if gateway, ok := element.(models.Gateway); ok {
		return gateway.MaxOutgoingFlows()
	}

	return -1
}

func checkPhaseReference(workflow models.Workflow, phaseID *string) error {
	if phaseID == nil {
		return nil
	}

	if _, ok := store.Phases.GetByID(workflow, *phaseID); !ok {
		return &ElementNotFoundError{ID: *phaseID}
	}

	return nil
}
