// Package workflow enforces the cross-element rules of a process workflow:
// the connection matrix, flow cardinality, cascading removal, gateway flow
// pointers and the reachability of phases and END dispatchers.
package workflow

import (
	"errors"
	"fmt"

	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/store"
)

// Error categories.
var (
	// ErrRuleViolation marks workflow-level semantic failures.
	ErrRuleViolation = errors.New("rule violation")

	// ErrConfiguration marks graph edits that are not allowed.
	ErrConfiguration = errors.New("configuration error")
)

// NoPhasesError indicates a workflow without any phase.
type NoPhasesError struct{}

func (e *NoPhasesError) Error() string {
	return "workflow must contain at least one phase"
}

func (e *NoPhasesError) Unwrap() error { return ErrRuleViolation }

// NoEndEventDispatcherError indicates a workflow without any END dispatcher.
type NoEndEventDispatcherError struct{}

func (e *NoEndEventDispatcherError) Error() string {
	return "workflow must contain at least one END event dispatcher"
}

func (e *NoEndEventDispatcherError) Unwrap() error { return ErrRuleViolation }

// IncorrectAmountOfStartEventListenersError indicates a workflow that would
// not have exactly one START listener.
type IncorrectAmountOfStartEventListenersError struct {
	Count int
}

func (e *IncorrectAmountOfStartEventListenersError) Error() string {
	return fmt.Sprintf("workflow must contain exactly one START event listener, found %d", e.Count)
}

func (e *IncorrectAmountOfStartEventListenersError) Unwrap() error { return ErrRuleViolation }

// UnreachablePhaseError indicates a phase that no global listener leads to.
type UnreachablePhaseError struct {
	Phase models.Phase
}

func (e *UnreachablePhaseError) Error() string {
	return fmt.Sprintf("phase %s is not reachable from any global event listener", e.Phase.ID)
}

func (e *UnreachablePhaseError) Unwrap() error { return ErrRuleViolation }

// UnreachableEndEventDispatcherError indicates an END dispatcher that no global listener leads to.
type UnreachableEndEventDispatcherError struct {
	EventDispatcher models.EventDispatcher
}

func (e *UnreachableEndEventDispatcherError) Error() string {
	return fmt.Sprintf("END event dispatcher %s is not reachable from any global event listener", e.EventDispatcher.ID)
}

func (e *UnreachableEndEventDispatcherError) Unwrap() error { return ErrRuleViolation }

// ForbiddenConnectionError indicates a flow between elements that cannot be connected.
type ForbiddenConnectionError struct {
	Source      models.Element
	Destination models.Element
	Reason      string
}

func (e *ForbiddenConnectionError) Error() string {
	return fmt.Sprintf("cannot connect %s to %s: %s", e.Source.GetID(), e.Destination.GetID(), e.Reason)
}

func (e *ForbiddenConnectionError) Unwrap() error { return ErrConfiguration }

// IncorrectAmountOfIncomingFlowsError indicates an element that would exceed its incoming flow limit.
type IncorrectAmountOfIncomingFlowsError struct {
	Element models.Element
	Flows   []models.Flow
	Max     int
}

func (e *IncorrectAmountOfIncomingFlowsError) Error() string {
	return fmt.Sprintf("%s accepts at most %d incoming flow(s), already has %d", e.Element.GetID(), e.Max, len(e.Flows))
}

func (e *IncorrectAmountOfIncomingFlowsError) Unwrap() error { return ErrConfiguration }

// IncorrectAmountOfOutgoingFlowsError indicates an element that would exceed its outgoing flow limit.
type IncorrectAmountOfOutgoingFlowsError struct {
	Element models.Element
	Flows   []models.Flow
	Max     int
}

func (e *IncorrectAmountOfOutgoingFlowsError) Error() string {
	return fmt.Sprintf("%s permits at most %d outgoing flow(s), already has %d", e.Element.GetID(), e.Max, len(e.Flows))
}

func (e *IncorrectAmountOfOutgoingFlowsError) Unwrap() error { return ErrConfiguration }

// IncorrectElementTypeError indicates an element of the wrong kind for the operation.
type IncorrectElementTypeError struct {
	Element  models.Element
	Expected string
}

func (e *IncorrectElementTypeError) Error() string {
	return fmt.Sprintf("%s is a %s, expected a %s", e.Element.GetID(), describeElement(e.Element), e.Expected)
}

func (e *IncorrectElementTypeError) Unwrap() error { return ErrConfiguration }

// InvalidFlowReferenceError indicates a gateway flow pointer that does not name
// one of the gateway's outgoing flows.
type InvalidFlowReferenceError struct {
	Gateway models.Gateway
	Field   string
	FlowID  string
}

func (e *InvalidFlowReferenceError) Error() string {
	return fmt.Sprintf("gateway %s: %s %q is not an outgoing flow of the gateway", e.Gateway.ID, e.Field, e.FlowID)
}

func (e *InvalidFlowReferenceError) Unwrap() error { return ErrConfiguration }

// ElementNotFoundError indicates an id that does not resolve to any element.
type ElementNotFoundError struct {
	ID string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %q not found", e.ID)
}

func (e *ElementNotFoundError) Unwrap() error { return store.ErrElementNotFound }

// IsRuleViolation checks if an error is a workflow-level rule violation.
func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrRuleViolation)
}

// IsConfigurationError checks if an error is a rejected graph edit.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsElementNotFound checks if an error indicates an unknown element id.
func IsElementNotFound(err error) bool {
	return errors.Is(err, store.ErrElementNotFound)
}

func describeElement(element models.Element) string {
	switch element := element.(type) {
	case models.EventListener:
		return string(element.Type) + " event listener"
	case models.EventDispatcher:
		return string(element.Type) + " event dispatcher"
	case models.Gateway:
		return string(element.Type) + " gateway"
	case models.Phase:
		return "phase"
	case models.Flow:
		return "flow"
	default:
		return string(element.GetElementType())
	}
}
