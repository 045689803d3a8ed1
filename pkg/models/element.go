// Package models defines the element graph of a process workflow definition.
package models

// ElementType discriminates the five element families of a workflow.
type ElementType string

const (
	ElementTypeEventListener   ElementType = "EVENT_LISTENER"
	ElementTypeEventDispatcher ElementType = "EVENT_DISPATCHER"
	ElementTypeGateway         ElementType = "GATEWAY"
	ElementTypePhase           ElementType = "PHASE"
	ElementTypeFlow            ElementType = "FLOW"
)

// ElementTypes lists every element family in document order.
var ElementTypes = []ElementType{
	ElementTypeEventListener,
	ElementTypeEventDispatcher,
	ElementTypeGateway,
	ElementTypePhase,
	ElementTypeFlow,
}

// Element is implemented by every workflow element variant.
type Element interface {
	GetID() string
	GetElementType() ElementType
}

// EventDispatcherType represents the kind of event emitted by a dispatcher.
type EventDispatcherType string

const (
	EventDispatcherTypeEnd   EventDispatcherType = "END"
	EventDispatcherTypeAlert EventDispatcherType = "ALERT"
)

// EventDispatcher emits an event when control reaches it. It never has outgoing flows.
type EventDispatcher struct {
	ID          string              `json:"id"          validate:"required"`
	ElementType ElementType         `json:"elementType" validate:"eq=EVENT_DISPATCHER"`
	Type        EventDispatcherType `json:"type"        validate:"required,oneof=END ALERT"`
}

func (d EventDispatcher) GetID() string               { return d.ID }
func (d EventDispatcher) GetElementType() ElementType { return ElementTypeEventDispatcher }
func (d EventDispatcher) Clone() EventDispatcher       { return d }

// IsEnd reports whether the dispatcher terminates the process.
func (d EventDispatcher) IsEnd() bool {
	return d.Type == EventDispatcherTypeEnd
}

// Flow is a directed edge between two non-flow elements.
type Flow struct {
	ID          string      `json:"id"          validate:"required"`
	ElementType ElementType `json:"elementType" validate:"eq=FLOW"`
	SrcID       string      `json:"srcId"       validate:"required"`
	DestID      string      `json:"destId"      validate:"required"`
}

func (f Flow) GetID() string               { return f.ID }
func (f Flow) GetElementType() ElementType { return ElementTypeFlow }
func (f Flow) Clone() Flow                 { return f }
