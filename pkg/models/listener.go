package models

import "encoding/json"

// EventListenerType represents the trigger a listener waits for.
type EventListenerType string

const (
	EventListenerTypeStart     EventListenerType = "START"
	EventListenerTypeCondition EventListenerType = "CONDITION"
	EventListenerTypeApproval  EventListenerType = "APPROVAL"
	EventListenerTypeTimer     EventListenerType = "TIMER"
)

// EventListener waits for an external trigger. A listener without a PhaseID is
// global and acts as a traversal root; otherwise it is scoped to its phase.
type EventListener struct {
	ID           string            `json:"id"           validate:"required"`
	ElementType  ElementType       `json:"elementType"  validate:"eq=EVENT_LISTENER"`
	Type         EventListenerType `json:"type"         validate:"required,oneof=START CONDITION APPROVAL TIMER"`
	PhaseID      *string           `json:"phaseId"`
	Interrupting bool              `json:"interrupting"`

	// Condition is only set on CONDITION listeners.
	Condition *Condition `json:"condition,omitempty"`
	// DurationInMS is only set on TIMER listeners.
	DurationInMS *int64 `json:"durationInMS,omitempty" validate:"omitempty,min=0"`
}

func (l EventListener) GetID() string               { return l.ID }
func (l EventListener) GetElementType() ElementType { return ElementTypeEventListener }

// IsGlobal reports whether the listener is not attached to any phase.
func (l EventListener) IsGlobal() bool {
	return l.PhaseID == nil
}

// IsStart reports whether the listener is the process start trigger.
func (l EventListener) IsStart() bool {
	return l.Type == EventListenerTypeStart
}

// ScopedTo reports whether the listener is attached to the given phase.
func (l EventListener) ScopedTo(phaseID string) bool {
	return l.PhaseID != nil && *l.PhaseID == phaseID
}

// Clone returns a copy of the listener that shares no pointers with l.
func (l EventListener) Clone() EventListener {
	l.PhaseID = clonePtr(l.PhaseID)
	l.Condition = l.Condition.Clone()
	l.DurationInMS = clonePtr(l.DurationInMS)

	return l
}

// MarshalJSON emits the variant fields that belong to the listener type only.
func (l EventListener) MarshalJSON() ([]byte, error) {
	doc := map[string]any{
		"id":           l.ID,
		"elementType":  l.ElementType,
		"type":         l.Type,
		"phaseId":      l.PhaseID,
		"interrupting": l.Interrupting,
	}

	if l.Condition != nil {
		doc["condition"] = l.Condition
	}

	if l.DurationInMS != nil {
		doc["durationInMS"] = l.DurationInMS
	}

	return json.Marshal(doc)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}

// StringPtr returns a pointer to s, handy for optional id references.
func StringPtr(s string) *string {
	return &s
}
