package models

import "slices"

// CommandType represents an instruction executed when a phase starts.
type CommandType string

const (
	CommandTypeSetTargets CommandType = "SET_TARGETS"
)

// Target overrides the value of an input slot while the phase is active.
// Target holds a string, a float64 or a bool.
type Target struct {
	FctID    string `json:"fctId"    validate:"required"`
	SlotName string `json:"slotName" validate:"required"`
	Target   any    `json:"target"`
}

// Command is executed when its phase starts.
type Command struct {
	Type    CommandType `json:"type"    validate:"required,oneof=SET_TARGETS"`
	Targets []Target    `json:"targets" validate:"dive"`
}

// Phase is a stage of the process. It never has outgoing flows; its scoped
// listeners carry control further.
type Phase struct {
	ID          string      `json:"id"          validate:"required"`
	ElementType ElementType `json:"elementType" validate:"eq=PHASE"`
	Commands    []Command   `json:"commands"    validate:"dive"`
}

func (p Phase) GetID() string               { return p.ID }
func (p Phase) GetElementType() ElementType { return ElementTypePhase }

// Clone returns a copy of the phase that shares no command slices with p.
func (p Phase) Clone() Phase {
	if p.Commands == nil {
		return p
	}

	commands := make([]Command, len(p.Commands))
	for i, command := range p.Commands {
		commands[i] = Command{Type: command.Type, Targets: slices.Clone(command.Targets)}
	}

	p.Commands = commands

	return p
}

// Target returns the SET_TARGETS entry defined by the phase for an input slot.
func (p Phase) Target(fctID, slotName string) (Target, bool) {
	for _, command := range p.Commands {
		if command.Type != CommandTypeSetTargets {
			continue
		}

		for _, target := range command.Targets {
			if target.FctID == fctID && target.SlotName == slotName {
				return target, true
			}
		}
	}

	return Target{}, false
}
