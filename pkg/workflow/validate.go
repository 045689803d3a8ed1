package workflow

import (
	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/schema"
)

// Validate checks a whole workflow and returns the first violated rule:
// document schema, a single START listener, at least one phase, at least
// one END dispatcher, then reachability of every phase and END dispatcher.
func Validate(workflow models.Workflow) error {
	if err := schema.ValidateWorkflow(workflow); err != nil {
		return err
	}

	if starts := workflow.StartListeners(); len(starts) != 1 {
		return &IncorrectAmountOfStartEventListenersError{Count: len(starts)}
	}

	if len(workflow.Elements.Phases) == 0 {
		return &NoPhasesError{}
	}

	ends := workflow.EndDispatchers()
	if len(ends) == 0 {
		return &NoEndEventDispatcherError{}
	}

	for _, phase := range workflow.Elements.Phases {
		if !IsReachable(workflow, phase.ID) {
			return &UnreachablePhaseError{Phase: phase}
		}
	}

	for _, dispatcher := range ends {
		if !IsReachable(workflow, dispatcher.ID) {
			return &UnreachableEndEventDispatcherError{EventDispatcher: dispatcher}
		}
	}

	return nil
}
