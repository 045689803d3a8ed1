package workflow

import (
	"slices"

	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/store"
)

// Adjacency maps each element id to the ids it leads to. Edges come from
// flows and from each phase to the listeners scoped to it.
func Adjacency(workflow models.Workflow) map[string][]string {
	adjacency := make(map[string][]string)

	for _, flow := range workflow.Elements.Flows {
		adjacency[flow.SrcID] = append(adjacency[flow.SrcID], flow.DestID)
	}

	for _, listener := range workflow.Elements.EventListeners {
		if listener.IsGlobal() {
			continue
		}

		phaseID := *listener.PhaseID
		adjacency[phaseID] = append(adjacency[phaseID], listener.ID)
	}

	return adjacency
}

// IsReachable reports whether targetID can be reached from any global
// listener by following flows and phase embeddings.
func IsReachable(workflow models.Workflow, targetID string) bool {
	adjacency := Adjacency(workflow)

	for _, root := range GlobalListeners(workflow) {
		if reaches(adjacency, root.ID, targetID) {
			return true
		}
	}

	return false
}

func reaches(adjacency map[string][]string, rootID, targetID string) bool {
	visited := map[string]bool{rootID: true}
	queue := []string{rootID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == targetID {
			return true
		}

		for _, next := range adjacency[current] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	return false
}

// GlobalListeners returns the listeners that are not scoped to a phase.
func GlobalListeners(workflow models.Workflow) []models.EventListener {
	return store.EventListeners.Where(workflow, models.EventListener.IsGlobal)
}

// PhaseListeners returns the listeners scoped to the given phase.
func PhaseListeners(workflow models.Workflow, phaseID string) []models.EventListener {
	return store.EventListeners.Where(workflow, func(listener models.EventListener) bool {
		return listener.ScopedTo(phaseID)
	})
}

// IncomingFlows returns the flows whose destination is elementID.
func IncomingFlows(workflow models.Workflow, elementID string) []models.Flow {
	return store.Flows.Where(workflow, func(flow models.Flow) bool {
		return flow.DestID == elementID
	})
}

// OutgoingFlows returns the flows whose source is elementID.
func OutgoingFlows(workflow models.Workflow, elementID string) []models.Flow {
	return store.Flows.Where(workflow, func(flow models.Flow) bool {
		return flow.SrcID == elementID
	})
}

// AttachedFlows returns the flows that start or end at elementID.
func AttachedFlows(workflow models.Workflow, elementID string) []models.Flow {
	return store.Flows.Where(workflow, func(flow models.Flow) bool {
		return flow.SrcID == elementID || flow.DestID == elementID
	})
}

func withoutFlow(flows []models.Flow, flowID string) []models.Flow {
	return slices.DeleteFunc(slices.Clone(flows), func(flow models.Flow) bool {
		return flow.ID == flowID
	})
}
