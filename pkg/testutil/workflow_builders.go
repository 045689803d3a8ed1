// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/procflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestWorkflow creates a small test workflow, a START listener flowing
// into phase_0, with values that can be overridden.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	workflow := &models.Workflow{
		ID:      uuid.New().String(),
		Version: "1",
		Elements: models.Elements{
			EventListeners: []models.EventListener{
				{ID: "event_listener_0", ElementType: models.ElementTypeEventListener, Type: models.EventListenerTypeStart},
			},
			Phases: []models.Phase{
				{ID: "phase_0", ElementType: models.ElementTypePhase, Commands: []models.Command{}},
			},
			Flows: []models.Flow{
				{ID: "flow_0", ElementType: models.ElementTypeFlow, SrcID: "event_listener_0", DestID: "phase_0"},
			},
		},
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithID sets the workflow id.
func WithID(id string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.ID = id
	}
}

// WithVersion sets the workflow version.
func WithVersion(version string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Version = version
	}
}

// WithLoopGateway appends a LOOP gateway allowing maxIterations rounds.
func WithLoopGateway(id string, maxIterations int) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Elements.Gateways = append(w.Elements.Gateways, models.Gateway{
			ID:            id,
			ElementType:   models.ElementTypeGateway,
			Type:          models.GatewayTypeLoop,
			MaxIterations: models.IntPtr(maxIterations),
		})
	}
}

// WithEndDispatcher appends an END dispatcher.
func WithEndDispatcher(id string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Elements.EventDispatchers = append(w.Elements.EventDispatchers, models.EventDispatcher{
			ID:          id,
			ElementType: models.ElementTypeEventDispatcher,
			Type:        models.EventDispatcherTypeEnd,
		})
	}
}
