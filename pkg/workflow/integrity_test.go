package workflow

import (
	"encoding/json"
	"testing"

	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/schema"
	"github.com/dukex/procflow/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// matrixWorkflow holds two elements of every family: event_listener_0/1,
// event_dispatcher_0/1, gateway_0/1, phase_0/1 and flow_0/1.
func matrixWorkflow(t *testing.T) models.Workflow {
	t.Helper()

	workflow := must(t)(AddEventListener(models.Workflow{ID: "wf1"}, models.EventListener{Type: models.EventListenerTypeStart}))
	workflow = must(t)(AddEventListener(workflow, models.EventListener{Type: models.EventListenerTypeApproval}))
	workflow = must(t)(AddEventDispatcher(workflow, models.EventDispatcher{Type: models.EventDispatcherTypeEnd}))
	workflow = must(t)(AddEventDispatcher(workflow, models.EventDispatcher{Type: models.EventDispatcherTypeAlert}))
	workflow = must(t)(AddGateway(workflow, models.Gateway{Type: models.GatewayTypeAndMerge}))
	workflow = must(t)(AddGateway(workflow, models.Gateway{Type: models.GatewayTypeAndMerge}))
	workflow = must(t)(AddPhase(workflow, models.Phase{}))
	workflow = must(t)(AddPhase(workflow, models.Phase{}))
	workflow = must(t)(AddFlow(workflow, "event_listener_0", "gateway_0"))

	return must(t)(AddFlow(workflow, "event_listener_1", "gateway_1"))
}

func TestAddFlow_ConnectionMatrix(t *testing.T) {
	ids := map[models.ElementType][2]string{
		models.ElementTypeEventListener:   {"event_listener_0", "event_listener_1"},
		models.ElementTypeEventDispatcher: {"event_dispatcher_0", "event_dispatcher_1"},
		models.ElementTypeGateway:         {"gateway_0", "gateway_1"},
		models.ElementTypePhase:           {"phase_0", "phase_1"},
		models.ElementTypeFlow:            {"flow_0", "flow_1"},
	}

	allowed := map[models.ElementType][]models.ElementType{
		models.ElementTypeEventListener: {models.ElementTypeEventDispatcher, models.ElementTypeGateway, models.ElementTypePhase},
		models.ElementTypeGateway:       {models.ElementTypeEventDispatcher, models.ElementTypeGateway, models.ElementTypePhase},
	}

	base := matrixWorkflow(t)

	for _, src := range models.ElementTypes {
		for _, dest := range models.ElementTypes {
			t.Run(string(src)+"->"+string(dest), func(t *testing.T) {
				next, err := AddFlow(base, ids[src][0], ids[dest][1])

				if contains(allowed[src], dest) {
					require.NoError(t, err)
					assert.Len(t, next.Elements.Flows, len(base.Elements.Flows)+1)

					return
				}

				var target *ForbiddenConnectionError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, ids[src][0], target.Source.GetID())
				assert.Equal(t, ids[dest][1], target.Destination.GetID())
				assert.True(t, IsConfigurationError(err))
				assert.Equal(t, base, next)
			})
		}
	}
}

func contains(types []models.ElementType, want models.ElementType) bool {
	for _, elementType := range types {
		if elementType == want {
			return true
		}
	}

	return false
}

func TestCanConnect(t *testing.T) {
	assert.True(t, CanConnect(models.ElementTypeEventListener, models.ElementTypePhase))
	assert.True(t, CanConnect(models.ElementTypeGateway, models.ElementTypeEventDispatcher))
	assert.False(t, CanConnect(models.ElementTypePhase, models.ElementTypeGateway))
	assert.False(t, CanConnect(models.ElementTypeEventDispatcher, models.ElementTypePhase))
	assert.False(t, CanConnect(models.ElementTypeEventListener, models.ElementTypeEventListener))
	assert.Empty(t, AllowedDestinations(models.ElementTypePhase))
	assert.Len(t, AllowedDestinations(models.ElementTypeGateway), 3)
}

func TestAddFlow_SelfLoop(t *testing.T) {
	workflow := must(t)(AddGateway(templateWorkflow(t), models.Gateway{Type: models.GatewayTypeAndSplit}))

	next, err := AddFlow(workflow, "gateway_0", "gateway_0")

	var target *ForbiddenConnectionError
	require.ErrorAs(t, err, &target)
	assert.Contains(t, target.Error(), "connect an element to itself")
	assert.Equal(t, "gateway_0", target.Source.GetID())
	assert.Equal(t, workflow, next)
}

func TestAddFlow_UnknownEndpoint(t *testing.T) {
	workflow := templateWorkflow(t)

	_, err := AddFlow(workflow, "gateway_7", "phase_0")
	assert.True(t, IsElementNotFound(err))

	_, err = AddFlow(workflow, "event_listener_0", "phase_7")
	assert.True(t, IsElementNotFound(err))
}

func TestAddFlow_IncomingLimit(t *testing.T) {
	tests := []struct {
		name string
		dest func(t *testing.T, workflow models.Workflow) (models.Workflow, string)
	}{
		{
			name: "phase",
			dest: func(t *testing.T, workflow models.Workflow) (models.Workflow, string) {
				return must(t)(AddPhase(workflow, models.Phase{})), "phase_1"
			},
		},
		{
			name: "AND_SPLIT gateway",
			dest: func(t *testing.T, workflow models.Workflow) (models.Workflow, string) {
				return must(t)(AddGateway(workflow, models.Gateway{Type: models.GatewayTypeAndSplit})), "gateway_0"
			},
		},
		{
			name: "LOOP gateway",
			dest: func(t *testing.T, workflow models.Workflow) (models.Workflow, string) {
				return must(t)(AddGateway(workflow, loopGateway())), "gateway_0"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workflow, destID := tt.dest(t, templateWorkflow(t))
			workflow = must(t)(AddEventListener(workflow, models.EventListener{Type: models.EventListenerTypeApproval}))
			workflow = must(t)(AddFlow(workflow, "event_listener_0", destID))

			next, err := AddFlow(workflow, "event_listener_2", destID)

			var target *IncorrectAmountOfIncomingFlowsError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, destID, target.Element.GetID())
			assert.Len(t, target.Flows, 1)
			assert.Equal(t, 1, target.Max)
			assert.True(t, IsConfigurationError(err))
			assert.Equal(t, workflow, next)
		})
	}
}

func TestAddFlow_OutgoingLimit(t *testing.T) {
	for _, gatewayType := range []models.GatewayType{models.GatewayTypeAndMerge, models.GatewayTypeOrMerge} {
		t.Run(string(gatewayType), func(t *testing.T) {
			workflow := must(t)(AddGateway(templateWorkflow(t), models.Gateway{Type: gatewayType}))
			workflow = must(t)(AddEventDispatcher(workflow, models.EventDispatcher{Type: models.EventDispatcherTypeAlert}))
			workflow = must(t)(AddFlow(workflow, "gateway_0", "event_dispatcher_0"))

			next, err := AddFlow(workflow, "gateway_0", "event_dispatcher_1")

			var target *IncorrectAmountOfOutgoingFlowsError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, "gateway_0", target.Element.GetID())
			assert.Len(t, target.Flows, 1)
			assert.Equal(t, workflow, next)
		})
	}
}

func TestAddFlow_UnboundedGateways(t *testing.T) {
	workflow := must(t)(AddGateway(templateWorkflow(t), models.Gateway{Type: models.GatewayTypeAndSplit}))
	workflow = must(t)(AddEventDispatcher(workflow, models.EventDispatcher{Type: models.EventDispatcherTypeAlert}))
	workflow = must(t)(AddFlow(workflow, "gateway_0", "event_dispatcher_0"))
	workflow = must(t)(AddFlow(workflow, "gateway_0", "event_dispatcher_1"))

	assert.Len(t, OutgoingFlows(workflow, "gateway_0"), 2)
}

func TestAddEventListener(t *testing.T) {
	t.Run("second START is refused", func(t *testing.T) {
		workflow := templateWorkflow(t)

		next, err := AddEventListener(workflow, models.EventListener{Type: models.EventListenerTypeStart})

		var target *IncorrectAmountOfStartEventListenersError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, 2, target.Count)
		assert.True(t, IsRuleViolation(err))
		assert.Equal(t, workflow, next)
	})

	t.Run("unknown phase is refused", func(t *testing.T) {
		_, err := AddEventListener(templateWorkflow(t), models.EventListener{
			Type:    models.EventListenerTypeApproval,
			PhaseID: models.StringPtr("phase_9"),
		})

		var target *ElementNotFoundError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "phase_9", target.ID)
	})

	t.Run("timer listener", func(t *testing.T) {
		workflow := must(t)(AddEventListener(templateWorkflow(t), models.EventListener{
			Type:         models.EventListenerTypeTimer,
			PhaseID:      models.StringPtr("phase_0"),
			Interrupting: true,
			DurationInMS: int64Ptr(60000),
		}))

		listener, ok := store.EventListeners.GetLast(workflow)
		require.True(t, ok)
		assert.Equal(t, "event_listener_2", listener.ID)
		assert.True(t, listener.Interrupting)
		assert.Equal(t, int64(60000), *listener.DurationInMS)
	})
}

func TestAddGateway_RefusesFlowPointers(t *testing.T) {
	gateway := loopGateway()
	gateway.LoopbackFlowID = models.StringPtr("flow_0")

	_, err := AddGateway(templateWorkflow(t), gateway)

	var target *InvalidFlowReferenceError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "loopbackFlowId", target.Field)
}

func TestAddLoopbackFlow(t *testing.T) {
	workflow := must(t)(AddGateway(templateWorkflow(t), loopGateway()))
	workflow = must(t)(AddPhase(workflow, models.Phase{}))

	next := must(t)(AddLoopbackFlow(workflow, "gateway_0", "phase_1"))

	gateway, ok := store.Gateways.GetByID(next, "gateway_0")
	require.True(t, ok)
	require.NotNil(t, gateway.LoopbackFlowID)
	assert.Equal(t, "flow_2", *gateway.LoopbackFlowID)

	original, _ := store.Gateways.GetByID(workflow, "gateway_0")
	assert.Nil(t, original.LoopbackFlowID)

	t.Run("removing the flow resets the pointer", func(t *testing.T) {
		removed := must(t)(RemoveFlow(next, "flow_2"))

		gateway, _ := store.Gateways.GetByID(removed, "gateway_0")
		assert.Nil(t, gateway.LoopbackFlowID)
	})

	t.Run("removing the destination resets the pointer", func(t *testing.T) {
		removed := must(t)(Remove(next, "phase_1"))

		gateway, _ := store.Gateways.GetByID(removed, "gateway_0")
		assert.Nil(t, gateway.LoopbackFlowID)
		assert.Equal(t, []string{"flow_0", "flow_1"}, flowIDs(removed))
	})

	t.Run("source must be a LOOP gateway", func(t *testing.T) {
		_, err := AddLoopbackFlow(workflow, "event_listener_0", "phase_1")

		var target *IncorrectElementTypeError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "event_listener_0", target.Element.GetID())
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("connection rules still apply", func(t *testing.T) {
		_, err := AddLoopbackFlow(workflow, "gateway_0", "phase_0")

		var target *IncorrectAmountOfIncomingFlowsError
		require.ErrorAs(t, err, &target)
	})
}

func TestAddConditionalFlow(t *testing.T) {
	workflow := must(t)(AddGateway(templateWorkflow(t), conditionalGateway()))
	workflow = must(t)(AddEventDispatcher(workflow, models.EventDispatcher{Type: models.EventDispatcherTypeAlert}))
	workflow = must(t)(AddConditionalFlow(workflow, "gateway_0", "event_dispatcher_0", true))
	workflow = must(t)(AddConditionalFlow(workflow, "gateway_0", "event_dispatcher_1", false))

	gateway, _ := store.Gateways.GetByID(workflow, "gateway_0")
	require.NotNil(t, gateway.TrueFlowID)
	require.NotNil(t, gateway.FalseFlowID)
	assert.Equal(t, "flow_2", *gateway.TrueFlowID)
	assert.Equal(t, "flow_3", *gateway.FalseFlowID)

	t.Run("removing a branch resets only that pointer", func(t *testing.T) {
		removed := must(t)(RemoveFlow(workflow, "flow_2"))

		gateway, _ := store.Gateways.GetByID(removed, "gateway_0")
		assert.Nil(t, gateway.TrueFlowID)
		require.NotNil(t, gateway.FalseFlowID)
		assert.Equal(t, "flow_3", *gateway.FalseFlowID)
	})

	t.Run("source must be a CONDITIONAL gateway", func(t *testing.T) {
		loop := must(t)(AddGateway(workflow, loopGateway()))

		_, err := AddConditionalFlow(loop, "gateway_1", "event_dispatcher_0", true)

		var target *IncorrectElementTypeError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "CONDITIONAL gateway", target.Expected)
	})
}

func TestRemove_CascadesAttachedFlows(t *testing.T) {
	workflow := must(t)(AddGateway(templateWorkflow(t), models.Gateway{Type: models.GatewayTypeAndSplit}))
	workflow = must(t)(AddEventDispatcher(workflow, models.EventDispatcher{Type: models.EventDispatcherTypeEnd}))
	workflow = must(t)(AddFlow(workflow, "event_listener_0", "gateway_0"))
	workflow = must(t)(AddFlow(workflow, "gateway_0", "event_dispatcher_0"))
	workflow = must(t)(AddFlow(workflow, "gateway_0", "event_dispatcher_1"))

	for _, id := range []string{"gateway_0", "event_dispatcher_0", "event_dispatcher_1", "event_listener_1", "flow_3"} {
		t.Run(id, func(t *testing.T) {
			attached := len(AttachedFlows(workflow, id))
			if id == "flow_3" {
				attached = 1
			}

			next := must(t)(Remove(workflow, id))

			assert.Len(t, next.Elements.Flows, len(workflow.Elements.Flows)-attached)

			for _, flow := range next.Elements.Flows {
				assert.NotEqual(t, id, flow.SrcID)
				assert.NotEqual(t, id, flow.DestID)
			}

			_, found := store.FindElement(next, id)
			assert.False(t, found)
		})
	}
}

func TestRemovePhase(t *testing.T) {
	workflow := must(t)(AddPhase(templateWorkflow(t), models.Phase{}))
	workflow = must(t)(AddFlow(workflow, "event_listener_0", "phase_1"))
	workflow = must(t)(AddEventListener(workflow, models.EventListener{
		Type:    models.EventListenerTypeApproval,
		PhaseID: models.StringPtr("phase_1"),
	}))
	workflow = must(t)(AddFlow(workflow, "event_listener_2", "event_dispatcher_0"))

	next := must(t)(RemovePhase(workflow, "phase_1"))

	assert.Len(t, next.Elements.Phases, 1)
	assert.Empty(t, PhaseListeners(next, "phase_1"))
	assert.Equal(t, []string{"flow_0", "flow_1"}, flowIDs(next))
	require.NoError(t, Validate(next))
}

func TestRemove_Guards(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) models.Workflow
		id    string
		want  any
	}{
		{
			name:  "last phase",
			build: templateWorkflow,
			id:    "phase_0",
			want:  &NoPhasesError{},
		},
		{
			name:  "last END dispatcher",
			build: templateWorkflow,
			id:    "event_dispatcher_0",
			want:  &NoEndEventDispatcherError{},
		},
		{
			name:  "sole START listener",
			build: templateWorkflow,
			id:    "event_listener_0",
			want:  &IncorrectAmountOfStartEventListenersError{Count: 0},
		},
		{
			name: "phase holding the sole START listener",
			build: func(t *testing.T) models.Workflow {
				workflow := must(t)(AddPhase(models.Workflow{ID: "wf1"}, models.Phase{}))
				workflow = must(t)(AddPhase(workflow, models.Phase{}))

				return must(t)(AddEventListener(workflow, models.EventListener{
					Type:    models.EventListenerTypeStart,
					PhaseID: models.StringPtr("phase_1"),
				}))
			},
			id:   "phase_1",
			want: &IncorrectAmountOfStartEventListenersError{Count: 0},
		},
		{
			name:  "unknown id",
			build: templateWorkflow,
			id:    "gateway_3",
			want:  &ElementNotFoundError{ID: "gateway_3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workflow := tt.build(t)

			next, err := Remove(workflow, tt.id)

			require.Error(t, err)
			assert.Equal(t, tt.want, err)
			assert.Equal(t, workflow, next)
		})
	}
}

func TestRemove_AlertAndSecondEnd(t *testing.T) {
	workflow := must(t)(AddEventDispatcher(templateWorkflow(t), models.EventDispatcher{Type: models.EventDispatcherTypeEnd}))

	next := must(t)(RemoveEventDispatcher(workflow, "event_dispatcher_0"))
	assert.Len(t, next.EndDispatchers(), 1)
	assert.Equal(t, []string{"flow_0"}, flowIDs(next))
}

func TestUpdateEventListener(t *testing.T) {
	workflow := templateWorkflow(t)

	t.Run("second START is refused", func(t *testing.T) {
		next, err := UpdateEventListener(workflow, "event_listener_1", store.Patch{"type": "START"})

		var target *IncorrectAmountOfStartEventListenersError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, 2, target.Count)
		assert.Equal(t, workflow, next)
	})

	t.Run("losing the START is refused", func(t *testing.T) {
		_, err := UpdateEventListener(workflow, "event_listener_0", store.Patch{"type": "APPROVAL"})

		var target *IncorrectAmountOfStartEventListenersError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, 0, target.Count)
	})

	t.Run("interrupting flag", func(t *testing.T) {
		next := must(t)(UpdateEventListener(workflow, "event_listener_1", store.Patch{"interrupting": true}))

		listener, _ := store.EventListeners.GetByID(next, "event_listener_1")
		assert.True(t, listener.Interrupting)
		assert.True(t, listener.ScopedTo("phase_0"))
	})

	t.Run("unknown phase", func(t *testing.T) {
		_, err := Update(workflow, "event_listener_1", store.Patch{"phaseId": "phase_4"})
		assert.True(t, IsElementNotFound(err))
	})
}

func TestUpdateGateway(t *testing.T) {
	workflow := must(t)(AddGateway(templateWorkflow(t), loopGateway()))
	workflow = must(t)(AddPhase(workflow, models.Phase{}))
	workflow = must(t)(AddFlow(workflow, "gateway_0", "phase_1"))

	t.Run("pointer to an outgoing flow", func(t *testing.T) {
		next := must(t)(UpdateGateway(workflow, "gateway_0", store.Patch{"loopbackFlowId": "flow_2"}))

		gateway, _ := store.Gateways.GetByID(next, "gateway_0")
		assert.Equal(t, "flow_2", *gateway.LoopbackFlowID)
	})

	t.Run("pointer to a foreign flow", func(t *testing.T) {
		_, err := UpdateGateway(workflow, "gateway_0", store.Patch{"loopbackFlowId": "flow_0"})

		var target *InvalidFlowReferenceError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "flow_0", target.FlowID)
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("type change must respect existing flows", func(t *testing.T) {
		merge := must(t)(AddGateway(workflow, models.Gateway{Type: models.GatewayTypeAndMerge}))
		merge = must(t)(AddFlow(merge, "event_listener_0", "gateway_1"))
		merge = must(t)(AddEventListener(merge, models.EventListener{Type: models.EventListenerTypeApproval}))
		merge = must(t)(AddFlow(merge, "event_listener_2", "gateway_1"))

		_, err := UpdateGateway(merge, "gateway_1", store.Patch{"type": "AND_SPLIT"})

		var target *IncorrectAmountOfIncomingFlowsError
		require.ErrorAs(t, err, &target)
		assert.Len(t, target.Flows, 2)
	})
}

func TestUpdateFlow(t *testing.T) {
	workflow := must(t)(AddPhase(templateWorkflow(t), models.Phase{}))

	t.Run("move destination", func(t *testing.T) {
		next := must(t)(UpdateFlow(workflow, "flow_0", store.Patch{"destId": "phase_1"}))

		flow, _ := store.Flows.GetByID(next, "flow_0")
		assert.Equal(t, "phase_1", flow.DestID)
	})

	t.Run("keeping the same endpoints is allowed", func(t *testing.T) {
		_, err := UpdateFlow(workflow, "flow_0", store.Patch{"destId": "phase_0"})
		assert.NoError(t, err)
	})

	t.Run("second incoming flow into a phase", func(t *testing.T) {
		_, err := UpdateFlow(workflow, "flow_1", store.Patch{"destId": "phase_0"})

		var target *IncorrectAmountOfIncomingFlowsError
		require.ErrorAs(t, err, &target)
	})

	t.Run("phases cannot be a source", func(t *testing.T) {
		_, err := UpdateFlow(workflow, "flow_0", store.Patch{"srcId": "phase_1"})

		var target *ForbiddenConnectionError
		require.ErrorAs(t, err, &target)
	})

	t.Run("pointing a flow back at its source", func(t *testing.T) {
		next, err := UpdateFlow(workflow, "flow_0", store.Patch{"destId": "event_listener_0"})

		var target *ForbiddenConnectionError
		require.ErrorAs(t, err, &target)
		assert.Contains(t, target.Error(), "connect an element to itself")
		assert.Equal(t, workflow, next)
	})

	t.Run("malformed endpoint", func(t *testing.T) {
		_, err := UpdateFlow(workflow, "flow_0", store.Patch{"destId": 7})
		assert.True(t, schema.IsSchemaViolation(err))
	})
}

func TestEdits_DoNotAlterInput(t *testing.T) {
	workflow := must(t)(AddGateway(templateWorkflow(t), loopGateway()))
	workflow = must(t)(AddPhase(workflow, models.Phase{}))
	workflow = must(t)(AddLoopbackFlow(workflow, "gateway_0", "phase_1"))

	snapshot, err := json.Marshal(workflow)
	require.NoError(t, err)

	edits := map[string]func(models.Workflow) (models.Workflow, error){
		"add listener": func(w models.Workflow) (models.Workflow, error) {
			return AddEventListener(w, models.EventListener{Type: models.EventListenerTypeApproval})
		},
		"add second START": func(w models.Workflow) (models.Workflow, error) {
			return AddEventListener(w, models.EventListener{Type: models.EventListenerTypeStart})
		},
		"add flow":           func(w models.Workflow) (models.Workflow, error) { return AddFlow(w, "event_listener_0", "gateway_0") },
		"add forbidden flow": func(w models.Workflow) (models.Workflow, error) { return AddFlow(w, "phase_0", "gateway_0") },
		"remove loopback":    func(w models.Workflow) (models.Workflow, error) { return RemoveFlow(w, "flow_2") },
		"remove phase":       func(w models.Workflow) (models.Workflow, error) { return RemovePhase(w, "phase_0") },
		"remove gateway":     func(w models.Workflow) (models.Workflow, error) { return Remove(w, "gateway_0") },
		"remove last END":    func(w models.Workflow) (models.Workflow, error) { return Remove(w, "event_dispatcher_0") },
		"update gateway": func(w models.Workflow) (models.Workflow, error) {
			return UpdateGateway(w, "gateway_0", store.Patch{"maxIterations": 9})
		},
		"invalid update": func(w models.Workflow) (models.Workflow, error) {
			return UpdateGateway(w, "gateway_0", store.Patch{"maxIterations": 0})
		},
	}

	for name, edit := range edits {
		t.Run(name, func(t *testing.T) {
			_, _ = edit(workflow)

			after, err := json.Marshal(workflow)
			require.NoError(t, err)
			assert.JSONEq(t, string(snapshot), string(after))
		})
	}
}
