package workflow

import (
	"testing"

	"github.com/dukex/procflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjacency(t *testing.T) {
	adjacency := Adjacency(templateWorkflow(t))

	assert.Equal(t, map[string][]string{
		"event_listener_0": {"phase_0"},
		"event_listener_1": {"event_dispatcher_0"},
		"phase_0":          {"event_listener_1"},
	}, adjacency)
}

func TestIsReachable(t *testing.T) {
	// phase_1 is only entered from a listener scoped to the unreachable phase_2.
	workflow := must(t)(AddPhase(templateWorkflow(t), models.Phase{}))
	workflow = must(t)(AddPhase(workflow, models.Phase{}))
	workflow = must(t)(AddEventListener(workflow, models.EventListener{
		Type:    models.EventListenerTypeApproval,
		PhaseID: models.StringPtr("phase_2"),
	}))
	workflow = must(t)(AddFlow(workflow, "event_listener_2", "phase_1"))
	workflow = must(t)(AddGateway(workflow, models.Gateway{Type: models.GatewayTypeOrMerge}))
	workflow = must(t)(AddFlow(workflow, "event_listener_1", "gateway_0"))

	tests := []struct {
		target string
		want   bool
	}{
		{target: "event_listener_0", want: true},
		{target: "phase_0", want: true},
		{target: "event_listener_1", want: true},
		{target: "event_dispatcher_0", want: true},
		{target: "gateway_0", want: true},
		{target: "phase_1", want: false},
		{target: "phase_2", want: false},
		{target: "event_listener_2", want: false},
		{target: "unknown", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReachable(workflow, tt.target))
		})
	}

	t.Run("a second global listener opens a new root", func(t *testing.T) {
		rooted := must(t)(AddEventListener(workflow, models.EventListener{Type: models.EventListenerTypeCondition,
			Condition: models.NewGroup("condition_0", models.OperatorOr)}))
		rooted = must(t)(AddFlow(rooted, "event_listener_3", "phase_2"))

		assert.True(t, IsReachable(rooted, "phase_2"))
		assert.True(t, IsReachable(rooted, "event_listener_2"))
		assert.True(t, IsReachable(rooted, "phase_1"))
	})

	t.Run("cycles terminate", func(t *testing.T) {
		cyclic := must(t)(AddGateway(workflow, models.Gateway{Type: models.GatewayTypeAndMerge}))
		cyclic = must(t)(AddFlow(cyclic, "gateway_0", "gateway_1"))
		cyclic = must(t)(AddFlow(cyclic, "gateway_1", "gateway_0"))

		assert.True(t, IsReachable(cyclic, "gateway_1"))
		assert.False(t, IsReachable(cyclic, "phase_2"))
	})
}

func TestGraphQueries(t *testing.T) {
	workflow := templateWorkflow(t)

	globals := GlobalListeners(workflow)
	require.Len(t, globals, 1)
	assert.Equal(t, "event_listener_0", globals[0].ID)

	scoped := PhaseListeners(workflow, "phase_0")
	require.Len(t, scoped, 1)
	assert.Equal(t, "event_listener_1", scoped[0].ID)

	incoming := IncomingFlows(workflow, "phase_0")
	require.Len(t, incoming, 1)
	assert.Equal(t, "flow_0", incoming[0].ID)

	outgoing := OutgoingFlows(workflow, "event_listener_1")
	require.Len(t, outgoing, 1)
	assert.Equal(t, "event_dispatcher_0", outgoing[0].DestID)

	assert.Empty(t, OutgoingFlows(workflow, "event_dispatcher_0"))
	assert.Len(t, AttachedFlows(workflow, "phase_0"), 1)
}
