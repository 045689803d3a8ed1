package workflow

import (
	"testing"

	"github.com/dukex/procflow/pkg/models"
	"github.com/stretchr/testify/require"
)

// must unwraps the result of a workflow edit, failing the test on error.
func must(t *testing.T) func(models.Workflow, error) models.Workflow {
	t.Helper()

	return func(workflow models.Workflow, err error) models.Workflow {
		t.Helper()
		require.NoError(t, err)

		return workflow
	}
}

func templateWorkflow(t *testing.T) models.Workflow {
	t.Helper()

	return must(t)(NewTemplate("wf1"))
}

func loopGateway() models.Gateway {
	return models.Gateway{Type: models.GatewayTypeLoop, MaxIterations: models.IntPtr(3)}
}

func conditionalGateway() models.Gateway {
	return models.Gateway{
		Type:      models.GatewayTypeConditional,
		Condition: models.NewGroup("condition_0", models.OperatorAnd),
	}
}

func flowIDs(workflow models.Workflow) []string {
	ids := make([]string, 0, len(workflow.Elements.Flows))
	for _, flow := range workflow.Elements.Flows {
		ids = append(ids, flow.ID)
	}

	return ids
}

func int64Ptr(value int64) *int64 {
	return &value
}
