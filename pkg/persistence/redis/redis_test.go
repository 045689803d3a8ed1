package redis_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/persistence"
	"github.com/dukex/procflow/pkg/persistence/redis"
	"github.com/dukex/procflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) (*redis.Persistence, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := redis.NewPersistence(ctx, logger, "redis://"+endpoint+"/0")
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, p.Close(ctx))
		require.NoError(t, testcontainers.TerminateContainer(container))

		cancel()
	})

	return p, ctx
}

func sampleWorkflow(id string) *models.Workflow {
	return testutil.CreateTestWorkflow(testutil.WithID(id), testutil.WithLoopGateway("gateway_0", 5))
}

func TestPersistence_Lifecycle(t *testing.T) {
	p, ctx := setupRedis(t)

	require.NoError(t, p.HealthCheck(ctx))

	workflows, err := p.Workflows(ctx)
	require.NoError(t, err)
	assert.Empty(t, workflows)

	require.NoError(t, p.SaveWorkflow(ctx, sampleWorkflow("wf-b")))
	require.NoError(t, p.SaveWorkflow(ctx, sampleWorkflow("wf-a")))

	loaded, err := p.WorkflowByID(ctx, "wf-b")
	require.NoError(t, err)
	assert.Equal(t, sampleWorkflow("wf-b"), loaded)

	workflows, err = p.Workflows(ctx)
	require.NoError(t, err)
	require.Len(t, workflows, 2)
	assert.Equal(t, "wf-a", workflows[0].ID)

	require.NoError(t, p.DeleteWorkflow(ctx, "wf-a"))

	_, err = p.WorkflowByID(ctx, "wf-a")
	assert.True(t, persistence.IsWorkflowNotFound(err))
	assert.True(t, persistence.IsWorkflowNotFound(p.DeleteWorkflow(ctx, "wf-a")))

	workflows, err = p.Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, workflows, 1)
}
