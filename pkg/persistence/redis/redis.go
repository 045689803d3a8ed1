// Package redis provides Redis persistence for workflow documents. Documents
// are stored as JSON strings under procflow:workflow:<id>; the set
// procflow:workflows indexes every stored id.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "procflow:workflow:"
	indexKey  = "procflow:workflows"
)

// Persistence implements the persistence layer for Redis.
type Persistence struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewPersistence connects to the Redis server named by a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	options, err := redis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return &Persistence{client: client, logger: logger}, nil
}

// Close closes the Redis client.
func (p *Persistence) Close(_ context.Context) error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

// HealthCheck pings the Redis server.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// Workflows returns every indexed workflow ordered by id.
func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	ids, err := p.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow ids: %w", err)
	}

	if len(ids) == 0 {
		return make([]*models.Workflow, 0), nil
	}

	slices.Sort(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}

	values, err := p.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load workflows: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(values))

	for i, value := range values {
		document, ok := value.(string)
		if !ok {
			p.logger.WarnContext(ctx, "indexed workflow has no document", "workflow_id", ids[i])

			continue
		}

		workflow, err := decode(ids[i], []byte(document))
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

// WorkflowByID returns a workflow by its ID.
func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	document, err := p.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	return decode(id, document)
}

// SaveWorkflow stores the document and indexes its id in one transaction.
func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	if err := persistence.ValidateWorkflowID(workflow.ID); err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	document, err := json.Marshal(workflow)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key(workflow.ID), document, 0)
		pipe.SAdd(ctx, indexKey, workflow.ID)

		return nil
	})
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

// DeleteWorkflow removes the document and its index entry.
func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	var deleted *redis.IntCmd

	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, key(id))
		pipe.SRem(ctx, indexKey, id)

		return nil
	})
	if err != nil {
		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func key(id string) string {
	return keyPrefix + id
}

func decode(id string, document []byte) (*models.Workflow, error) {
	var workflow models.Workflow
	if err := json.Unmarshal(document, &workflow); err != nil {
		return nil, &persistence.WorkflowError{Op: "WorkflowByID", WorkflowID: id, Err: err, Message: "corrupted document"}
	}

	return &workflow, nil
}
