package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

// GetAll returns all workflows ordered by id.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, document FROM workflow_documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func(ctx context.Context, r *WorkflowRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		var (
			id       string
			document []byte
		)

		if err := rows.Scan(&id, &document); err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflow, err := decode(id, document)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workflows: %w", err)
	}

	return workflows, nil
}

// GetByID returns a workflow by its ID.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	var document []byte

	err := r.db.QueryRowContext(ctx, `SELECT document FROM workflow_documents WHERE id = $1`, id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	return decode(id, document)
}

// Save inserts or replaces a workflow document.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	if err := persistence.ValidateWorkflowID(workflow.ID); err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	document, err := json.Marshal(workflow)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	query := `
		INSERT INTO workflow_documents (id, version, document)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			version = EXCLUDED.version
		  , document = EXCLUDED.document
		  , updated_at = NOW()
	`

	_, err = r.db.ExecContext(ctx, query, workflow.ID, workflow.Version, document)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	r.logger.DebugContext(ctx, "workflow saved", "workflow_id", workflow.ID)

	return nil
}

// Delete removes a workflow document.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflow_documents WHERE id = $1`, id)
	if err != nil {
		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func decode(id string, document []byte) (*models.Workflow, error) {
	var workflow models.Workflow
	if err := json.Unmarshal(document, &workflow); err != nil {
		return nil, &persistence.WorkflowError{Op: "WorkflowByID", WorkflowID: id, Err: err, Message: "corrupted document"}
	}

	return &workflow, nil
}
