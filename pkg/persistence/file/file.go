// Package file provides file-based persistence for workflow documents.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/persistence"
)

const workflowsDir = "workflows"

// Persistence implements the persistence.Persistence interface using the file system.
// Each workflow is stored as <root>/workflows/<id>.json.
type Persistence struct {
	root string
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Workflows returns every stored workflow ordered by id.
func (fp *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	files, err := fs.Glob(os.DirFS(fp.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	slices.Sort(files)

	workflows := make([]*models.Workflow, 0, len(files))

	for _, file := range files {
		workflow, err := fp.WorkflowByID(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", file, err)
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

// WorkflowByID reads a workflow document from disk.
func (fp *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	if err := persistence.ValidateWorkflowID(id); err != nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	data, err := os.ReadFile(fp.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal(data, &workflow); err != nil {
		return nil, &persistence.WorkflowError{Op: "WorkflowByID", WorkflowID: id, Err: err, Message: "corrupted document"}
	}

	return &workflow, nil
}

// SaveWorkflow writes a workflow document, replacing any previous version.
func (fp *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	if err := persistence.ValidateWorkflowID(workflow.ID); err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	if err := os.MkdirAll(fp.dir(), 0o750); err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	// Write to a temporary file first so readers never observe a partial document.
	tmp, err := os.CreateTemp(fp.dir(), workflow.ID+".*.tmp")
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	if err := os.Rename(tmp.Name(), fp.path(workflow.ID)); err != nil {
		_ = os.Remove(tmp.Name())

		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

// DeleteWorkflow removes a workflow document.
func (fp *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	if err := persistence.ValidateWorkflowID(id); err != nil {
		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	err := os.Remove(fp.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	return nil
}

func (fp *Persistence) dir() string {
	return filepath.Join(fp.root, workflowsDir)
}

func (fp *Persistence) path(id string) string {
	return filepath.Join(fp.dir(), id+".json")
}
