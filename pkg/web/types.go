package web

import "github.com/dukex/procflow/pkg/models"

// FlowRequest represents the request body for connecting two elements.
type FlowRequest struct {
	SrcID  string `json:"srcId"  validate:"required"`
	DestID string `json:"destId" validate:"required"`
}

// ConditionalFlowRequest represents the request body for adding a branch of a
// CONDITIONAL gateway. Branch selects the true or the false branch.
type ConditionalFlowRequest struct {
	FlowRequest

	Branch *bool `json:"branch" validate:"required"`
}

// ValidationResponse reports a successful validation.
type ValidationResponse struct {
	Valid bool `json:"valid"`
}

// WorkflowsResponse lists stored workflows.
type WorkflowsResponse struct {
	Workflows  []*models.Workflow `json:"workflows"`
	TotalCount int                `json:"total_count"`
}
