package models

import "encoding/json"

// GatewayType represents how a gateway splits or merges control.
type GatewayType string

const (
	GatewayTypeAndMerge    GatewayType = "AND_MERGE"
	GatewayTypeAndSplit    GatewayType = "AND_SPLIT"
	GatewayTypeLoop        GatewayType = "LOOP"
	GatewayTypeOrMerge     GatewayType = "OR_MERGE"
	GatewayTypeConditional GatewayType = "CONDITIONAL"
)

// Gateway routes control between elements.
type Gateway struct {
	ID          string      `json:"id"          validate:"required"`
	ElementType ElementType `json:"elementType" validate:"eq=GATEWAY"`
	Type        GatewayType `json:"type"        validate:"required,oneof=AND_MERGE AND_SPLIT LOOP OR_MERGE CONDITIONAL"`

	// LOOP only.
	LoopbackFlowID *string `json:"loopbackFlowId,omitempty"`
	MaxIterations  *int    `json:"maxIterations,omitempty"  validate:"omitempty,min=1"`

	// CONDITIONAL only.
	TrueFlowID  *string    `json:"trueFlowId,omitempty"`
	FalseFlowID *string    `json:"falseFlowId,omitempty"`
	Condition   *Condition `json:"condition,omitempty"`
}

func (g Gateway) GetID() string               { return g.ID }
func (g Gateway) GetElementType() ElementType { return ElementTypeGateway }

// MaxIncomingFlows returns the incoming flow limit of the gateway, or -1 when unbounded.
func (g Gateway) MaxIncomingFlows() int {
	switch g.Type {
	case GatewayTypeAndSplit, GatewayTypeLoop:
		return 1
	default:
		return -1
	}
}

// MaxOutgoingFlows returns the outgoing flow limit of the gateway, or -1 when unbounded.
func (g Gateway) MaxOutgoingFlows() int {
	switch g.Type {
	case GatewayTypeAndMerge, GatewayTypeOrMerge:
		return 1
	default:
		return -1
	}
}

// FlowReferences returns the flow pointer fields of the gateway keyed by their JSON name.
func (g Gateway) FlowReferences() map[string]*string {
	switch g.Type {
	case GatewayTypeLoop:
		return map[string]*string{"loopbackFlowId": g.LoopbackFlowID}
	case GatewayTypeConditional:
		return map[string]*string{"trueFlowId": g.TrueFlowID, "falseFlowId": g.FalseFlowID}
	default:
		return nil
	}
}

// Clone returns a copy of the gateway that shares no pointers with g.
func (g Gateway) Clone() Gateway {
	g.LoopbackFlowID = clonePtr(g.LoopbackFlowID)
	g.MaxIterations = clonePtr(g.MaxIterations)
	g.TrueFlowID = clonePtr(g.TrueFlowID)
	g.FalseFlowID = clonePtr(g.FalseFlowID)
	g.Condition = g.Condition.Clone()

	return g
}

// MarshalJSON emits the variant fields that belong to the gateway type only.
// Flow pointers are written as null while unset; payloads are omitted.
func (g Gateway) MarshalJSON() ([]byte, error) {
	doc := map[string]any{
		"id":          g.ID,
		"elementType": g.ElementType,
		"type":        g.Type,
	}

	if g.Type == GatewayTypeLoop || g.LoopbackFlowID != nil || g.MaxIterations != nil {
		doc["loopbackFlowId"] = g.LoopbackFlowID

		if g.MaxIterations != nil {
			doc["maxIterations"] = g.MaxIterations
		}
	}

	if g.Type == GatewayTypeConditional || g.TrueFlowID != nil || g.FalseFlowID != nil || g.Condition != nil {
		doc["trueFlowId"] = g.TrueFlowID
		doc["falseFlowId"] = g.FalseFlowID

		if g.Condition != nil {
			doc["condition"] = g.Condition
		}
	}

	return json.Marshal(doc)
}

// IntPtr returns a pointer to i.
func IntPtr(i int) *int {
	return &i
}
