package schema

import "github.com/dukex/procflow/pkg/models"

const draft07 = "http://json-schema.org/draft-07/schema#"

// definitionNames maps element families to their entry in the definitions block.
var definitionNames = map[models.ElementType]string{
	models.ElementTypeEventListener:   "eventListener",
	models.ElementTypeEventDispatcher: "eventDispatcher",
	models.ElementTypeGateway:         "gateway",
	models.ElementTypePhase:           "phase",
	models.ElementTypeFlow:            "flow",
}

func ref(name string) *models.JSONSchema {
	return &models.JSONSchema{Ref: "#/definitions/" + name}
}

func closed() *bool {
	additional := false

	return &additional
}

func nonEmptyString() *models.JSONSchema {
	minLength := 1

	return &models.JSONSchema{Type: "string", MinLength: &minLength}
}

func minimum(value float64) *float64 {
	return &value
}

func enum[T ~string](values ...T) []any {
	out := make([]any, 0, len(values))
	for _, value := range values {
		out = append(out, string(value))
	}

	return out
}

func definitions() map[string]*models.JSONSchema {
	nullableID := nonEmptyString()
	nullableID.Type = []string{"string", "null"}

	return map[string]*models.JSONSchema{
		"id":              nonEmptyString(),
		"nullableId":      nullableID,
		"dataSource":      dataSourceSchema(),
		"operand":         operandSchema(),
		"condition":       conditionSchema(),
		"target":          targetSchema(),
		"command":         commandSchema(),
		"eventListener":   eventListenerSchema(),
		"eventDispatcher": eventDispatcherSchema(),
		"gateway":         gatewaySchema(),
		"phase":           phaseSchema(),
		"flow":            flowSchema(),
	}
}

func operandSchema() *models.JSONSchema {
	return &models.JSONSchema{
		Description: "Literal value, null when unset, or a data-source reference.",
		OneOf: []*models.JSONSchema{
			{Type: []string{"string", "number", "boolean", "null"}},
			ref("dataSource"),
		},
	}
}

func conditionSchema() *models.JSONSchema {
	comparisonOperators := enum(
		models.OperatorEqual,
		models.OperatorGreater,
		models.OperatorGreaterOrEqual,
		models.OperatorLess,
		models.OperatorLessOrEqual,
	)
	logicalOperators := enum(models.OperatorAnd, models.OperatorOr)

	allOperators := append(append([]any{}, logicalOperators...), comparisonOperators...)
	allOperators = append(allOperators, nil)

	return &models.JSONSchema{
		Description:          "Node of a boolean expression tree: a combinator or a comparison, never both.",
		Type:                 "object",
		Required:             []string{"id"},
		AdditionalProperties: closed(),
		Properties: map[string]*models.JSONSchema{
			"id":         ref("id"),
			"operator":   {Enum: allOperators},
			"conditions": {Type: "array", Items: ref("condition")},
			"left":       ref("operand"),
			"right":      ref("operand"),
		},
		OneOf: []*models.JSONSchema{
			{
				Title:      "combinator",
				Required:   []string{"operator", "conditions"},
				Properties: map[string]*models.JSONSchema{"operator": {Enum: logicalOperators}},
				Not: &models.JSONSchema{AnyOf: []*models.JSONSchema{
					{Required: []string{"left"}},
					{Required: []string{"right"}},
				}},
			},
			{
				Title:      "comparison",
				Required:   []string{"left", "right"},
				Properties: map[string]*models.JSONSchema{"operator": {Enum: append(comparisonOperators, nil)}},
				Not:        &models.JSONSchema{Required: []string{"conditions"}},
			},
		},
	}
}

func targetSchema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:                 "object",
		Required:             []string{"fctId", "slotName", "target"},
		AdditionalProperties: closed(),
		Properties: map[string]*models.JSONSchema{
			"fctId":    nonEmptyString(),
			"slotName": nonEmptyString(),
			"target":   {Type: []string{"string", "number", "boolean"}},
		},
	}
}

func commandSchema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:                 "object",
		Required:             []string{"type", "targets"},
		AdditionalProperties: closed(),
		Properties: map[string]*models.JSONSchema{
			"type":    {Enum: enum(models.CommandTypeSetTargets)},
			"targets": {Type: "array", Items: ref("target")},
		},
	}
}

func eventListenerSchema() *models.JSONSchema {
	return &models.JSONSchema{
		Title:                "Event listener",
		Type:                 "object",
		Required:             []string{"id", "elementType", "type", "phaseId", "interrupting"},
		AdditionalProperties: closed(),
		Properties: map[string]*models.JSONSchema{
			"id":          ref("id"),
			"elementType": {Const: string(models.ElementTypeEventListener)},
			"type": {Enum: enum(
				models.EventListenerTypeStart,
				models.EventListenerTypeCondition,
				models.EventListenerTypeApproval,
				models.EventListenerTypeTimer,
			)},
			"phaseId":      ref("nullableId"),
			"interrupting": {Type: "boolean", Default: false},
			"condition":    ref("condition"),
			"durationInMS": {Type: "integer", Minimum: minimum(0)},
		},
	}
}

func eventDispatcherSchema() *models.JSONSchema {
	return &models.JSONSchema{
		Title:                "Event dispatcher",
		Type:                 "object",
		Required:             []string{"id", "elementType", "type"},
		AdditionalProperties: closed(),
		Properties: map[string]*models.JSONSchema{
			"id":          ref("id"),
			"elementType": {Const: string(models.ElementTypeEventDispatcher)},
			"type":        {Enum: enum(models.EventDispatcherTypeEnd, models.EventDispatcherTypeAlert)},
		},
	}
}

func gatewaySchema() *models.JSONSchema {
	return &models.JSONSchema{
		Title:                "Gateway",
		Type:                 "object",
		Required:             []string{"id", "elementType", "type"},
		AdditionalProperties: closed(),
		Properties: map[string]*models.JSONSchema{
			"id":          ref("id"),
			"elementType": {Const: string(models.ElementTypeGateway)},
			"type": {Enum: enum(
				models.GatewayTypeAndMerge,
				models.GatewayTypeAndSplit,
				models.GatewayTypeLoop,
				models.GatewayTypeOrMerge,
				models.GatewayTypeConditional,
			)},
			"loopbackFlowId": ref("nullableId"),
			"maxIterations":  {Type: "integer", Minimum: minimum(1)},
			"trueFlowId":     ref("nullableId"),
			"falseFlowId":    ref("nullableId"),
			"condition":      ref("condition"),
		},
	}
}

func phaseSchema() *models.JSONSchema {
	return &models.JSONSchema{
		Title:                "Phase",
		Type:                 "object",
		Required:             []string{"id", "elementType", "commands"},
		AdditionalProperties: closed(),
		Properties: map[string]*models.JSONSchema{
			"id":          ref("id"),
			"elementType": {Const: string(models.ElementTypePhase)},
			"commands":    {Type: "array", Items: ref("command"), Default: []any{}},
		},
	}
}

func flowSchema() *models.JSONSchema {
	return &models.JSONSchema{
		Title:                "Flow",
		Type:                 "object",
		Required:             []string{"id", "elementType", "srcId", "destId"},
		AdditionalProperties: closed(),
		Properties: map[string]*models.JSONSchema{
			"id":          ref("id"),
			"elementType": {Const: string(models.ElementTypeFlow)},
			"srcId":       ref("id"),
			"destId":      ref("id"),
		},
	}
}

func collectionSchema(kind models.ElementType) *models.JSONSchema {
	return &models.JSONSchema{Type: "array", Items: ref(definitionNames[kind])}
}

// Document returns the JSON Schema of the persisted workflow document.
func Document() *models.JSONSchema {
	return &models.JSONSchema{
		Schema:               draft07,
		Title:                "Process workflow definition",
		Type:                 "object",
		Required:             []string{"id", "elements"},
		AdditionalProperties: closed(),
		Properties: map[string]*models.JSONSchema{
			"id":      ref("id"),
			"version": {Type: "string"},
			"elements": {
				Type:                 "object",
				AdditionalProperties: closed(),
				Properties: map[string]*models.JSONSchema{
					"eventListeners":   collectionSchema(models.ElementTypeEventListener),
					"eventDispatchers": collectionSchema(models.ElementTypeEventDispatcher),
					"gateways":         collectionSchema(models.ElementTypeGateway),
					"phases":           collectionSchema(models.ElementTypePhase),
					"flows":            collectionSchema(models.ElementTypeFlow),
				},
			},
		},
		Definitions: definitions(),
	}
}

// Element returns the standalone JSON Schema of one element family.
func Element(kind models.ElementType) *models.JSONSchema {
	return &models.JSONSchema{
		Schema:      draft07,
		Title:       definitionNames[kind],
		AllOf:       []*models.JSONSchema{ref(definitionNames[kind])},
		Definitions: definitions(),
	}
}
