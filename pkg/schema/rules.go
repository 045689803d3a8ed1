package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dukex/procflow/pkg/models"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	v.RegisterStructValidation(eventListenerRules, models.EventListener{})
	v.RegisterStructValidation(gatewayRules, models.Gateway{})
	v.RegisterStructValidation(phaseRules, models.Phase{})
	v.RegisterStructValidation(flowRules, models.Flow{})

	return v
}

func eventListenerRules(sl validator.StructLevel) {
	listener, ok := sl.Current().Interface().(models.EventListener)
	if !ok {
		return
	}

	variantField(sl, listener.Condition != nil, listener.Type == models.EventListenerTypeCondition,
		listener.Condition, "condition", "Condition", "type CONDITION")
	variantField(sl, listener.DurationInMS != nil, listener.Type == models.EventListenerTypeTimer,
		listener.DurationInMS, "durationInMS", "DurationInMS", "type TIMER")

	conditionRules(sl, listener.Condition, "condition", "Condition")
}

func gatewayRules(sl validator.StructLevel) {
	gateway, ok := sl.Current().Interface().(models.Gateway)
	if !ok {
		return
	}

	isLoop := gateway.Type == models.GatewayTypeLoop
	isConditional := gateway.Type == models.GatewayTypeConditional

	variantField(sl, gateway.MaxIterations != nil, isLoop, gateway.MaxIterations, "maxIterations", "MaxIterations", "type LOOP")

	if gateway.LoopbackFlowID != nil && !isLoop {
		sl.ReportError(gateway.LoopbackFlowID, "loopbackFlowId", "LoopbackFlowID", "excluded_unless", "type LOOP")
	}

	variantField(sl, gateway.Condition != nil, isConditional, gateway.Condition, "condition", "Condition", "type CONDITIONAL")

	if gateway.TrueFlowID != nil && !isConditional {
		sl.ReportError(gateway.TrueFlowID, "trueFlowId", "TrueFlowID", "excluded_unless", "type CONDITIONAL")
	}

	if gateway.FalseFlowID != nil && !isConditional {
		sl.ReportError(gateway.FalseFlowID, "falseFlowId", "FalseFlowID", "excluded_unless", "type CONDITIONAL")
	}

	if gateway.TrueFlowID != nil && gateway.FalseFlowID != nil && *gateway.TrueFlowID == *gateway.FalseFlowID {
		sl.ReportError(gateway.FalseFlowID, "falseFlowId", "FalseFlowID", "nefield", "trueFlowId")
	}

	conditionRules(sl, gateway.Condition, "condition", "Condition")
}

func phaseRules(sl validator.StructLevel) {
	phase, ok := sl.Current().Interface().(models.Phase)
	if !ok {
		return
	}

	seen := make(map[[2]string]bool)

	for _, command := range phase.Commands {
		if command.Type != models.CommandTypeSetTargets {
			continue
		}

		for _, target := range command.Targets {
			key := [2]string{target.FctID, target.SlotName}
			if seen[key] {
				sl.ReportError(phase.Commands, "commands", "Commands", "unique_target", target.FctID+"/"+target.SlotName)

				return
			}

			seen[key] = true
		}
	}
}

func flowRules(sl validator.StructLevel) {
	flow, ok := sl.Current().Interface().(models.Flow)
	if !ok {
		return
	}

	if flow.DestID != "" && flow.DestID == flow.SrcID {
		sl.ReportError(flow.DestID, "destId", "DestID", "nefield", "srcId")
	}
}

// variantField reports a field that is missing on the variant requiring it, or
// present on a variant that does not carry it.
func variantField(sl validator.StructLevel, present, wanted bool, value any, name, structName, variant string) {
	switch {
	case wanted && !present:
		sl.ReportError(value, name, structName, "required_if", variant)
	case !wanted && present:
		sl.ReportError(value, name, structName, "excluded_unless", variant)
	}
}

func conditionRules(sl validator.StructLevel, root *models.Condition, name, structName string) {
	if root == nil {
		return
	}

	ids := make(map[string]bool)

	root.Walk(func(node *models.Condition) bool {
		if node == nil {
			return true
		}

		if ids[node.ID] {
			sl.ReportError(root, name, structName, "unique_condition_id", node.ID)

			return false
		}

		ids[node.ID] = true

		return true
	})
}

func violationFromValidation(subject string, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return newSchemaViolation(subject, []FieldViolation{{Rule: "invalid", Message: err.Error()}})
	}

	violations := make([]FieldViolation, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		violations = append(violations, FieldViolation{
			Field:   fieldPath(fieldError.Namespace()),
			Rule:    fieldError.Tag(),
			Message: describe(fieldError),
		})
	}

	return newSchemaViolation(subject, violations)
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}

	return path
}

func describe(fieldError validator.FieldError) string {
	param := fieldError.Param()

	switch fieldError.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required for " + param
	case "excluded_unless":
		return "is only allowed for " + param
	case "oneof":
		return "must be one of " + param
	case "eq":
		return "must equal " + param
	case "min":
		return "must be at least " + param
	case "nefield":
		return "must differ from " + param
	case "unique":
		return "must have unique " + param
	case "unique_target":
		return "define target " + param + " more than once"
	case "unique_condition_id":
		return "reuse condition id " + param
	default:
		return fmt.Sprintf("failed on the %q rule", fieldError.Tag())
	}
}
