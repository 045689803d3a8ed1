package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/dukex/procflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// NormalizeEventListener applies defaults to a candidate listener, validates it and decodes it.
func NormalizeEventListener(candidate map[string]any) (models.EventListener, error) {
	return normalize[models.EventListener](models.ElementTypeEventListener, candidate)
}

// NormalizeEventDispatcher applies defaults to a candidate dispatcher, validates it and decodes it.
func NormalizeEventDispatcher(candidate map[string]any) (models.EventDispatcher, error) {
	return normalize[models.EventDispatcher](models.ElementTypeEventDispatcher, candidate)
}

// NormalizeGateway applies defaults to a candidate gateway, validates it and decodes it.
func NormalizeGateway(candidate map[string]any) (models.Gateway, error) {
	return normalize[models.Gateway](models.ElementTypeGateway, candidate)
}

// NormalizePhase applies defaults to a candidate phase, validates it and decodes it.
func NormalizePhase(candidate map[string]any) (models.Phase, error) {
	return normalize[models.Phase](models.ElementTypePhase, candidate)
}

// NormalizeFlow applies defaults to a candidate flow, validates it and decodes it.
func NormalizeFlow(candidate map[string]any) (models.Flow, error) {
	return normalize[models.Flow](models.ElementTypeFlow, candidate)
}

// Normalize re-validates a typed element. Normalizing an already normalized
// element returns an equal value.
func Normalize[T models.Element](element T) (T, error) {
	candidate, err := ToMap(element)
	if err != nil {
		var zero T

		return zero, err
	}

	return normalize[T](element.GetElementType(), candidate)
}

// ToMap converts a value to its JSON object representation.
func ToMap(value any) (map[string]any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", value, err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", value, err)
	}

	return out, nil
}

func normalize[T any](kind models.ElementType, candidate map[string]any) (T, error) {
	var element T

	subject := definitionNames[kind]

	schemas, err := compiled()
	if err != nil {
		return element, err
	}

	document := maps.Clone(candidate)
	if document == nil {
		document = map[string]any{}
	}

	applyDefaults(kind, document)

	if err := validateJSON(subject, schemas.elements[kind], gojsonschema.NewGoLoader(document)); err != nil {
		return element, err
	}

	if err := decodeStrict(document, &element); err != nil {
		return element, newSchemaViolation(subject, []FieldViolation{{Rule: "decode", Message: err.Error()}})
	}

	if err := validate.Struct(element); err != nil {
		return element, violationFromValidation(subject, err)
	}

	return element, nil
}

func applyDefaults(kind models.ElementType, document map[string]any) {
	if value, ok := document["elementType"]; !ok || value == nil || fmt.Sprint(value) == "" {
		document["elementType"] = string(kind)
	}

	switch kind {
	case models.ElementTypeEventListener:
		setDefault(document, "phaseId", nil)
		setDefault(document, "interrupting", false)
	case models.ElementTypeGateway:
		switch models.GatewayType(fmt.Sprint(document["type"])) {
		case models.GatewayTypeLoop:
			setDefault(document, "loopbackFlowId", nil)
		case models.GatewayTypeConditional:
			setDefault(document, "trueFlowId", nil)
			setDefault(document, "falseFlowId", nil)
		}
	case models.ElementTypePhase:
		if document["commands"] == nil {
			document["commands"] = []any{}
		}
	}
}

func setDefault(document map[string]any, key string, value any) {
	if _, ok := document[key]; !ok {
		document[key] = value
	}
}

func decodeStrict(document map[string]any, target any) error {
	data, err := json.Marshal(document)
	if err != nil {
		return err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	return decoder.Decode(target)
}
