package models

// JSONSchema represents a JSON Schema (draft-07) document or sub-schema.
type JSONSchema struct {
	Schema               string                 `json:"$schema,omitempty"`
	Ref                  string                 `json:"$ref,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Type                 any                    `json:"type,omitempty"` // string or []string
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	Enum                 []any                  `json:"enum,omitempty"`
	Const                any                    `json:"const,omitempty"`
	Default              any                    `json:"default,omitempty"`
	MinLength            *int                   `json:"minLength,omitempty"`
	Minimum              *float64               `json:"minimum,omitempty"`
	OneOf                []*JSONSchema          `json:"oneOf,omitempty"`
	AnyOf                []*JSONSchema          `json:"anyOf,omitempty"`
	AllOf                []*JSONSchema          `json:"allOf,omitempty"`
	Not                  *JSONSchema            `json:"not,omitempty"`
	Definitions          map[string]*JSONSchema `json:"definitions,omitempty"`
}

// SchemaProvider is implemented by components exposing a JSON Schema.
type SchemaProvider interface {
	GetSchema() *JSONSchema
}
