package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"maps"
)

// ConditionOperator is either a logical combinator (AND, OR) or a comparison.
type ConditionOperator string

const (
	OperatorAnd            ConditionOperator = "AND"
	OperatorOr             ConditionOperator = "OR"
	OperatorEqual          ConditionOperator = "=="
	OperatorGreater        ConditionOperator = ">"
	OperatorGreaterOrEqual ConditionOperator = ">="
	OperatorLess           ConditionOperator = "<"
	OperatorLessOrEqual    ConditionOperator = "<="
)

// IsLogical reports whether the operator combines child conditions.
func (o ConditionOperator) IsLogical() bool {
	return o == OperatorAnd || o == OperatorOr
}

// IsComparison reports whether the operator compares two operands.
func (o ConditionOperator) IsComparison() bool {
	switch o {
	case OperatorEqual, OperatorGreater, OperatorGreaterOrEqual, OperatorLess, OperatorLessOrEqual:
		return true
	default:
		return false
	}
}

var errConditionShape = errors.New("condition must define either conditions or left and right")

// Condition is a node of a boolean expression tree. A node with a non-nil
// Conditions slice is a combinator; any other node is a comparison between
// Left and Right. An empty Operator on a comparison means it is not set yet.
type Condition struct {
	ID         string            `json:"id"`
	Operator   ConditionOperator `json:"operator"`
	Conditions []*Condition      `json:"conditions,omitempty"`
	Left       *Operand          `json:"left,omitempty"`
	Right      *Operand          `json:"right,omitempty"`
}

// NewGroup returns an empty combinator node.
func NewGroup(id string, operator ConditionOperator) *Condition {
	return &Condition{ID: id, Operator: operator, Conditions: []*Condition{}}
}

// NewComparison returns a comparison node with no operator and unset operands.
func NewComparison(id string) *Condition {
	return &Condition{ID: id}
}

// IsGroup reports whether the node is a combinator.
func (c *Condition) IsGroup() bool {
	return c.Conditions != nil
}

// Walk visits the tree in pre-order until fn returns false.
func (c *Condition) Walk(fn func(node *Condition) bool) bool {
	if c == nil {
		return true
	}

	if !fn(c) {
		return false
	}

	for _, child := range c.Conditions {
		if !child.Walk(fn) {
			return false
		}
	}

	return true
}

// Clone returns a deep copy of the tree.
func (c *Condition) Clone() *Condition {
	if c == nil {
		return nil
	}

	clone := &Condition{
		ID:       c.ID,
		Operator: c.Operator,
		Left:     c.Left.Clone(),
		Right:    c.Right.Clone(),
	}

	if c.Conditions != nil {
		clone.Conditions = make([]*Condition, len(c.Conditions))
		for i, child := range c.Conditions {
			clone.Conditions[i] = child.Clone()
		}
	}

	return clone
}

// MarshalJSON encodes combinators as {id, operator, conditions} and
// comparisons as {id, operator, left, right} with nulls for unset values.
func (c Condition) MarshalJSON() ([]byte, error) {
	if c.IsGroup() {
		return json.Marshal(struct {
			ID         string            `json:"id"`
			Operator   ConditionOperator `json:"operator"`
			Conditions []*Condition      `json:"conditions"`
		}{c.ID, c.Operator, c.Conditions})
	}

	var operator *ConditionOperator
	if c.Operator != "" {
		operator = &c.Operator
	}

	return json.Marshal(struct {
		ID       string             `json:"id"`
		Operator *ConditionOperator `json:"operator"`
		Left     *Operand           `json:"left"`
		Right    *Operand           `json:"right"`
	}{c.ID, operator, c.Left, c.Right})
}

// UnmarshalJSON decodes a node, deciding its kind by the keys present.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	rawConditions, hasConditions := fields["conditions"]
	rawLeft, hasLeft := fields["left"]
	rawRight, hasRight := fields["right"]

	if hasConditions == (hasLeft || hasRight) {
		return errConditionShape
	}

	*c = Condition{}

	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &c.ID); err != nil {
			return err
		}
	}

	if raw, ok := fields["operator"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &c.Operator); err != nil {
			return err
		}
	}

	if hasConditions {
		c.Conditions = []*Condition{}
		if !isNull(rawConditions) {
			if err := json.Unmarshal(rawConditions, &c.Conditions); err != nil {
				return err
			}
		}

		return nil
	}

	var err error

	if c.Left, err = decodeOperand(rawLeft); err != nil {
		return err
	}

	c.Right, err = decodeOperand(rawRight)

	return err
}

// DataSourceType selects the payload schema of a data-source reference.
type DataSourceType string

const (
	DataSourceTypeSensorData DataSourceType = "SENSOR_DATA"
)

// DataSource references a value resolved outside the workflow, such as a sensor reading.
type DataSource struct {
	Type DataSourceType `json:"type"`
	Data map[string]any `json:"data"`
}

// Operand is one side of a comparison: a literal (string, float64 or bool)
// or a data-source reference. A nil *Operand means the side is not set.
type Operand struct {
	Value  any
	Source *DataSource
}

// Literal returns an operand holding a constant value.
func Literal(value any) *Operand {
	return &Operand{Value: value}
}

// SensorData returns an operand referencing a sensor slot.
func SensorData(fctID, slotName string) *Operand {
	return &Operand{Source: &DataSource{
		Type: DataSourceTypeSensorData,
		Data: map[string]any{"fctId": fctID, "slotName": slotName},
	}}
}

// IsDataSource reports whether the operand references external data.
func (o *Operand) IsDataSource() bool {
	return o != nil && o.Source != nil
}

// Clone returns a copy of the operand that shares no data-source payload.
func (o *Operand) Clone() *Operand {
	if o == nil {
		return nil
	}

	clone := &Operand{Value: o.Value}
	if o.Source != nil {
		clone.Source = &DataSource{Type: o.Source.Type, Data: maps.Clone(o.Source.Data)}
	}

	return clone
}

func (o Operand) MarshalJSON() ([]byte, error) {
	if o.Source != nil {
		return json.Marshal(o.Source)
	}

	return json.Marshal(o.Value)
}

func (o *Operand) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var source DataSource
		if err := json.Unmarshal(data, &source); err != nil {
			return err
		}

		*o = Operand{Source: &source}

		return nil
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	*o = Operand{Value: value}

	return nil
}

func decodeOperand(raw json.RawMessage) (*Operand, error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, nil
	}

	var operand Operand
	if err := json.Unmarshal(raw, &operand); err != nil {
		return nil, err
	}

	return &operand, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
