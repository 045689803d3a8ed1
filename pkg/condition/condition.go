// Package condition edits and renders condition trees. Every edit clones the
// tree first and returns the clone; the input tree is never modified.
package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dukex/procflow/pkg/models"
)

const idPrefix = "condition_"

// CreateRootCondition returns an empty AND group with a fresh id.
func CreateRootCondition() *models.Condition {
	return models.NewGroup(idPrefix+"0", models.OperatorAnd)
}

// GetUniqueConditionID returns the lowest condition_<n> not used anywhere in the tree.
func GetUniqueConditionID(root *models.Condition) string {
	used := make(map[int]bool)

	root.Walk(func(node *models.Condition) bool {
		if node == nil {
			return true
		}

		suffix, found := strings.CutPrefix(node.ID, idPrefix)
		if !found {
			return true
		}

		if n, err := strconv.Atoi(suffix); err == nil && n >= 0 && strconv.Itoa(n) == suffix {
			used[n] = true
		}

		return true
	})

	n := 0
	for used[n] {
		n++
	}

	return idPrefix + strconv.Itoa(n)
}

// Clone returns a deep copy of the tree.
func Clone(node *models.Condition) *models.Condition {
	return node.Clone()
}

// Find returns the node with the given id.
func Find(root *models.Condition, id string) (*models.Condition, bool) {
	var found *models.Condition

	root.Walk(func(node *models.Condition) bool {
		if node != nil && node.ID == id {
			found = node

			return false
		}

		return true
	})

	return found, found != nil
}

func findParent(root *models.Condition, id string) (*models.Condition, bool) {
	var parent *models.Condition

	root.Walk(func(node *models.Condition) bool {
		if node == nil {
			return true
		}

		for _, child := range node.Conditions {
			if child != nil && child.ID == id {
				parent = node

				return false
			}
		}

		return true
	})

	return parent, parent != nil
}

// AddConditionToGroup appends an empty comparison to the group groupID.
func AddConditionToGroup(root *models.Condition, groupID string) (*models.Condition, error) {
	return appendChild(root, groupID, func(id string) *models.Condition {
		return models.NewComparison(id)
	})
}

// AddGroupToGroup appends an empty AND group to the group groupID.
func AddGroupToGroup(root *models.Condition, groupID string) (*models.Condition, error) {
	return appendChild(root, groupID, func(id string) *models.Condition {
		return models.NewGroup(id, models.OperatorAnd)
	})
}

func appendChild(root *models.Condition, groupID string, build func(id string) *models.Condition) (*models.Condition, error) {
	clone := Clone(root)

	group, err := lookup(clone, groupID)
	if err != nil {
		return root, err
	}

	if !group.IsGroup() {
		return root, fmt.Errorf("%w: %s", ErrNotAGroup, groupID)
	}

	group.Conditions = append(group.Conditions, build(GetUniqueConditionID(clone)))

	return clone, nil
}

// SetOperator sets the operator of a node. Groups take AND or OR; comparisons
// take a comparison operator, or the empty operator to unset it.
func SetOperator(root *models.Condition, id string, operator models.ConditionOperator) (*models.Condition, error) {
	clone := Clone(root)

	node, err := lookup(clone, id)
	if err != nil {
		return root, err
	}

	valid := operator.IsComparison() || operator == ""
	if node.IsGroup() {
		valid = operator.IsLogical()
	}

	if !valid {
		return root, fmt.Errorf("%w %s: %q", ErrInvalidOperator, id, operator)
	}

	node.Operator = operator

	return clone, nil
}

// SetLeft sets the left operand of a comparison. A nil operand unsets it.
func SetLeft(root *models.Condition, id string, operand *models.Operand) (*models.Condition, error) {
	return setOperand(root, id, func(node *models.Condition) {
		node.Left = operand.Clone()
	})
}

// SetRight sets the right operand of a comparison. A nil operand unsets it.
func SetRight(root *models.Condition, id string, operand *models.Operand) (*models.Condition, error) {
	return setOperand(root, id, func(node *models.Condition) {
		node.Right = operand.Clone()
	})
}

func setOperand(root *models.Condition, id string, set func(node *models.Condition)) (*models.Condition, error) {
	clone := Clone(root)

	node, err := lookup(clone, id)
	if err != nil {
		return root, err
	}

	if node.IsGroup() {
		return root, fmt.Errorf("%w: %s", ErrNotAComparison, id)
	}

	set(node)

	return clone, nil
}

// DeleteConditionFromGroup removes the node with the given id from its parent group.
func DeleteConditionFromGroup(root *models.Condition, id string) (*models.Condition, error) {
	if root != nil && root.ID == id {
		return root, ErrCannotDeleteRoot
	}

	clone := Clone(root)

	parent, ok := findParent(clone, id)
	if !ok {
		return root, fmt.Errorf("%w: %s", ErrConditionNotFound, id)
	}

	children := make([]*models.Condition, 0, len(parent.Conditions))
	for _, child := range parent.Conditions {
		if child == nil || child.ID != id {
			children = append(children, child)
		}
	}

	parent.Conditions = children

	return clone, nil
}

func lookup(root *models.Condition, id string) (*models.Condition, error) {
	node, ok := Find(root, id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConditionNotFound, id)
	}

	return node, nil
}
