package condition

import "errors"

var (
	ErrConditionNotFound = errors.New("condition not found")
	ErrNotAGroup         = errors.New("condition is not a group")
	ErrNotAComparison    = errors.New("condition is not a comparison")
	ErrInvalidOperator   = errors.New("invalid operator for condition")
	ErrCannotDeleteRoot  = errors.New("root condition cannot be deleted")
)
