package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dukex/procflow/pkg/models"
)

const (
	indentUnit      = "  "
	nullToken       = "null"
	dataSourceToken = "DATA_SOURCE"
)

// PrintOption configures Print.
type PrintOption func(*printer)

// WithFlatten controls whether nested groups repeating the operator of the
// enclosing group are listed inline. Flattening is on by default.
func WithFlatten(flatten bool) PrintOption {
	return func(p *printer) {
		p.flatten = flatten
	}
}

type printer struct {
	flatten bool
	// levelOps holds the operator of the last group header printed at each level.
	levelOps map[int]models.ConditionOperator
	lines    []string
}

// Print renders the tree one node per line, indenting children of a group
// one level deeper than its operator line.
func Print(condition *models.Condition, opts ...PrintOption) string {
	p := &printer{flatten: true, levelOps: make(map[int]models.ConditionOperator)}
	for _, opt := range opts {
		opt(p)
	}

	p.node(condition, 0)

	return strings.Join(p.lines, "\n")
}

func (p *printer) node(node *models.Condition, level int) {
	if node == nil {
		return
	}

	if !node.IsGroup() {
		p.line(level, operand(node.Left)+" "+operator(node.Operator)+" "+operand(node.Right))

		return
	}

	p.line(level, operator(node.Operator))
	p.levelOps[level] = node.Operator
	p.children(node, level+1)
}

func (p *printer) children(group *models.Condition, level int) {
	for _, child := range group.Conditions {
		if p.flatten && child != nil && child.IsGroup() && child.Operator == p.levelOps[level-1] {
			p.children(child, level)

			continue
		}

		p.node(child, level)
	}
}

func (p *printer) line(level int, text string) {
	p.lines = append(p.lines, strings.Repeat(indentUnit, level)+text)
}

func operator(op models.ConditionOperator) string {
	if op == "" {
		return nullToken
	}

	return string(op)
}

func operand(value *models.Operand) string {
	switch {
	case value == nil:
		return nullToken
	case value.IsDataSource():
		return dataSourceToken
	}

	switch v := value.Value.(type) {
	case nil:
		return nullToken
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
