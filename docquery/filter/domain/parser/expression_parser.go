package parser

import (
	"github.com/expr-lang/expr/ast"
	exprparser "github.com/expr-lang/expr/parser"
	"github.com/pkg/errors"

	filter "github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain/model"
)

var comparisonOperators = map[string]filter.Operator{
	"==": filter.OperatorEqual,
	"!=": filter.OperatorNotEqual,
	"<":  filter.OperatorLessThan,
	"<=": filter.OperatorLessThanEqual,
	">":  filter.OperatorGreaterThan,
	">=": filter.OperatorGreaterThanEqual,
}

// mirrored gives the operator to use when literal and field swap sides.
var mirrored = map[filter.Operator]filter.Operator{
	filter.OperatorEqual:            filter.OperatorEqual,
	filter.OperatorNotEqual:         filter.OperatorNotEqual,
	filter.OperatorLessThan:         filter.OperatorGreaterThan,
	filter.OperatorLessThanEqual:    filter.OperatorGreaterThanEqual,
	filter.OperatorGreaterThan:      filter.OperatorLessThan,
	filter.OperatorGreaterThanEqual: filter.OperatorLessThanEqual,
}

// ExpressionParser builds filter trees from expr-lang boolean expressions:
//
//	age >= 18 && (status == "active" || "vip" in tags) && not (country in ["XX"])
//
// A chain of the same logical operator becomes one composite with its
// operands in source order. "field in [..]" is in, "literal in field" is
// array-contains, and a negated in is not-in.
type ExpressionParser struct{}

func (p ExpressionParser) Parse(source string) (filter.Filter, error) {
	tree, err := exprparser.Parse(source)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidExpression, err.Error())
	}
	return p.convert(tree.Node)
}

func (p ExpressionParser) convert(node ast.Node) (filter.Filter, error) {
	switch n := node.(type) {
	case *ast.BinaryNode:
		if op, ok := logicalOperator(n.Operator); ok {
			operands := p.collect(n, op, nil)
			children := make([]filter.Filter, len(operands))
			for i, operand := range operands {
				child, err := p.convert(operand)
				if err != nil {
					return nil, err
				}
				children[i] = child
			}
			return filter.NewCompositeFilter(children, op), nil
		}
		if n.Operator == "in" {
			return p.convertIn(n, false)
		}
		if op, ok := comparisonOperators[n.Operator]; ok {
			return p.convertComparison(n, op)
		}
		return nil, errors.Wrapf(ErrInvalidExpression, "unsupported operator %q", n.Operator)

	case *ast.UnaryNode:
		if n.Operator == "not" || n.Operator == "!" {
			if in, ok := n.Node.(*ast.BinaryNode); ok && in.Operator == "in" {
				return p.convertIn(in, true)
			}
		}
		return nil, errors.Wrapf(ErrInvalidExpression, "unsupported unary operator %q", n.Operator)
	}
	return nil, errors.Wrapf(ErrInvalidExpression, "unsupported expression %q", node.String())
}

// collect flattens nested nodes of the same logical operator, left to right.
func (p ExpressionParser) collect(node ast.Node, op filter.CompositeOperator, acc []ast.Node) []ast.Node {
	if b, ok := node.(*ast.BinaryNode); ok {
		if nodeOp, isLogical := logicalOperator(b.Operator); isLogical && nodeOp == op {
			acc = p.collect(b.Left, op, acc)
			return p.collect(b.Right, op, acc)
		}
	}
	return append(acc, node)
}

func (p ExpressionParser) convertComparison(n *ast.BinaryNode, op filter.Operator) (filter.Filter, error) {
	if path, ok := fieldPath(n.Left); ok {
		value, err := literal(n.Right)
		if err != nil {
			return nil, err
		}
		return filter.NewFieldFilter(path, op, value), nil
	}
	if path, ok := fieldPath(n.Right); ok {
		value, err := literal(n.Left)
		if err != nil {
			return nil, err
		}
		return filter.NewFieldFilter(path, mirrored[op], value), nil
	}
	return nil, errors.Wrapf(ErrInvalidExpression, "comparison %q needs a field on one side", n.String())
}

func (p ExpressionParser) convertIn(n *ast.BinaryNode, negated bool) (filter.Filter, error) {
	if path, ok := fieldPath(n.Left); ok {
		value, err := literal(n.Right)
		if err != nil {
			return nil, err
		}
		if _, isList := value.([]any); !isList {
			return nil, errors.Wrapf(ErrInvalidExpression, "right side of %q must be an array", n.String())
		}
		if negated {
			return filter.NewFieldFilter(path, filter.OperatorNotIn, value), nil
		}
		return filter.NewFieldFilter(path, filter.OperatorIn, value), nil
	}
	if path, ok := fieldPath(n.Right); ok && !negated {
		value, err := literal(n.Left)
		if err != nil {
			return nil, err
		}
		return filter.NewFieldFilter(path, filter.OperatorArrayContains, value), nil
	}
	return nil, errors.Wrapf(ErrInvalidExpression, "unsupported membership test %q", n.String())
}

func logicalOperator(op string) (filter.CompositeOperator, bool) {
	switch op {
	case "&&", "and":
		return filter.And, true
	case "||", "or":
		return filter.Or, true
	}
	return "", false
}

// fieldPath accepts identifiers and dotted or string-indexed member access.
func fieldPath(node ast.Node) (model.FieldPath, bool) {
	var segments []string
	for {
		switch n := node.(type) {
		case *ast.IdentifierNode:
			segments = append([]string{n.Value}, segments...)
			return model.NewFieldPath(segments...), true
		case *ast.MemberNode:
			property, ok := n.Property.(*ast.StringNode)
			if !ok {
				return model.FieldPath{}, false
			}
			segments = append([]string{property.Value}, segments...)
			node = n.Node
		default:
			return model.FieldPath{}, false
		}
	}
}

func literal(node ast.Node) (any, error) {
	switch n := node.(type) {
	case *ast.NilNode:
		return nil, nil
	case *ast.BoolNode:
		return n.Value, nil
	case *ast.IntegerNode:
		return n.Value, nil
	case *ast.FloatNode:
		return n.Value, nil
	case *ast.StringNode:
		return n.Value, nil
	case *ast.ConstantNode:
		return n.Value, nil
	case *ast.UnaryNode:
		if n.Operator == "-" || n.Operator == "+" {
			value, err := literal(n.Node)
			if err != nil {
				return nil, err
			}
			return signed(n.Operator, value)
		}
	case *ast.ArrayNode:
		values := make([]any, len(n.Nodes))
		for i, item := range n.Nodes {
			value, err := literal(item)
			if err != nil {
				return nil, err
			}
			values[i] = value
		}
		return values, nil
	}
	return nil, errors.Wrapf(ErrInvalidExpression, "expected a literal, got %q", node.String())
}

func signed(op string, value any) (any, error) {
	if op == "+" {
		switch value.(type) {
		case int, float64:
			return value, nil
		}
	} else {
		switch v := value.(type) {
		case int:
			return -v, nil
		case float64:
			return -v, nil
		}
	}
	return nil, errors.Wrapf(ErrInvalidExpression, "cannot apply %s to %v", op, value)
}

// ParseExpression parses an expr-lang boolean expression into a filter tree.
func ParseExpression(source string) (filter.Filter, error) {
	return ExpressionParser{}.Parse(source)
}
