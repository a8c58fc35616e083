package filter

import (
	"github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain/operators"
)

// Operator is the comparison a FieldFilter applies.
type Operator string

const (
	OperatorEqual            Operator = "="
	OperatorNotEqual         Operator = "!="
	OperatorLessThan         Operator = "<"
	OperatorLessThanEqual    Operator = "<="
	OperatorGreaterThan      Operator = ">"
	OperatorGreaterThanEqual Operator = ">="
	OperatorArrayContains    Operator = "array-contains"
	OperatorArrayContainsAny Operator = "array-contains-any"
	OperatorIn               Operator = "in"
	OperatorNotIn            Operator = "not-in"
)

var queryKeys = map[Operator]string{
	OperatorEqual:            "$eq",
	OperatorNotEqual:         "$ne",
	OperatorLessThan:         "$lt",
	OperatorLessThanEqual:    "$lte",
	OperatorGreaterThan:      "$gt",
	OperatorGreaterThanEqual: "$gte",
	OperatorArrayContains:    "$contains",
	OperatorArrayContainsAny: "$containsAny",
	OperatorIn:               "$in",
	OperatorNotIn:            "$nin",
}

var operatorsByQueryKey = func() map[string]Operator {
	m := make(map[string]Operator, len(queryKeys))
	for op, key := range queryKeys {
		m[key] = op
	}
	return m
}()

var orderingOperators = map[Operator]operators.Operator{
	OperatorLessThan:         operators.OperatorLt,
	OperatorLessThanEqual:    operators.OperatorLte,
	OperatorGreaterThan:      operators.OperatorGt,
	OperatorGreaterThanEqual: operators.OperatorGte,
}

func (o Operator) String() string {
	return string(o)
}

// IsInequality is true for the ordering operators and for != and not-in.
func (o Operator) IsInequality() bool {
	switch o {
	case OperatorLessThan, OperatorLessThanEqual, OperatorGreaterThan, OperatorGreaterThanEqual,
		OperatorNotEqual, OperatorNotIn:
		return true
	}
	return false
}

// IsDisjunctive is true for the operators whose value is a list of alternatives.
func (o Operator) IsDisjunctive() bool {
	switch o {
	case OperatorIn, OperatorNotIn, OperatorArrayContainsAny:
		return true
	}
	return false
}

// QueryKey is the operator's spelling in the map query language ("$lt").
func (o Operator) QueryKey() string {
	return queryKeys[o]
}

func OperatorFromQueryKey(key string) (Operator, bool) {
	op, ok := operatorsByQueryKey[key]
	return op, ok
}

// CompositeOperator combines the children of a CompositeFilter.
type CompositeOperator string

const (
	And CompositeOperator = "and"
	Or  CompositeOperator = "or"
)

func (o CompositeOperator) String() string {
	return string(o)
}
