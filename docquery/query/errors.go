package query

import "github.com/pkg/errors"

var (
	ErrMultipleInequalityFields = errors.New("inequality filters on more than one field")
	ErrConflictingOperators     = errors.New("conflicting filter operators")
	ErrInvalidDisjunctiveValue  = errors.New("invalid disjunctive filter value")
	ErrCyclicFilter             = errors.New("filter tree contains a cycle")
)
