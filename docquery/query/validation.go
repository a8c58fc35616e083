package query

import (
	"reflect"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	filter "github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain"
)

const MaxDisjunctiveValues = 30

var conflictingOperators = map[filter.Operator][]filter.Operator{
	filter.OperatorNotEqual:         {filter.OperatorNotEqual, filter.OperatorNotIn},
	filter.OperatorArrayContains:    {filter.OperatorArrayContains, filter.OperatorArrayContainsAny, filter.OperatorNotIn},
	filter.OperatorIn:               {filter.OperatorArrayContainsAny, filter.OperatorNotIn},
	filter.OperatorArrayContainsAny: {filter.OperatorArrayContains, filter.OperatorArrayContainsAny, filter.OperatorIn, filter.OperatorNotIn},
	filter.OperatorNotIn:            {filter.OperatorArrayContains, filter.OperatorArrayContainsAny, filter.OperatorIn, filter.OperatorNotIn, filter.OperatorNotEqual},
}

// Validate checks a filter tree before it is used in a query. Every
// problem found is reported, combined into a multierror.
func Validate(f filter.Filter) error {
	w := &walker{ancestors: map[any]struct{}{}}
	w.walk(f)

	var seen []*filter.FieldFilter
	var inequalityField *filter.FieldFilter
	for _, leaf := range w.leaves {
		if leaf.IsInequality() {
			if inequalityField == nil {
				inequalityField = leaf
			} else if !inequalityField.Field().Equal(leaf.Field()) {
				w.fail(errors.Wrapf(ErrMultipleInequalityFields, "%s and %s", inequalityField.Field(), leaf.Field()))
			}
		}
		for _, prev := range seen {
			if conflicts(leaf.Operator(), prev.Operator()) {
				w.fail(errors.Wrapf(ErrConflictingOperators, "%q cannot be used with %q", leaf.Operator(), prev.Operator()))
				break
			}
		}
		if leaf.Operator().IsDisjunctive() {
			if err := validateDisjunctiveValue(leaf); err != nil {
				w.fail(err)
			}
		}
		seen = append(seen, leaf)
	}
	return w.result.ErrorOrNil()
}

func conflicts(op, existing filter.Operator) bool {
	for _, c := range conflictingOperators[op] {
		if c == existing {
			return true
		}
	}
	return false
}

func validateDisjunctiveValue(leaf *filter.FieldFilter) error {
	rv := reflect.ValueOf(leaf.Value())
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Type().Elem().Kind() == reflect.Uint8 {
		return errors.Wrapf(ErrInvalidDisjunctiveValue, "%q on %s needs an array, got %T", leaf.Operator(), leaf.Field(), leaf.Value())
	}
	if rv.Len() == 0 {
		return errors.Wrapf(ErrInvalidDisjunctiveValue, "%q on %s needs a non-empty array", leaf.Operator(), leaf.Field())
	}
	if rv.Len() > MaxDisjunctiveValues {
		return errors.Wrapf(ErrInvalidDisjunctiveValue, "%q on %s supports up to %d elements, got %d",
			leaf.Operator(), leaf.Field(), MaxDisjunctiveValues, rv.Len())
	}
	return nil
}

// walker collects the leaves of a tree. A node already on the current
// path is reported as a cycle and not entered again.
type walker struct {
	ancestors map[any]struct{}
	leaves    []*filter.FieldFilter
	result    *multierror.Error
}

func (w *walker) fail(err error) {
	w.result = multierror.Append(w.result, err)
}

func (w *walker) walk(f filter.Filter) {
	if f == nil {
		return
	}
	if leaf, ok := f.(*filter.FieldFilter); ok {
		w.leaves = append(w.leaves, leaf)
		return
	}
	children := f.Filters()
	if len(children) == 1 && sameNode(children[0], f) {
		return
	}
	key, ok := identity(f)
	if ok {
		if _, onPath := w.ancestors[key]; onPath {
			w.fail(errors.Wrapf(ErrCyclicFilter, "at %T", f))
			return
		}
		w.ancestors[key] = struct{}{}
		defer delete(w.ancestors, key)
	}
	for _, child := range children {
		w.walk(child)
	}
}

func identity(f filter.Filter) (any, bool) {
	if f == nil || !reflect.TypeOf(f).Comparable() {
		return nil, false
	}
	return f, true
}

func sameNode(a, b filter.Filter) bool {
	ka, ok := identity(a)
	if !ok {
		return false
	}
	kb, ok := identity(b)
	return ok && ka == kb
}
