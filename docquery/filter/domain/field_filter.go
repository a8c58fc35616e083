package filter

import (
	"reflect"

	"github.com/cespare/xxhash/v2"

	"github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain/model"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain/operators"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/option"
)

var registry = operators.NewDefaultRegistry()

// FieldFilter compares one document field against one value.
type FieldFilter struct {
	field       model.FieldPath
	op          Operator
	value       any
	canonicalID string
}

func NewFieldFilter(field model.FieldPath, op Operator, value any) *FieldFilter {
	return &FieldFilter{
		field:       field,
		op:          op,
		value:       value,
		canonicalID: field.CanonicalString() + op.String() + model.CanonicalValue(value),
	}
}

func (f *FieldFilter) Field() model.FieldPath {
	return f.field
}

func (f *FieldFilter) Operator() Operator {
	return f.op
}

func (f *FieldFilter) Value() any {
	return f.value
}

func (f *FieldFilter) IsInequality() bool {
	return f.op.IsInequality()
}

// Matches requires the field to be present. != and not-in additionally
// require it to be non-nil.
func (f *FieldFilter) Matches(doc *model.Document) bool {
	actual, ok := doc.Field(f.field)
	if !ok {
		return false
	}
	switch f.op {
	case OperatorEqual:
		return valuesEqual(actual, f.value)
	case OperatorNotEqual:
		return actual != nil && !valuesEqual(actual, f.value)
	case OperatorLessThan, OperatorLessThanEqual, OperatorGreaterThan, OperatorGreaterThanEqual:
		return registry.ExecPredicate(actual, orderingOperators[f.op], f.value)
	case OperatorIn:
		return containsValue(f.value, actual)
	case OperatorNotIn:
		if actual == nil {
			return false
		}
		if _, isList := elements(f.value); !isList {
			return false
		}
		return !containsValue(f.value, actual)
	case OperatorArrayContains:
		return containsValue(actual, f.value)
	case OperatorArrayContainsAny:
		candidates, ok := elements(f.value)
		if !ok {
			return false
		}
		for _, candidate := range candidates {
			if containsValue(actual, candidate) {
				return true
			}
		}
		return false
	}
	return false
}

func (f *FieldFilter) Filters() []Filter {
	return []Filter{f}
}

func (f *FieldFilter) FlattenedFilters() []*FieldFilter {
	return []*FieldFilter{f}
}

func (f *FieldFilter) FirstInequalityField() option.Option[model.FieldPath] {
	if f.IsInequality() {
		return option.Some(f.field)
	}
	return option.Nothing[model.FieldPath]()
}

func (f *FieldFilter) CanonicalID() string {
	return f.canonicalID
}

func (f *FieldFilter) String() string {
	return f.canonicalID
}

func (f *FieldFilter) Equal(other Filter) bool {
	o, ok := other.(*FieldFilter)
	if !ok {
		return false
	}
	return f.op == o.op && f.field.Equal(o.field) && reflect.DeepEqual(f.value, o.value)
}

func (f *FieldFilter) Hash() uint64 {
	return xxhash.Sum64String(f.canonicalID)
}

func (f *FieldFilter) Accept(visitor FilterVisitor) (any, error) {
	return visitor.VisitField(f)
}

// valuesEqual compares scalars through the registry, so 1 equals 1.0,
// and falls back to deep equality for lists, maps and unregistered types.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	result, err := registry.ExecBinary(a, operators.OperatorEq, b)
	if err == nil {
		eq, ok := result.(bool)
		return ok && eq
	}
	al, aIsList := elements(a)
	bl, bIsList := elements(b)
	if aIsList && bIsList {
		if len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !valuesEqual(al[i], bl[i]) {
				return false
			}
		}
		return true
	}
	am, aIsMap := model.AsMap(a)
	bm, bIsMap := model.AsMap(b)
	if aIsMap && bIsMap {
		if len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !valuesEqual(av, bv) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func containsValue(list any, v any) bool {
	items, ok := elements(list)
	if !ok {
		return false
	}
	for _, item := range items {
		if valuesEqual(item, v) {
			return true
		}
	}
	return false
}

// elements unpacks any slice or array kind. Byte slices are not lists.
func elements(v any) ([]any, bool) {
	return model.AsList(v)
}
