package filter

import "github.com/pkg/errors"

// FilterToDictVisitor renders a filter tree in the map query language:
// a leaf becomes {"field": {"$op": value}}, a composite {"$and": [...]}
// or {"$or": [...]}.
type FilterToDictVisitor struct{}

func (v FilterToDictVisitor) Visit(f Filter) (map[string]any, error) {
	result, err := f.Accept(v)
	if err != nil {
		return nil, err
	}
	return result.(map[string]any), nil
}

func (v FilterToDictVisitor) VisitField(f *FieldFilter) (any, error) {
	key := f.Operator().QueryKey()
	if key == "" {
		return nil, errors.Errorf("operator %q has no query form", f.Operator())
	}
	return map[string]any{
		f.Field().CanonicalString(): map[string]any{key: f.Value()},
	}, nil
}

func (v FilterToDictVisitor) VisitComposite(f *CompositeFilter) (any, error) {
	children := f.Filters()
	items := make([]any, len(children))
	for i, child := range children {
		item, err := child.Accept(v)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return map[string]any{"$" + f.Operator().String(): items}, nil
}

var filterToDictVisitor = FilterToDictVisitor{}

// FilterToDict converts a filter tree to map[string]any with operators.
func FilterToDict(f Filter) (map[string]any, error) {
	return filterToDictVisitor.Visit(f)
}
