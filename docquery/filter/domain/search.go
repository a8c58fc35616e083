package filter

// FindFirst returns the first leaf of f, in flattening order, that
// satisfies condition, or nil.
func FindFirst(f Filter, condition func(*FieldFilter) bool) *FieldFilter {
	for _, leaf := range f.FlattenedFilters() {
		if condition(leaf) {
			return leaf
		}
	}
	return nil
}
