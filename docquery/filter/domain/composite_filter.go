package filter

import (
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain/model"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/option"
)

// CompositeFilter is the conjunction or disjunction of other filters.
type CompositeFilter struct {
	filters  []Filter
	operator CompositeOperator

	// Set once, from nil to the complete leaf list, and never reset.
	flattened atomic.Pointer[[]*FieldFilter]
}

// NewCompositeFilter performs no validation: children may be empty,
// repeated, or any mix of leaves and composites. The slice is copied.
// Any operator other than And is stored as Or.
func NewCompositeFilter(filters []Filter, operator CompositeOperator) *CompositeFilter {
	children := make([]Filter, len(filters))
	copy(children, filters)
	if operator != And {
		operator = Or
	}
	return &CompositeFilter{
		filters:  children,
		operator: operator,
	}
}

func NewAnd(filters ...Filter) *CompositeFilter {
	return NewCompositeFilter(filters, And)
}

func NewOr(filters ...Filter) *CompositeFilter {
	return NewCompositeFilter(filters, Or)
}

func (c *CompositeFilter) Filters() []Filter {
	children := make([]Filter, len(c.filters))
	copy(children, c.filters)
	return children
}

func (c *CompositeFilter) Operator() CompositeOperator {
	return c.operator
}

// FlattenedFilters is memoized: every call after the first returns the
// same slice, which callers must not modify. Concurrent first calls may
// each compute the list, but only one result is published and returned.
func (c *CompositeFilter) FlattenedFilters() []*FieldFilter {
	if cached := c.flattened.Load(); cached != nil {
		return *cached
	}
	leaves := make([]*FieldFilter, 0, len(c.filters))
	for _, sub := range c.filters {
		leaves = append(leaves, sub.FlattenedFilters()...)
	}
	if !c.flattened.CompareAndSwap(nil, &leaves) {
		return *c.flattened.Load()
	}
	return leaves
}

// FirstInequalityField reports the field of the first inequality leaf in
// flattening order.
func (c *CompositeFilter) FirstInequalityField() option.Option[model.FieldPath] {
	found := FindFirst(c, (*FieldFilter).IsInequality)
	if found == nil {
		return option.Nothing[model.FieldPath]()
	}
	return option.Some(found.Field())
}

func (c *CompositeFilter) IsConjunction() bool {
	return c.operator == And
}

func (c *CompositeFilter) IsDisjunction() bool {
	return c.operator == Or
}

// IsFlat is true when no direct child is a composite filter.
func (c *CompositeFilter) IsFlat() bool {
	for _, sub := range c.filters {
		if _, ok := sub.(*CompositeFilter); ok {
			return false
		}
	}
	return true
}

func (c *CompositeFilter) IsFlatConjunction() bool {
	return c.IsFlat() && c.IsConjunction()
}

// WithAddedFilters returns a new composite with the same operator whose
// children are these children followed by extra.
func (c *CompositeFilter) WithAddedFilters(extra []Filter) *CompositeFilter {
	merged := make([]Filter, 0, len(c.filters)+len(extra))
	merged = append(merged, c.filters...)
	merged = append(merged, extra...)
	return &CompositeFilter{
		filters:  merged,
		operator: c.operator,
	}
}

// Matches short-circuits: a conjunction stops at the first child that
// does not match, a disjunction at the first that does.
func (c *CompositeFilter) Matches(doc *model.Document) bool {
	if c.IsConjunction() {
		for _, sub := range c.filters {
			if !sub.Matches(doc) {
				return false
			}
		}
		return true
	}
	for _, sub := range c.filters {
		if sub.Matches(doc) {
			return true
		}
	}
	return false
}

func (c *CompositeFilter) CanonicalID() string {
	var b strings.Builder
	if c.IsConjunction() {
		b.WriteString("and(")
	} else {
		b.WriteString("or(")
	}
	for i, sub := range c.filters {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(sub.CanonicalID())
	}
	b.WriteByte(')')
	return b.String()
}

func (c *CompositeFilter) String() string {
	return c.CanonicalID()
}

// Equal requires the same operator and pairwise equal children in the
// same order. Duplicates are not collapsed.
func (c *CompositeFilter) Equal(other Filter) bool {
	o, ok := other.(*CompositeFilter)
	if !ok {
		return false
	}
	if c.operator != o.operator || len(c.filters) != len(o.filters) {
		return false
	}
	for i := range c.filters {
		if !c.filters[i].Equal(o.filters[i]) {
			return false
		}
	}
	return true
}

func (c *CompositeFilter) Hash() uint64 {
	h := uint64(37)
	h = 31*h + xxhash.Sum64String(c.operator.String())
	h = 31*h + listHash(c.filters)
	return h
}

func (c *CompositeFilter) Accept(visitor FilterVisitor) (any, error) {
	return visitor.VisitComposite(c)
}

func listHash(filters []Filter) uint64 {
	h := uint64(1)
	for _, f := range filters {
		h = 31*h + f.Hash()
	}
	return h
}
