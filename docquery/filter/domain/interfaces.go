package filter

import (
	"github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain/model"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/option"
)

// Filter tests documents and reports the structural properties of the
// predicate tree it roots. Implementations are immutable and safe for
// concurrent use.
//
// A tree that contains itself is undefined behaviour: Matches,
// FlattenedFilters and CanonicalID recurse without cycle detection.
// Use query.Validate on trees of untrusted shape.
type Filter interface {
	Matches(doc *model.Document) bool
	// Filters returns the direct children; a leaf returns itself.
	Filters() []Filter
	// FlattenedFilters returns every leaf in depth-first, left-to-right order.
	FlattenedFilters() []*FieldFilter
	FirstInequalityField() option.Option[model.FieldPath]
	CanonicalID() string
	String() string
	Equal(other Filter) bool
	Hash() uint64
	Accept(visitor FilterVisitor) (any, error)
}

type FilterVisitor interface {
	VisitField(f *FieldFilter) (any, error)
	VisitComposite(f *CompositeFilter) (any, error)
}
