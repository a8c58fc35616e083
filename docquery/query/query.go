package query

import (
	"strings"

	filter "github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain/model"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/option"
)

// Query selects the documents of one collection that pass every filter.
// An empty collection selects documents of any collection.
type Query struct {
	collection string
	filters    []filter.Filter
	filter     *filter.CompositeFilter
}

func New(collection string, filters ...filter.Filter) *Query {
	own := make([]filter.Filter, len(filters))
	copy(own, filters)
	return &Query{
		collection: collection,
		filters:    own,
		filter:     filter.NewAnd(own...),
	}
}

func (q *Query) Collection() string {
	return q.collection
}

func (q *Query) Filters() []filter.Filter {
	result := make([]filter.Filter, len(q.filters))
	copy(result, q.filters)
	return result
}

// Filter returns the conjunction of all filters of the query.
func (q *Query) Filter() filter.Filter {
	return q.filter
}

// WithFilter returns a new query with f appended. The receiver is unchanged.
func (q *Query) WithFilter(f filter.Filter) (*Query, error) {
	if err := Validate(q.filter.WithAddedFilters([]filter.Filter{f})); err != nil {
		return nil, err
	}
	return New(q.collection, append(q.Filters(), f)...), nil
}

func (q *Query) Validate() error {
	return Validate(q.filter)
}

func (q *Query) Matches(doc *model.Document) bool {
	if q.collection != "" && doc.Collection() != q.collection {
		return false
	}
	return q.filter.Matches(doc)
}

func (q *Query) InequalityField() option.Option[model.FieldPath] {
	return q.filter.FirstInequalityField()
}

func (q *Query) CanonicalID() string {
	var b strings.Builder
	b.WriteString(q.collection)
	if len(q.filters) > 0 {
		b.WriteString("|f:")
		for _, f := range q.filters {
			b.WriteString(f.CanonicalID())
		}
	}
	return b.String()
}

func (q *Query) String() string {
	return "Query(" + q.CanonicalID() + ")"
}

func (q *Query) Equal(other *Query) bool {
	if other == nil {
		return false
	}
	if q.collection != other.collection || len(q.filters) != len(other.filters) {
		return false
	}
	for i := range q.filters {
		if !q.filters[i].Equal(other.filters[i]) {
			return false
		}
	}
	return true
}
