package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	filter "github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain/model"
)

// =============================================================================
// Test Fixtures
// =============================================================================

func leaf(field string, op filter.Operator, value any) *filter.FieldFilter {
	return filter.NewFieldFilter(model.ParseFieldPath(field), op, value)
}

// loopFilter lists itself among its children.
type loopFilter struct {
	*filter.CompositeFilter
	extra []filter.Filter
}

func (f *loopFilter) Filters() []filter.Filter {
	return append([]filter.Filter{f}, f.extra...)
}

// =============================================================================
// Query
// =============================================================================

func TestQueryMatches(t *testing.T) {
	q := New("users", leaf("age", filter.OperatorGreaterThanEqual, 18), leaf("active", filter.OperatorEqual, true))

	t.Run("matching document", func(t *testing.T) {
		doc := model.NewDocument("users/u1", map[string]any{"age": 30, "active": true})
		assert.True(t, q.Matches(doc))
	})
	t.Run("filter fails", func(t *testing.T) {
		doc := model.NewDocument("users/u2", map[string]any{"age": 10, "active": true})
		assert.False(t, q.Matches(doc))
	})
	t.Run("other collection", func(t *testing.T) {
		doc := model.NewDocument("admins/u1", map[string]any{"age": 30, "active": true})
		assert.False(t, q.Matches(doc))
	})
	t.Run("empty collection matches any", func(t *testing.T) {
		doc := model.NewDocument("admins/u1", map[string]any{"age": 30, "active": true})
		assert.True(t, New("", q.Filters()...).Matches(doc))
	})
	t.Run("no filters", func(t *testing.T) {
		assert.True(t, New("users").Matches(model.NewDocument("users/u3", nil)))
	})
}

func TestQueryCanonicalID(t *testing.T) {
	assert.Equal(t, "users", New("users").CanonicalID())
	assert.Equal(t, "users|f:a=1b<2",
		New("users", leaf("a", filter.OperatorEqual, 1), leaf("b", filter.OperatorLessThan, 2)).CanonicalID())
	assert.Equal(t, "users|f:or(a=1,a=2)",
		New("users", filter.NewOr(leaf("a", filter.OperatorEqual, 1), leaf("a", filter.OperatorEqual, 2))).CanonicalID())
}

func TestQueryWithFilter(t *testing.T) {
	base := New("users", leaf("age", filter.OperatorGreaterThan, 18))

	t.Run("appends and keeps receiver", func(t *testing.T) {
		next, err := base.WithFilter(leaf("age", filter.OperatorLessThan, 65))
		require.NoError(t, err)
		assert.Len(t, next.Filters(), 2)
		assert.Len(t, base.Filters(), 1)
		assert.Len(t, next.Filter().FlattenedFilters(), 2)
	})

	t.Run("rejects second inequality field", func(t *testing.T) {
		_, err := base.WithFilter(leaf("score", filter.OperatorLessThan, 5))
		assert.ErrorIs(t, err, ErrMultipleInequalityFields)
	})
}

func TestQueryInequalityField(t *testing.T) {
	assert.True(t, New("users", leaf("a", filter.OperatorEqual, 1)).InequalityField().IsNothing())

	field := New("users", leaf("a", filter.OperatorEqual, 1), leaf("b", filter.OperatorNotIn, []any{1})).InequalityField()
	require.True(t, field.IsSome())
	assert.Equal(t, "b", field.Unwrap().String())
}

func TestQueryEqual(t *testing.T) {
	a := New("users", leaf("a", filter.OperatorEqual, 1), leaf("b", filter.OperatorEqual, 2))
	assert.True(t, a.Equal(New("users", leaf("a", filter.OperatorEqual, 1), leaf("b", filter.OperatorEqual, 2))))
	assert.False(t, a.Equal(New("users", leaf("b", filter.OperatorEqual, 2), leaf("a", filter.OperatorEqual, 1))))
	assert.False(t, a.Equal(New("admins", leaf("a", filter.OperatorEqual, 1), leaf("b", filter.OperatorEqual, 2))))
	assert.False(t, a.Equal(nil))
}

func TestQueryCopiesFilters(t *testing.T) {
	filters := []filter.Filter{leaf("a", filter.OperatorEqual, 1)}
	q := New("users", filters...)
	filters[0] = leaf("z", filter.OperatorEqual, 9)
	assert.Equal(t, "users|f:a=1", q.CanonicalID())
}

// =============================================================================
// Validation
// =============================================================================

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		filter  filter.Filter
		wantErr error
	}{
		{"empty", filter.NewAnd(), nil},
		{"single inequality field", filter.NewAnd(
			leaf("a", filter.OperatorGreaterThan, 1), leaf("a", filter.OperatorLessThan, 5)), nil},
		{"two inequality fields", filter.NewAnd(
			leaf("a", filter.OperatorGreaterThan, 1), leaf("b", filter.OperatorLessThan, 5)), ErrMultipleInequalityFields},
		{"inequality fields across or", filter.NewOr(
			leaf("a", filter.OperatorGreaterThan, 1), filter.NewAnd(leaf("b", filter.OperatorNotEqual, 5))), ErrMultipleInequalityFields},
		{"two not equal", filter.NewAnd(
			leaf("a", filter.OperatorNotEqual, 1), leaf("a", filter.OperatorNotEqual, 2)), ErrConflictingOperators},
		{"not equal with not-in", filter.NewAnd(
			leaf("a", filter.OperatorNotEqual, 1), leaf("a", filter.OperatorNotIn, []any{2})), ErrConflictingOperators},
		{"array-contains twice", filter.NewAnd(
			leaf("t", filter.OperatorArrayContains, 1), leaf("u", filter.OperatorArrayContains, 2)), ErrConflictingOperators},
		{"in with array-contains-any", filter.NewAnd(
			leaf("t", filter.OperatorIn, []any{1}), leaf("u", filter.OperatorArrayContainsAny, []any{2})), ErrConflictingOperators},
		{"in with in", filter.NewAnd(
			leaf("t", filter.OperatorIn, []any{1}), leaf("u", filter.OperatorIn, []any{2})), nil},
		{"in with array-contains", filter.NewAnd(
			leaf("t", filter.OperatorIn, []any{1}), leaf("u", filter.OperatorArrayContains, 2)), nil},
		{"not-in with in", filter.NewAnd(
			leaf("t", filter.OperatorIn, []any{1}), leaf("t", filter.OperatorNotIn, []any{2})), ErrConflictingOperators},
		{"in with scalar", leaf("t", filter.OperatorIn, 1), ErrInvalidDisjunctiveValue},
		{"in with empty list", leaf("t", filter.OperatorIn, []any{}), ErrInvalidDisjunctiveValue},
		{"in with bytes", leaf("t", filter.OperatorIn, []byte("ab")), ErrInvalidDisjunctiveValue},
		{"in with typed slice", leaf("t", filter.OperatorIn, []string{"a", "b"}), nil},
		{"array-contains-any too long", leaf("t", filter.OperatorArrayContainsAny, make([]any, MaxDisjunctiveValues+1)), ErrInvalidDisjunctiveValue},
		{"array-contains-any at limit", leaf("t", filter.OperatorArrayContainsAny, make([]any, MaxDisjunctiveValues)), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.filter)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	err := Validate(filter.NewAnd(
		leaf("a", filter.OperatorGreaterThan, 1),
		leaf("b", filter.OperatorLessThan, 2),
		leaf("c", filter.OperatorIn, []any{}),
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMultipleInequalityFields)
	assert.ErrorIs(t, err, ErrInvalidDisjunctiveValue)
}

func TestValidateDetectsCycle(t *testing.T) {
	loop := &loopFilter{
		CompositeFilter: filter.NewAnd(),
		extra:           []filter.Filter{leaf("a", filter.OperatorEqual, 1)},
	}
	err := Validate(filter.NewAnd(leaf("b", filter.OperatorEqual, 2), loop))
	assert.ErrorIs(t, err, ErrCyclicFilter)
}

func TestValidateSharedSubtreeIsNotACycle(t *testing.T) {
	shared := filter.NewOr(leaf("a", filter.OperatorEqual, 1), leaf("a", filter.OperatorEqual, 2))
	assert.NoError(t, Validate(filter.NewAnd(shared, shared)))
}
