package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainfilter "github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain/model"
)

func field(path string, op domainfilter.Operator, value any) *domainfilter.FieldFilter {
	return domainfilter.NewFieldFilter(model.ParseFieldPath(path), op, value)
}

func TestVisitField(t *testing.T) {
	t.Run("eq", func(t *testing.T) {
		sql, params, err := NewPgFilterCompiler("", "").Compile(field("status", domainfilter.OperatorEqual, "active"))
		require.NoError(t, err)
		assert.Equal(t, "data @> $1", sql)
		assert.Equal(t, map[string]any{"status": "active"}, params[0].(Jsonb).Obj)
	})

	t.Run("nested eq", func(t *testing.T) {
		sql, params, err := NewPgFilterCompiler("", "").Compile(field("address.city", domainfilter.OperatorEqual, "Oslo"))
		require.NoError(t, err)
		assert.Equal(t, "data @> $1", sql)
		assert.Equal(t, map[string]any{"address": map[string]any{"city": "Oslo"}}, params[0].(Jsonb).Obj)
	})

	t.Run("ne", func(t *testing.T) {
		sql, params, err := NewPgFilterCompiler("", "").Compile(field("status", domainfilter.OperatorNotEqual, "deleted"))
		require.NoError(t, err)
		assert.Equal(t, "(data->'status' IS NOT NULL AND data->'status' <> 'null'::jsonb AND NOT data @> $1)", sql)
		assert.Len(t, params, 1)
	})

	t.Run("eq array is exact", func(t *testing.T) {
		sql, params, err := NewPgFilterCompiler("", "").Compile(field("tags", domainfilter.OperatorEqual, []any{"a"}))
		require.NoError(t, err)
		assert.Equal(t, "data->'tags' = $1", sql)
		assert.Equal(t, Jsonb{Obj: []any{"a"}}, params[0])
	})

	t.Run("eq map is exact", func(t *testing.T) {
		value := map[string]any{"city": "Oslo"}
		sql, params, err := NewPgFilterCompiler("", "").Compile(field("meta.address", domainfilter.OperatorEqual, value))
		require.NoError(t, err)
		assert.Equal(t, "data->'meta'->'address' = $1", sql)
		assert.Equal(t, Jsonb{Obj: value}, params[0])
	})

	t.Run("ne typed array", func(t *testing.T) {
		sql, params, err := NewPgFilterCompiler("", "").Compile(field("tags", domainfilter.OperatorNotEqual, []string{"a", "b"}))
		require.NoError(t, err)
		assert.Equal(t, "(data->'tags' IS NOT NULL AND data->'tags' <> 'null'::jsonb AND NOT data->'tags' = $1)", sql)
		assert.Equal(t, Jsonb{Obj: []string{"a", "b"}}, params[0])
	})

	t.Run("ordering", func(t *testing.T) {
		sql, params, err := NewPgFilterCompiler("doc.body", "").Compile(field("age", domainfilter.OperatorGreaterThanEqual, 18))
		require.NoError(t, err)
		assert.Equal(t, "(jsonb_typeof(doc.body->'age') = 'number' AND doc.body->'age' >= $1)", sql)
		assert.Equal(t, 18, params[0].(Jsonb).Obj)
	})

	t.Run("ordering on unsupported type", func(t *testing.T) {
		_, _, err := NewPgFilterCompiler("", "").Compile(field("tags", domainfilter.OperatorLessThan, []any{1}))
		assert.ErrorIs(t, err, ErrUnsupportedFilter)
	})

	t.Run("in", func(t *testing.T) {
		sql, params, err := NewPgFilterCompiler("", "").Compile(field("status", domainfilter.OperatorIn, []any{"a", "b"}))
		require.NoError(t, err)
		assert.Equal(t, "(data @> $1 OR data @> $2)", sql)
		assert.Equal(t, map[string]any{"status": "b"}, params[1].(Jsonb).Obj)
	})

	t.Run("in typed list", func(t *testing.T) {
		sql, params, err := NewPgFilterCompiler("", "").Compile(field("status", domainfilter.OperatorIn, []string{"a", "b"}))
		require.NoError(t, err)
		assert.Equal(t, "(data @> $1 OR data @> $2)", sql)
		assert.Equal(t, map[string]any{"status": "a"}, params[0].(Jsonb).Obj)
	})

	t.Run("in with array candidates", func(t *testing.T) {
		sql, params, err := NewPgFilterCompiler("", "").Compile(field("pair", domainfilter.OperatorIn, []any{[]any{1, 2}, "x"}))
		require.NoError(t, err)
		assert.Equal(t, "(data->'pair' = $1 OR data @> $2)", sql)
		assert.Equal(t, Jsonb{Obj: []any{1, 2}}, params[0])
	})

	t.Run("not-in", func(t *testing.T) {
		sql, _, err := NewPgFilterCompiler("", "").Compile(field("status", domainfilter.OperatorNotIn, []any{"a"}))
		require.NoError(t, err)
		assert.Equal(t, "(data->'status' IS NOT NULL AND data->'status' <> 'null'::jsonb AND NOT data @> $1)", sql)
	})

	t.Run("in empty list", func(t *testing.T) {
		_, _, err := NewPgFilterCompiler("", "").Compile(field("status", domainfilter.OperatorIn, []any{}))
		assert.ErrorIs(t, err, ErrUnsupportedFilter)
	})

	t.Run("array-contains", func(t *testing.T) {
		sql, params, err := NewPgFilterCompiler("", "").Compile(field("tags", domainfilter.OperatorArrayContains, "go"))
		require.NoError(t, err)
		assert.Equal(t, "data @> $1", sql)
		assert.Equal(t, map[string]any{"tags": []any{"go"}}, params[0].(Jsonb).Obj)
	})

	t.Run("array-contains-any", func(t *testing.T) {
		sql, params, err := NewPgFilterCompiler("", "").Compile(field("tags", domainfilter.OperatorArrayContainsAny, []any{"go", "db"}))
		require.NoError(t, err)
		assert.Equal(t, "(data @> $1 OR data @> $2)", sql)
		assert.Equal(t, map[string]any{"tags": []any{"db"}}, params[1].(Jsonb).Obj)
	})

	t.Run("array-contains-any typed list", func(t *testing.T) {
		sql, params, err := NewPgFilterCompiler("", "").Compile(field("nums", domainfilter.OperatorArrayContainsAny, [2]int{1, 2}))
		require.NoError(t, err)
		assert.Equal(t, "(data @> $1 OR data @> $2)", sql)
		assert.Equal(t, map[string]any{"nums": []any{2}}, params[1].(Jsonb).Obj)
	})

	t.Run("key field", func(t *testing.T) {
		sql, params, err := NewPgFilterCompiler("", "doc_key").Compile(
			domainfilter.NewFieldFilter(model.KeyFieldPath(), domainfilter.OperatorIn, []any{"users/a", "users/b"}))
		require.NoError(t, err)
		assert.Equal(t, "doc_key IN ($1, $2)", sql)
		assert.Equal(t, []any{"users/a", "users/b"}, params)
	})

	t.Run("key field typed list", func(t *testing.T) {
		sql, params, err := NewPgFilterCompiler("", "").Compile(
			domainfilter.NewFieldFilter(model.KeyFieldPath(), domainfilter.OperatorNotIn, []string{"users/a"}))
		require.NoError(t, err)
		assert.Equal(t, "key NOT IN ($1)", sql)
		assert.Equal(t, []any{"users/a"}, params)
	})

	t.Run("quoted field", func(t *testing.T) {
		sql, _, err := NewPgFilterCompiler("", "").Compile(
			domainfilter.NewFieldFilter(model.NewFieldPath("it's?"), domainfilter.OperatorLessThan, 3))
		require.NoError(t, err)
		assert.Equal(t, "(jsonb_typeof(data->'it''s?') = 'number' AND data->'it''s?' < $1)", sql)
	})
}

func TestVisitComposite(t *testing.T) {
	t.Run("and of or", func(t *testing.T) {
		f := domainfilter.NewAnd(
			field("a", domainfilter.OperatorEqual, 1),
			domainfilter.NewOr(
				field("b", domainfilter.OperatorLessThan, 2),
				field("c", domainfilter.OperatorEqual, 3),
			),
		)
		sql, params, err := NewPgFilterCompiler("", "").Compile(f)
		require.NoError(t, err)
		assert.Equal(t, "(data @> $1 AND ((jsonb_typeof(data->'b') = 'number' AND data->'b' < $2) OR data @> $3))", sql)
		assert.Len(t, params, 3)
	})

	t.Run("single child unwrapped", func(t *testing.T) {
		sql, _, err := NewPgFilterCompiler("", "").Compile(domainfilter.NewOr(field("a", domainfilter.OperatorEqual, 1)))
		require.NoError(t, err)
		assert.Equal(t, "data @> $1", sql)
	})

	t.Run("empty", func(t *testing.T) {
		sql, params, err := NewPgFilterCompiler("", "").Compile(domainfilter.NewAnd())
		require.NoError(t, err)
		assert.Equal(t, "TRUE", sql)
		assert.Empty(t, params)

		sql, _, err = NewPgFilterCompiler("", "").Compile(domainfilter.NewOr())
		require.NoError(t, err)
		assert.Equal(t, "FALSE", sql)
	})

	t.Run("compiler is reusable", func(t *testing.T) {
		c := NewPgFilterCompiler("", "")
		_, _, err := c.Compile(field("a", domainfilter.OperatorEqual, 1))
		require.NoError(t, err)
		sql, params, err := c.Compile(field("b", domainfilter.OperatorEqual, 2))
		require.NoError(t, err)
		assert.Equal(t, "data @> $1", sql)
		assert.Len(t, params, 1)
	})
}

func TestJsonbValue(t *testing.T) {
	v, err := Jsonb{Obj: map[string]any{"a": []any{1}}}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1]}`, v)

	_, err = Jsonb{Obj: func() {}}.Value()
	assert.Error(t, err)
}
