package filter

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	domainfilter "github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain/model"
)

var ErrUnsupportedFilter = errors.New("filter cannot be compiled to SQL")

// Jsonb is a query parameter sent as a jsonb document.
type Jsonb struct {
	Obj any
}

func (j Jsonb) Value() (driver.Value, error) {
	data, err := json.Marshal(j.Obj)
	if err != nil {
		return nil, errors.Wrap(err, "cannot encode jsonb parameter")
	}
	return string(data), nil
}

var sqlOps = map[domainfilter.Operator]string{
	domainfilter.OperatorLessThan:         "<",
	domainfilter.OperatorLessThanEqual:    "<=",
	domainfilter.OperatorGreaterThan:      ">",
	domainfilter.OperatorGreaterThanEqual: ">=",
}

// PgFilterCompiler compiles a filter tree into a PostgreSQL WHERE clause
// over documents stored as jsonb, with their keys in a separate column.
// Scalar equality, membership and array containment use @> so a GIN
// index on the document column applies. Arrays and objects are compared
// with jsonb = since @> would also accept supersets.
type PgFilterCompiler struct {
	targetValueExpr string
	keyExpr         string
	params          []any
}

func NewPgFilterCompiler(targetValueExpr, keyExpr string) *PgFilterCompiler {
	if targetValueExpr == "" {
		targetValueExpr = "data"
	}
	if keyExpr == "" {
		keyExpr = "key"
	}
	return &PgFilterCompiler{
		targetValueExpr: targetValueExpr,
		keyExpr:         keyExpr,
	}
}

func (c *PgFilterCompiler) Compile(f domainfilter.Filter) (string, []any, error) {
	c.params = nil
	result, err := f.Accept(c)
	if err != nil {
		return "", nil, err
	}
	return replaceParamMarkers(result.(string)), c.params, nil
}

// --- Visitor methods ---

func (c *PgFilterCompiler) VisitComposite(f *domainfilter.CompositeFilter) (any, error) {
	children := f.Filters()
	if len(children) == 0 {
		if f.IsConjunction() {
			return "TRUE", nil
		}
		return "FALSE", nil
	}
	parts := make([]string, len(children))
	for i, child := range children {
		part, err := child.Accept(c)
		if err != nil {
			return nil, err
		}
		parts[i] = part.(string)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	sep := " AND "
	if f.IsDisjunction() {
		sep = " OR "
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, sep)), nil
}

func (c *PgFilterCompiler) VisitField(f *domainfilter.FieldFilter) (any, error) {
	if f.Field().IsEmpty() {
		return nil, errors.Wrap(ErrUnsupportedFilter, "empty field path")
	}
	if f.Field().IsKeyField() {
		return c.compileKey(f)
	}
	path := f.Field().Segments()
	switch f.Operator() {
	case domainfilter.OperatorEqual:
		return c.equals(path, f.Value()), nil

	case domainfilter.OperatorNotEqual:
		return fmt.Sprintf("(%s AND NOT %s)", c.present(path), c.equals(path, f.Value())), nil

	case domainfilter.OperatorLessThan, domainfilter.OperatorLessThanEqual,
		domainfilter.OperatorGreaterThan, domainfilter.OperatorGreaterThanEqual:
		jsonType, err := jsonbType(f.Value())
		if err != nil {
			return nil, errors.WithMessagef(err, "field %s", f.Field())
		}
		expr := c.jsonPathExpr(path)
		c.params = append(c.params, encode(f.Value()))
		return fmt.Sprintf("(jsonb_typeof(%s) = '%s' AND %s %s ?)", expr, jsonType, expr, sqlOps[f.Operator()]), nil

	case domainfilter.OperatorIn:
		return c.anyOf(f, func(v any) string { return c.equals(path, v) })

	case domainfilter.OperatorNotIn:
		in, err := c.anyOf(f, func(v any) string { return c.equals(path, v) })
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf("(%s AND NOT %s)", c.present(path), in), nil

	case domainfilter.OperatorArrayContains:
		return c.contains(buildNestedDict(path, []any{f.Value()})), nil

	case domainfilter.OperatorArrayContainsAny:
		return c.anyOf(f, func(v any) string { return c.contains(buildNestedDict(path, []any{v})) })
	}
	return nil, errors.Wrapf(ErrUnsupportedFilter, "operator %q", f.Operator())
}

func (c *PgFilterCompiler) compileKey(f *domainfilter.FieldFilter) (any, error) {
	switch f.Operator() {
	case domainfilter.OperatorEqual:
		c.params = append(c.params, f.Value())
		return fmt.Sprintf("%s = ?", c.keyExpr), nil
	case domainfilter.OperatorNotEqual:
		c.params = append(c.params, f.Value())
		return fmt.Sprintf("%s <> ?", c.keyExpr), nil
	case domainfilter.OperatorLessThan, domainfilter.OperatorLessThanEqual,
		domainfilter.OperatorGreaterThan, domainfilter.OperatorGreaterThanEqual:
		c.params = append(c.params, f.Value())
		return fmt.Sprintf("%s %s ?", c.keyExpr, sqlOps[f.Operator()]), nil
	case domainfilter.OperatorIn, domainfilter.OperatorNotIn:
		values, ok := model.AsList(f.Value())
		if !ok || len(values) == 0 {
			return nil, errors.Wrapf(ErrUnsupportedFilter, "%s on %s needs a non-empty list", f.Operator(), f.Field())
		}
		markers := make([]string, len(values))
		for i, v := range values {
			markers[i] = "?"
			c.params = append(c.params, v)
		}
		op := "IN"
		if f.Operator() == domainfilter.OperatorNotIn {
			op = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", c.keyExpr, op, strings.Join(markers, ", ")), nil
	}
	return nil, errors.Wrapf(ErrUnsupportedFilter, "operator %q on %s", f.Operator(), f.Field())
}

// --- Helpers ---

func (c *PgFilterCompiler) anyOf(f *domainfilter.FieldFilter, term func(any) string) (string, error) {
	values, ok := model.AsList(f.Value())
	if !ok || len(values) == 0 {
		return "", errors.Wrapf(ErrUnsupportedFilter, "%s on %s needs a non-empty list", f.Operator(), f.Field())
	}
	orParts := make([]string, len(values))
	for i, value := range values {
		orParts[i] = term(value)
	}
	if len(orParts) == 1 {
		return orParts[0], nil
	}
	return fmt.Sprintf("(%s)", strings.Join(orParts, " OR ")), nil
}

// equals matches scalars by containment and arrays or objects exactly.
func (c *PgFilterCompiler) equals(path []string, value any) string {
	if !isComposite(value) {
		return c.contains(buildNestedDict(path, value))
	}
	c.params = append(c.params, encode(value))
	return fmt.Sprintf("%s = ?", c.jsonPathExpr(path))
}

func (c *PgFilterCompiler) contains(obj map[string]any) string {
	c.params = append(c.params, encode(obj))
	return fmt.Sprintf("%s @> ?", c.targetValueExpr)
}

// present is true when the field exists and is not JSON null.
func (c *PgFilterCompiler) present(path []string) string {
	expr := c.jsonPathExpr(path)
	return fmt.Sprintf("%s IS NOT NULL AND %s <> 'null'::jsonb", expr, expr)
}

func (c *PgFilterCompiler) jsonPathExpr(path []string) string {
	expr := c.targetValueExpr
	for _, key := range path {
		expr += fmt.Sprintf("->'%s'", strings.ReplaceAll(key, "'", "''"))
	}
	return expr
}

func jsonbType(value any) (string, error) {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "number", nil
	case string:
		return "string", nil
	case bool:
		return "boolean", nil
	}
	return "", errors.Wrapf(ErrUnsupportedFilter, "cannot order by %T", value)
}

func isComposite(value any) bool {
	if _, ok := model.AsList(value); ok {
		return true
	}
	_, ok := model.AsMap(value)
	return ok
}

func encode(obj any) Jsonb {
	return Jsonb{Obj: obj}
}

func buildNestedDict(fieldPath []string, value any) map[string]any {
	nested := map[string]any{}
	target := nested
	for _, key := range fieldPath[:len(fieldPath)-1] {
		target[key] = map[string]any{}
		target = target[key].(map[string]any)
	}
	target[fieldPath[len(fieldPath)-1]] = value
	return nested
}

// replaceParamMarkers numbers the ? placeholders, leaving quoted literals alone.
func replaceParamMarkers(sql string) string {
	var b strings.Builder
	idx := 1
	quoted := false
	for i := 0; i < len(sql); i++ {
		if sql[i] == '\'' {
			quoted = !quoted
		}
		if sql[i] == '?' && !quoted {
			b.WriteString(fmt.Sprintf("$%d", idx))
			idx++
		} else {
			b.WriteByte(sql[i])
		}
	}
	return b.String()
}
