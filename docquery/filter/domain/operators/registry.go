package operators

import (
	"fmt"
	"math"
	"reflect"
)

type BinaryOp func(left, right any) (any, error)

type binaryKey struct {
	left  reflect.Type
	op    Operator
	right reflect.Type
}

// OperatorRegistry is populated once and then only read, so a single
// instance can serve concurrent evaluations.
type OperatorRegistry struct {
	binary map[binaryKey]BinaryOp
}

func NewOperatorRegistry() *OperatorRegistry {
	return &OperatorRegistry{
		binary: make(map[binaryKey]BinaryOp),
	}
}

func RegisterBinary[L, R any](reg *OperatorRegistry, op Operator, fn func(L, R) (any, error)) {
	var zeroL L
	var zeroR R
	key := binaryKey{
		left:  reflect.TypeOf(zeroL),
		op:    op,
		right: reflect.TypeOf(zeroR),
	}
	reg.binary[key] = func(left, right any) (any, error) {
		return fn(left.(L), right.(R))
	}
}

// ExecBinary executes a binary operator with SQL NULL semantics: a nil
// operand yields a nil result. Integer kinds are widened to int64 and
// float32 to float64; a mixed int64/float64 pair is compared as float64.
func (r *OperatorRegistry) ExecBinary(left any, op Operator, right any) (any, error) {
	if left == nil || right == nil {
		return nil, nil
	}

	left, right = Normalize(left), Normalize(right)
	left, right = widenMixed(left, right)

	fn, err := r.lookupBinary(left, op, right)
	if err != nil {
		return nil, err
	}
	return fn(left, right)
}

// ExecPredicate runs ExecBinary and reports a definite true only.
// NULL and unsupported operand pairs are both false.
func (r *OperatorRegistry) ExecPredicate(left any, op Operator, right any) bool {
	result, err := r.ExecBinary(left, op, right)
	if err != nil || result == nil {
		return false
	}
	b, ok := result.(bool)
	return ok && b
}

func (r *OperatorRegistry) lookupBinary(left any, op Operator, right any) (BinaryOp, error) {
	key := binaryKey{
		left:  reflect.TypeOf(left),
		op:    op,
		right: reflect.TypeOf(right),
	}
	fn, ok := r.binary[key]
	if ok {
		return fn, nil
	}

	if fallback := interfaceFallback(left, op); fallback != nil {
		return fallback, nil
	}

	return nil, fmt.Errorf("operator \"%s\" is not supported for %T and %T", op, left, right)
}

// Normalize maps the builtin numeric and string kinds, including named
// types over them, onto int64, float64 and string. Value objects that
// implement an operand interface are returned untouched.
func Normalize(v any) any {
	if v == nil || implementsOperand(v) {
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return float64(u)
		}
		return int64(u)
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return v
}

func widenMixed(left, right any) (any, any) {
	switch l := left.(type) {
	case int64:
		if r, ok := right.(float64); ok {
			return float64(l), r
		}
	case float64:
		if r, ok := right.(int64); ok {
			return l, float64(r)
		}
	}
	return left, right
}

func implementsOperand(v any) bool {
	switch v.(type) {
	case EqualOperand, GreaterThanOperand, GreaterThanEqualOperand, LessThanOperand, LessThanEqualOperand:
		return true
	}
	return false
}

func interfaceFallback(left any, op Operator) BinaryOp {
	switch op {
	case OperatorEq:
		return operandFallback(left, func(l, r EqualOperand) bool { return l.Equal(r) })
	case OperatorNe:
		return operandFallback(left, func(l, r EqualOperand) bool { return !l.Equal(r) })
	case OperatorGt:
		return operandFallback(left, func(l, r GreaterThanOperand) bool { return l.GreaterThan(r) })
	case OperatorGte:
		return operandFallback(left, func(l, r GreaterThanEqualOperand) bool { return l.GreaterThanEqual(r) })
	case OperatorLt:
		return operandFallback(left, func(l, r LessThanOperand) bool { return l.LessThan(r) })
	case OperatorLte:
		return operandFallback(left, func(l, r LessThanEqualOperand) bool { return l.LessThanEqual(r) })
	}
	return nil
}

func operandFallback[I any](left any, cmp func(l, r I) bool) BinaryOp {
	if _, ok := left.(I); !ok {
		return nil
	}
	return func(left, right any) (any, error) {
		l, ok := left.(I)
		if !ok {
			return nil, fmt.Errorf("left operand %T does not implement %s", left, operandName[I]())
		}
		r, ok := right.(I)
		if !ok {
			return nil, fmt.Errorf("right operand %T does not implement %s", right, operandName[I]())
		}
		return cmp(l, r), nil
	}
}

func operandName[I any]() string {
	return reflect.TypeOf((*I)(nil)).Elem().Name()
}
