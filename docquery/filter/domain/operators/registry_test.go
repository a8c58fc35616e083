package operators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Money struct {
	amount   int
	currency string
}

func (m Money) Equal(other EqualOperand) bool {
	o, ok := other.(Money)
	if !ok {
		return false
	}
	return m.amount == o.amount && m.currency == o.currency
}

func (m Money) LessThan(other LessThanOperand) bool {
	o, ok := other.(Money)
	if !ok {
		return false
	}
	return m.amount < o.amount
}

func TestExecBinary(t *testing.T) {
	reg := NewDefaultRegistry()

	t.Run("int comparison", func(t *testing.T) {
		result, err := reg.ExecBinary(5, OperatorLt, 7)
		require.NoError(t, err)
		assert.Equal(t, true, result)
	})

	t.Run("int kinds are widened", func(t *testing.T) {
		result, err := reg.ExecBinary(int32(5), OperatorEq, uint8(5))
		require.NoError(t, err)
		assert.Equal(t, true, result)
	})

	t.Run("mixed int and float", func(t *testing.T) {
		result, err := reg.ExecBinary(2, OperatorLt, 2.5)
		require.NoError(t, err)
		assert.Equal(t, true, result)

		result, err = reg.ExecBinary(3.0, OperatorEq, 3)
		require.NoError(t, err)
		assert.Equal(t, true, result)
	})

	t.Run("strings", func(t *testing.T) {
		result, err := reg.ExecBinary("apple", OperatorGte, "banana")
		require.NoError(t, err)
		assert.Equal(t, false, result)
	})

	t.Run("named string kind", func(t *testing.T) {
		type status string
		result, err := reg.ExecBinary(status("active"), OperatorEq, "active")
		require.NoError(t, err)
		assert.Equal(t, true, result)
	})

	t.Run("bools order false first", func(t *testing.T) {
		result, err := reg.ExecBinary(false, OperatorLt, true)
		require.NoError(t, err)
		assert.Equal(t, true, result)
	})

	t.Run("timestamps", func(t *testing.T) {
		earlier := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		later := earlier.Add(time.Hour)
		result, err := reg.ExecBinary(earlier, OperatorLt, later)
		require.NoError(t, err)
		assert.Equal(t, true, result)
	})

	t.Run("durations compare as nanoseconds", func(t *testing.T) {
		result, err := reg.ExecBinary(time.Second, OperatorGt, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, true, result)
	})

	t.Run("nil propagates", func(t *testing.T) {
		result, err := reg.ExecBinary(nil, OperatorEq, 1)
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("unsupported pair", func(t *testing.T) {
		_, err := reg.ExecBinary("1", OperatorLt, 1)
		assert.EqualError(t, err, "operator \"<\" is not supported for string and int64")
	})
}

func TestInterfaceFallback(t *testing.T) {
	reg := NewDefaultRegistry()

	t.Run("equal", func(t *testing.T) {
		result, err := reg.ExecBinary(Money{100, "USD"}, OperatorEq, Money{100, "USD"})
		require.NoError(t, err)
		assert.Equal(t, true, result)
	})

	t.Run("not equal", func(t *testing.T) {
		result, err := reg.ExecBinary(Money{100, "USD"}, OperatorNe, Money{100, "EUR"})
		require.NoError(t, err)
		assert.Equal(t, true, result)
	})

	t.Run("less than", func(t *testing.T) {
		result, err := reg.ExecBinary(Money{50, "USD"}, OperatorLt, Money{100, "USD"})
		require.NoError(t, err)
		assert.Equal(t, true, result)
	})

	t.Run("right operand does not implement", func(t *testing.T) {
		_, err := reg.ExecBinary(Money{50, "USD"}, OperatorLt, 100)
		assert.EqualError(t, err, "right operand int64 does not implement LessThanOperand")
	})

	t.Run("operator not implemented", func(t *testing.T) {
		_, err := reg.ExecBinary(Money{50, "USD"}, OperatorGt, Money{100, "USD"})
		assert.Error(t, err)
	})
}

func TestExecPredicate(t *testing.T) {
	reg := NewDefaultRegistry()
	assert.True(t, reg.ExecPredicate(1, OperatorEq, 1.0))
	assert.False(t, reg.ExecPredicate(nil, OperatorEq, nil))
	assert.False(t, reg.ExecPredicate("a", OperatorEq, 1))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, int64(3), Normalize(uint16(3)))
	assert.Equal(t, float64(1.5), Normalize(float32(1.5)))
	assert.Equal(t, "x", Normalize("x"))
	assert.Equal(t, Money{1, "USD"}, Normalize(Money{1, "USD"}))
	assert.Nil(t, Normalize(nil))
}
