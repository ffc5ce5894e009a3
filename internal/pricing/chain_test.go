package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constRule(name string, when bool, v int64, err error) Rule[int] {
	return Rule[int]{
		Name: name,
		When: func(int) bool { return when },
		Value: func(int) (decimal.Decimal, error) {
			return decimal.NewFromInt(v), err
		},
	}
}

func TestChainFirstApplicableWins(t *testing.T) {
	c := Chain[int]{
		constRule("skipped", false, 1, nil),
		constRule("first", true, 2, nil),
		constRule("second", true, 3, nil),
	}
	v, name, err := c.Resolve(0)
	require.NoError(t, err)
	assert.Equal(t, "first", name)
	assert.True(t, v.Equal(decimal.NewFromInt(2)))
}

func TestChainStopsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	c := Chain[int]{
		constRule("broken", true, 0, boom),
		constRule("never", true, 9, nil),
	}
	_, name, err := c.Resolve(0)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "broken", name)
}

func TestChainNoRule(t *testing.T) {
	_, _, err := Chain[int]{constRule("off", false, 1, nil)}.Resolve(0)
	assert.ErrorIs(t, err, ErrNoRule)
}
