package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNoRule is returned by Chain.Resolve when no rule applies.
var ErrNoRule = errors.New("no rule applies")

// Rule is one step of a fallback chain. When decides whether the rule applies
// to the input; Value computes the candidate.
type Rule[T any] struct {
	Name  string
	When  func(T) bool
	Value func(T) (decimal.Decimal, error)
}

// Chain is an ordered list of rules. The first applicable rule decides the
// result; later rules are never consulted, even when Value fails.
type Chain[T any] []Rule[T]

// Resolve evaluates the chain against in and returns the value and the name
// of the rule that produced it.
func (c Chain[T]) Resolve(in T) (decimal.Decimal, string, error) {
	for _, r := range c {
		if r.When != nil && !r.When(in) {
			continue
		}
		v, err := r.Value(in)
		if err != nil {
			return decimal.Zero, r.Name, err
		}
		return v, r.Name, nil
	}
	return decimal.Zero, "", ErrNoRule
}
