// Package pricing resolves display prices and fees for raw exchange trades.
package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Zero is the price reported when nothing resolves.
const Zero = "0"

// FormatCurrency renders v as a US dollar amount with tiered precision.
// Values at or below one whose shortest rendering starts with ".000" keep
// five to six truncated fraction digits; ".00" keeps four digits rounded away
// from zero; everything else keeps two truncated digits.
func FormatCurrency(v decimal.Decimal) string {
	f := v.InexactFloat64()
	repr := shortest(f)

	var out decimal.Decimal
	minDigits := 2
	switch {
	case strings.Contains(repr, ".000") && f <= 1:
		out = parseShortest(f).Truncate(6)
		minDigits = 5
	case strings.Contains(repr, ".00") && f <= 1:
		out = parseShortest(f).RoundUp(4)
		minDigits = 4
	default:
		out = parseShortest(f).Truncate(2)
	}
	return dollars(out, minDigits)
}

// FormatFloat is FormatCurrency for float inputs.
func FormatFloat(f float64) string {
	return FormatCurrency(decimal.NewFromFloat(f))
}

// shortest renders f the way a JavaScript number prints: the shortest
// round-trip digits, switching to exponent form below 1e-6 and from 1e21.
func shortest(f float64) string {
	a := math.Abs(f)
	if a != 0 && (a < 1e-6 || a >= 1e21) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseShortest(f float64) decimal.Decimal {
	d, err := decimal.NewFromString(strconv.FormatFloat(f, 'f', -1, 64))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// dollars formats d with thousands separators and at least minDigits
// fraction digits.
func dollars(d decimal.Decimal, minDigits int) string {
	neg := d.IsNegative()
	s := d.Abs().String()

	intPart, frac, _ := strings.Cut(s, ".")
	for len(frac) < minDigits {
		frac += "0"
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
