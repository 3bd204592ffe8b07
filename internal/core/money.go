// Package core provides the trip planning domain types and money handling.
//
// Amounts are kept in integer cents (USD). This file contains parsing,
// arithmetic helpers and display formatting.
package core

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Dollars builds a Money value from a whole dollar amount.
func Dollars(d int64) Money {
	return Money{Cents: d * 100}
}

// maxFloatCents bounds float conversions to amounts float64 holds exactly
// (about $90 trillion).
const maxFloatCents = 1 << 53

// FromFloat converts a dollar float to cents, rounding half away from zero.
// NaN, infinities and amounts beyond maxFloatCents yield zero.
func FromFloat(f float64) Money {
	m, err := ParseFloatAmount(f)
	if err != nil {
		return Money{}
	}
	return m
}

// ParseFloatAmount is FromFloat for user input: NaN, infinities and
// out-of-range amounts are rejected with ErrInvalidAmount.
func ParseFloatAmount(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, ErrInvalidAmount
	}
	c := math.Round(f * 100)
	if math.Abs(c) > maxFloatCents {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: int64(c)}, nil
}

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// Commas are treated as thousands separators and a leading "$" is ignored.
// Half-up rounding is applied on the third decimal place. Zero is accepted
// (free activities exist); negative values are rejected.
//
// Examples:
//
//	ParseDecimalToCents("12.34")    -> 1234, nil
//	ParseDecimalToCents("$1,250")   -> 125000, nil
//	ParseDecimalToCents("12.345")   -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344")   -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv >= maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// Validate rejects negative amounts.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

// Times multiplies the amount by a whole count, e.g. a per-day rate by days.
func (m Money) Times(n int) Money { return Money{Cents: m.Cents * int64(n)} }

// DivRound divides the amount by n rounding half away from zero. Division by
// a non-positive n divides by 1.
func (m Money) DivRound(n int) Money {
	if n <= 1 {
		return m
	}
	d := int64(n)
	q, r := m.Cents/d, m.Cents%d
	if r < 0 {
		r = -r
	}
	if r*2 >= d {
		if m.Cents < 0 {
			q--
		} else {
			q++
		}
	}
	return Money{Cents: q}
}

// Float returns the dollar value as a float64 for display and JSON output.
// Use cents for calculations.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) IsZero() bool { return m.Cents == 0 }

// String renders the amount as currency, e.g. "$1,234.50".
func (m Money) String() string {
	return FormatCurrency(m)
}

// FormatCurrency renders a numeric value as US dollars with thousands
// grouping. It accepts Money, integer and float kinds (interpreted as
// dollars) and numeric strings. Anything else renders as "$0.00".
func FormatCurrency(v any) string {
	return formatCents(toCents(v))
}

func toCents(v any) int64 {
	switch x := v.(type) {
	case nil:
		return 0
	case Money:
		return x.Cents
	case *Money:
		if x == nil {
			return 0
		}
		return x.Cents
	case string:
		s := strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(x), "$"), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return FromFloat(f).Cents
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if d := rv.Int(); d <= math.MaxInt64/100 && d >= math.MinInt64/100 {
			return d * 100
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if d := rv.Uint(); d <= math.MaxInt64/100 {
			return int64(d) * 100
		}
	case reflect.Float32, reflect.Float64:
		return FromFloat(rv.Float()).Cents
	}
	return 0
}

func formatCents(c int64) string {
	sign := ""
	u := uint64(c)
	if c < 0 {
		sign = "-"
		u = uint64(-(c + 1)) + 1 // MinInt64 has no positive int64
	}
	return fmt.Sprintf("%s$%s.%02d", sign, humanize.Comma(int64(u/100)), u%100)
}
