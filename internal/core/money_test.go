package core

import (
	"errors"
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"$1,250", 125000, true},
		{"0.01", 1, true},
		{"0", 0, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1.٣", 0, false}, // Arabic-Indic digit three
		{"١٢", 0, false},
		{"１", 0, false}, // fullwidth one
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("zero should be valid, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestDivRound(t *testing.T) {
	cases := []struct {
		cents int64
		n     int
		want  int64
	}{
		{55500, 3, 18500},
		{100, 3, 33},
		{200, 3, 67},
		{5, 2, 3},
		{-5, 2, -3},
		{1000, 0, 1000},
		{1000, 1, 1000},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).DivRound(tc.n); got.Cents != tc.want {
			t.Errorf("%d/%d: got %d, want %d", tc.cents, tc.n, got.Cents, tc.want)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{Money{Cents: 55500}, "$555.00"},
		{Money{Cents: 123456789}, "$1,234,567.89"},
		{Money{Cents: -1200}, "-$12.00"},
		{Money{}, "$0.00"},
		{185, "$185.00"},
		{int64(1500), "$1,500.00"},
		{12.5, "$12.50"},
		{float32(0.25), "$0.25"},
		{"42.1", "$42.10"},
		{"$1,000", "$1,000.00"},
		{"not a number", "$0.00"},
		{nil, "$0.00"},
		{struct{}{}, "$0.00"},
		{[]int{1}, "$0.00"},
		{1e300, "$0.00"},
		{-1e300, "$0.00"},
		{"1e19", "$0.00"},
		{int64(math.MaxInt64), "$0.00"},
		{uint64(math.MaxUint64), "$0.00"},
		{Money{Cents: math.MinInt64}, "-$92,233,720,368,547,758.08"},
		{Money{Cents: math.MaxInt64}, "$92,233,720,368,547,758.07"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.in); got != tc.want {
			t.Errorf("FormatCurrency(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFloatAmount(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
		ok   bool
	}{
		{12.345, 1235, true},
		{-0.5, -50, true},
		{90_000_000_000_000, 9_000_000_000_000_000, true},
		{1e17, 0, false},
		{1e300, 0, false},
		{math.NaN(), 0, false},
		{math.Inf(-1), 0, false},
	}
	for _, tc := range cases {
		got, err := ParseFloatAmount(tc.in)
		if !tc.ok {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("ParseFloatAmount(%g) = %v, %v; want ErrInvalidAmount", tc.in, got, err)
			}
			if FromFloat(tc.in) != (Money{}) {
				t.Errorf("FromFloat(%g) = %v, want zero", tc.in, FromFloat(tc.in))
			}
			continue
		}
		if err != nil || got.Cents != tc.want {
			t.Errorf("ParseFloatAmount(%g) = %d, %v; want %d", tc.in, got.Cents, err, tc.want)
		}
	}
}
