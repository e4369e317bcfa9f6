package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half away from zero
		{"-1.005", "-1.01", true},
		{" 2.50 ", "2.5", true},
		{"-3000.00", "-3000", true},
		{"+12", "12", true},
		{".5", "0.5", true},
		{"0", "0", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{"--1", "", false},
		{"-", "", false},
		{".", "", false},
		{"1 000", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount   string
		currency Currency
		want     string
	}{
		{"12.5", PLN, "12.50 zł"},
		{"-3000", PLN, "+3000.00 zł"},
		{"21.37", EUR, "€21.37"},
		{"-21.37", EUR, "+€21.37"},
		{"0.1", USD, "$0.10"},
		{"-7", USD, "+$7.00"},
		{"99.99", GBP, "£99.99"},
		{"-99.99", GBP, "+£99.99"},
	}
	for _, tc := range cases {
		got, err := FormatAmount(decimal.RequireFromString(tc.amount), tc.currency)
		if err != nil || got != tc.want {
			t.Fatalf("FormatAmount(%s, %s) = %q, %v; want %q", tc.amount, tc.currency, got, err, tc.want)
		}
	}

	if _, err := FormatAmount(decimal.RequireFromString("1"), "CHF"); !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
}
