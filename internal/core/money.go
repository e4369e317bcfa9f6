// Package core provides the ledger domain: records, amounts, month
// grouping and display formatting.
//
// This file contains parsing of user-entered amounts and the
// currency-aware display table.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of decimal places kept for every amount.
const AmountPlaces = 2

// ParseAmount converts a signed decimal string into an exact amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Extra fractional digits are rounded half away from
// zero to two places. Exponents, thousands separators and empty input are
// rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("-3000")  -> -3000
//	ParseAmount("1,005")  -> 1.01
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")

	digits := strings.TrimLeft(s, "+-")
	if len(s)-len(digits) > 1 || digits == "" || digits == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	dots := 0
	for _, r := range digits {
		switch {
		case r == '.':
			dots++
		case !unicode.IsDigit(r):
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if dots > 1 {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(AmountPlaces), nil
}

// FormatAmount renders an amount for display. Income (negative amounts) is
// shown as a positive value with a leading plus sign.
//
// The table is closed over the supported currencies: an unlisted currency
// returns ErrUnknownCurrency instead of falling back to a default symbol.
func FormatAmount(amount decimal.Decimal, c Currency) (string, error) {
	income := amount.IsNegative()
	v := amount.Abs().StringFixed(AmountPlaces)

	switch {
	case !income && c == PLN:
		return v + " zł", nil
	case income && c == PLN:
		return "+" + v + " zł", nil
	case !income && c == EUR:
		return "€" + v, nil
	case income && c == EUR:
		return "+€" + v, nil
	case !income && c == USD:
		return "$" + v, nil
	case income && c == USD:
		return "+$" + v, nil
	case !income && c == GBP:
		return "£" + v, nil
	case income && c == GBP:
		return "+£" + v, nil
	}
	return "", ErrUnknownCurrency
}
