package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format of a ledger date.
const DateLayout = "2006-01-02"

// Supported currencies.
const (
	PLN Currency = "PLN"
	EUR Currency = "EUR"
	USD Currency = "USD"
	GBP Currency = "GBP"
)

// DefaultCurrency is assumed for records written before currencies existed.
const DefaultCurrency = PLN

type (
	// Currency is an ISO 4217 code from the supported set.
	Currency string

	// Date is a calendar day without time of day.
	Date struct {
		time.Time
	}

	// Record is a single ledger entry. A positive Amount is an expense,
	// a negative one is income.
	Record struct {
		Name     string
		Amount   decimal.Decimal
		Date     Date
		Currency Currency
	}
)

var (
	ErrEmptyName       = errors.New("empty name")
	ErrNameTooLong     = errors.New("name too long (max 200 characters)")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrUnknownCurrency = errors.New("unknown currency")
)

// Currencies lists every supported currency in display order.
func Currencies() []Currency {
	return []Currency{PLN, EUR, USD, GBP}
}

// ParseCurrency maps a form or storage value onto the closed currency set.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

// Validate returns ErrUnknownCurrency for a code outside the supported set.
func (c Currency) Validate() error {
	switch c {
	case PLN, EUR, USD, GBP:
		return nil
	default:
		return ErrUnknownCurrency
	}
}

func (c Currency) String() string {
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. Out of range days such as
// 2024-02-30 are rejected rather than normalised.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Validate rejects the zero date.
func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Month returns the month as 1-12
func (d Date) Month() int {
	return int(d.Time.Month())
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Income reports whether the record brings money in.
func (r Record) Income() bool {
	return r.Amount.IsNegative()
}

// Validate checks the name, date and currency of the record.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(r.Name) > 200 {
		return ErrNameTooLong
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	return r.Currency.Validate()
}
