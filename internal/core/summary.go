package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

var monthNames = [12]string{
	"styczeń",
	"luty",
	"marzec",
	"kwiecień",
	"maj",
	"czerwiec",
	"lipiec",
	"sierpień",
	"wrzesień",
	"październik",
	"listopad",
	"grudzień",
}

// UnknownMonth is returned by MonthName for a month outside 1-12.
const UnknownMonth = "nieznany miesiąc"

// MonthName returns the calendar name of a 1-indexed month.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return UnknownMonth
	}
	return monthNames[month-1]
}

// MonthGroup is a contiguous run of records sharing a year and month.
type MonthGroup struct {
	Year        int
	Month       int // 1-12
	Items       []Record
	Expenditure decimal.Decimal
	Income      decimal.Decimal
	Total       decimal.Decimal // Income - Expenditure
}

// MonthName returns the display name of the group's month.
func (g MonthGroup) MonthName() string {
	return MonthName(g.Month)
}

// GroupByMonth splits records into runs of adjacent entries with the same
// year and month, keeping input order both across and inside groups.
//
// Only adjacent records are merged. The input is expected to be sorted by
// date descending (as returned by the store); an unsorted input with a month
// interrupted by another one yields two groups for that month.
func GroupByMonth(records []Record) []MonthGroup {
	groups := make([]MonthGroup, 0)
	for _, r := range records {
		y, m := r.Date.Year(), r.Date.Month()
		n := len(groups)
		if n == 0 || groups[n-1].Year != y || groups[n-1].Month != m {
			groups = append(groups, MonthGroup{
				Year:        y,
				Month:       m,
				Expenditure: decimal.Zero,
				Income:      decimal.Zero,
			})
			n++
		}
		g := &groups[n-1]
		g.Items = append(g.Items, r)
		if r.Amount.IsPositive() {
			g.Expenditure = g.Expenditure.Add(r.Amount)
		} else {
			g.Income = g.Income.Sub(r.Amount)
		}
	}
	for i := range groups {
		groups[i].Total = groups[i].Income.Sub(groups[i].Expenditure)
	}
	return groups
}

// BalanceEntry is the net total of one currency.
type BalanceEntry struct {
	Currency Currency
	Amount   decimal.Decimal
}

// Balance maps a currency to its net total (income minus expenditure).
// A currency without records has no entry.
type Balance map[Currency]decimal.Decimal

// Sorted returns the entries ordered by currency code.
func (b Balance) Sorted() []BalanceEntry {
	out := make([]BalanceEntry, 0, len(b))
	for c, v := range b {
		out = append(out, BalanceEntry{Currency: c, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// BalanceOf computes the negated per-currency sum of the records, rounded to
// two places.
func BalanceOf(records []Record) Balance {
	b := make(Balance)
	for _, r := range records {
		b[r.Currency] = b[r.Currency].Sub(r.Amount)
	}
	for c, v := range b {
		b[c] = v.Round(AmountPlaces)
	}
	return b
}
