// Package http provides HTTP server and handler implementations.
//
// This file implements parsing and validation of the add-record form.

package http

import (
	"errors"
	"net/url"
	"strings"

	"casa/internal/core"
)

// RecordForm holds the raw submitted values so a rejected form can be shown
// again exactly as the user typed it.
type RecordForm struct {
	Name     string
	Value    string
	Date     string
	Currency string
	Error    string
}

// ParseRecordForm reads name, value, date and currency from form values and
// builds a validated record. On failure the returned RecordForm carries the
// submitted values and a user-facing message.
func ParseRecordForm(form url.Values) (RecordForm, core.Record, error) {
	f := RecordForm{
		Name:     sanitizeInput(form.Get("name")),
		Value:    sanitizeInput(form.Get("value")),
		Date:     sanitizeInput(form.Get("date")),
		Currency: sanitizeInput(form.Get("currency")),
	}

	rec, err := f.record()
	if err != nil {
		f.Error = formErrorMessage(err)
		return f, core.Record{}, err
	}
	return f, rec, nil
}

func (f RecordForm) record() (core.Record, error) {
	amount, err := core.ParseAmount(f.Value)
	if err != nil {
		return core.Record{}, err
	}
	date, err := core.ParseDate(f.Date)
	if err != nil {
		return core.Record{}, err
	}
	currency, err := core.ParseCurrency(f.Currency)
	if err != nil {
		return core.Record{}, err
	}

	rec := core.Record{
		Name:     f.Name,
		Amount:   amount,
		Date:     date,
		Currency: currency,
	}
	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}
	return rec, nil
}

// formErrorMessage maps validation errors onto the message shown above the form.
func formErrorMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyName):
		return "Podaj nazwę."
	case errors.Is(err, core.ErrNameTooLong):
		return "Nazwa jest za długa (maksymalnie 200 znaków)."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Nieprawidłowa kwota."
	case errors.Is(err, core.ErrInvalidDate):
		return "Nieprawidłowa data."
	case errors.Is(err, core.ErrUnknownCurrency):
		return "Wybierz walutę."
	default:
		return "Nieprawidłowe dane."
	}
}

// isValidationError reports whether err was caused by the submitted values.
func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrEmptyName,
		core.ErrNameTooLong,
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrUnknownCurrency,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// sanitizeInput removes control characters (except tab and newlines) and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
