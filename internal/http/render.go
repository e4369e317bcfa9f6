package http

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/shopspring/decimal"

	"casa/internal/core"
	"casa/internal/log"
	appweb "casa/web"
)

// indexView is the data behind the main page.
type indexView struct {
	Form       RecordForm
	Currencies []string
	Months     []core.MonthGroup
	Balances   []core.BalanceEntry
	Notepad    template.HTML
	Quote      string
}

type errorView struct {
	Message string
	Quote   string
}

var templateFuncs = template.FuncMap{
	// amount fails for a currency outside the display table, which aborts
	// rendering. The result is escaped here so the income sign stays a
	// literal "+" in the markup.
	"amount": func(rec core.Record) (template.HTML, error) {
		s, err := core.FormatAmount(rec.Amount, rec.Currency)
		if err != nil {
			return "", fmt.Errorf("format %q: %w", rec.Name, err)
		}
		return template.HTML(template.HTMLEscapeString(s)), nil
	},
	"fixed": func(d decimal.Decimal) string {
		return d.StringFixed(core.AmountPlaces)
	},
}

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("casa").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

// trustedMarkup marks the notepad text as safe HTML. The notepad is written
// only by the single owner through the CLI and is rendered unescaped on
// purpose; this is the only place the page bypasses escaping.
func trustedMarkup(notepad string) template.HTML {
	return template.HTML(notepad)
}

func currencyOptions() []string {
	out := make([]string, 0, len(core.Currencies()))
	for _, c := range core.Currencies() {
		out = append(out, c.String())
	}
	return out
}

// render executes name into a buffer first so a failing template never sends
// a half-written page with a success status.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.events.LogError(r.Context(), "Template execution failed", err, log.ComponentTemplate, log.OpRender,
			log.NewFields().WithErrorType(log.ErrorTypeRender))
		if name != "error" {
			s.renderError(w, r, http.StatusInternalServerError, "Nie udało się wyświetlić strony.")
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, "error", errorView{Message: message, Quote: core.RandomQuote()})
}
