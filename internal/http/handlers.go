package http

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"casa/internal/core"
	"casa/internal/log"
	appweb "casa/web"
)

// handleIndex renders the ledger page with an empty form dated today.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, http.StatusOK, RecordForm{
		Date: s.now().Format(core.DateLayout),
	})
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, form RecordForm) {
	ctx := r.Context()

	records, err := s.ledger.List(ctx)
	if err != nil {
		s.storageFailure(w, r, err, log.OpList)
		return
	}
	balance, err := s.ledger.Balance(ctx)
	if err != nil {
		s.storageFailure(w, r, err, log.OpBalance)
		return
	}
	notepad, err := s.ledger.GetNotepad(ctx)
	if err != nil {
		s.storageFailure(w, r, err, log.OpNotepad)
		return
	}

	s.render(w, r, status, "index", indexView{
		Form:       form,
		Currencies: currencyOptions(),
		Months:     core.GroupByMonth(records),
		Balances:   balance.Sorted(),
		Notepad:    trustedMarkup(notepad),
		Quote:      core.RandomQuote(),
	})
}

// handleAdd appends the submitted record and redirects back to the page. A
// rejected form is shown again with its values and a 422 status.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Nieprawidłowy format żądania.")
		return
	}

	form, rec, err := ParseRecordForm(r.PostForm)
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentLedger).WarnContext(r.Context(), "Record rejected",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldOperation, log.OpValidate)
		s.renderIndex(w, r, http.StatusUnprocessableEntity, form)
		return
	}

	if err := s.ledger.Append(r.Context(), rec); err != nil {
		if isValidationError(err) {
			form.Error = formErrorMessage(err)
			s.renderIndex(w, r, http.StatusUnprocessableEntity, form)
			return
		}
		s.storageFailure(w, r, err, log.OpAppend)
		return
	}

	s.events.LogRecordAdded(r.Context(), rec)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) storageFailure(w http.ResponseWriter, r *http.Request, err error, op string) {
	s.events.LogError(r.Context(), "Ledger operation failed", err, log.ComponentStorage, op,
		log.NewFields().WithErrorType(log.ErrorTypeDatabase))
	s.renderError(w, r, http.StatusInternalServerError, "Wystąpił błąd. Spróbuj ponownie później.")
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldErrorType, log.ErrorTypeRateLimit)
	s.renderError(w, r, http.StatusTooManyRequests, "Zbyt wiele żądań. Spróbuj za chwilę.")
}

type manifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

type manifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	StartURL        string         `json:"start_url"`
	Display         string         `json:"display"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Icons           []manifestIcon `json:"icons"`
}

var appManifest = manifest{
	Name:            "Casa",
	ShortName:       "Casa",
	StartURL:        "/",
	Display:         "standalone",
	BackgroundColor: "#313131",
	ThemeColor:      "#313131",
	Icons: []manifestIcon{
		{Src: "/icon.png", Sizes: "192x192", Type: "image/png"},
	},
}

func handleManifest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/manifest+json")
	_ = json.NewEncoder(w).Encode(appManifest)
}

func handleIcon(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(appweb.StaticFS, "static/icon.png")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady verifies the database answers before reporting ready
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, httpStatus := "ready", http.StatusOK
	checks := map[string]any{
		"templates": "ok",
		"rate_limiter": map[string]any{
			"active_clients": s.rateLimiter.ActiveClients(),
			"rejected":       s.rateLimiter.Rejected(),
		},
		"requests_total": s.tracer.GetMetrics().TotalRequests,
	}
	if err := s.ledger.Ping(ctx); err != nil {
		checks["database"] = "failed: " + err.Error()
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
