package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"casa/internal/core"
	"casa/internal/log"
	"casa/internal/storage"
)

type fakeLedger struct {
	records   []core.Record
	notepad   string
	listErr   error
	appendErr error
	pingErr   error
}

func (f *fakeLedger) Append(ctx context.Context, rec core.Record) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.records = append([]core.Record{rec}, f.records...)
	return nil
}

func (f *fakeLedger) List(ctx context.Context) ([]core.Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.Record(nil), f.records...), nil
}

func (f *fakeLedger) Balance(ctx context.Context) (core.Balance, error) {
	return core.BalanceOf(f.records), nil
}

func (f *fakeLedger) GetNotepad(ctx context.Context) (string, error) { return f.notepad, nil }
func (f *fakeLedger) Ping(ctx context.Context) error                 { return f.pingErr }

var fixedNow = time.Date(2024, 3, 7, 18, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, ledger Ledger, rateLimit int) *Server {
	t.Helper()
	srv, err := NewServer(":0", ledger, Options{
		Logger:             log.New(log.Config{Output: io.Discard}),
		RateLimitPerMinute: rateLimit,
		Now:                func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { srv.rateLimiter.Stop() })
	return srv
}

func do(srv *Server, method, path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func rec(name, amount, date string, c core.Currency) core.Record {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Record{Name: name, Amount: decimal.RequireFromString(amount), Date: d, Currency: c}
}

func TestIndexEmptyLedger(t *testing.T) {
	srv := newTestServer(t, &fakeLedger{}, 60)

	rr := do(srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<h1>Casa</h1>") {
		t.Fatalf("index body missing heading")
	}
	if !strings.Contains(body, `value="2024-03-07"`) {
		t.Errorf("form must default to today's date")
	}
	if strings.Contains(body, "<details open>") {
		t.Errorf("no month groups expected for an empty ledger")
	}
	if !strings.Contains(body, "Podsumowanie") {
		t.Errorf("summary section missing")
	}

	found := false
	for _, q := range core.Quotes() {
		if strings.Contains(body, q) {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("footer quote missing")
	}
	if rr.Header().Get("Content-Security-Policy") == "" || rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("expected security and trace headers, got %v", rr.Header())
	}
}

func TestIndexRendersGroupsBalancesAndNotepad(t *testing.T) {
	ledger := &fakeLedger{
		records: []core.Record{
			rec("Coffee", "4.50", "2024-03-06", core.EUR),
			rec("Salary", "-3000.00", "2024-03-05", core.PLN),
			rec("Rent", "1200.00", "2024-03-01", core.PLN),
			rec("Book", "10", "2024-02-20", core.GBP),
		},
		notepad: "<b>remember the rent</b>",
	}
	srv := newTestServer(t, ledger, 60)

	rr := do(srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()

	for _, want := range []string{
		"marzec 2024",
		"luty 2024",
		"Coffee (€4.50)",
		"Salary (+3000.00 zł)",
		"Rent (1200.00 zł)",
		"Book (£10.00)",
		"EUR: -4.50",
		"GBP: -10.00",
		"PLN: 1800.00",
		"<b>remember the rent</b>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Count(body, "<details open>") != 1 {
		t.Errorf("exactly the newest month must be open")
	}
	if strings.Index(body, "marzec 2024") > strings.Index(body, "luty 2024") {
		t.Errorf("months must be newest first")
	}
	if strings.Index(body, "EUR:") > strings.Index(body, "GBP:") || strings.Index(body, "GBP:") > strings.Index(body, "PLN:") {
		t.Errorf("balances must be sorted by currency code")
	}
}

func TestIndexUnknownCurrencyFailsLoudly(t *testing.T) {
	srv := newTestServer(t, &fakeLedger{records: []core.Record{rec("x", "1", "2024-03-01", core.Currency("CHF"))}}, 60)

	rr := do(srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "x (") {
		t.Errorf("half-rendered page leaked: %s", rr.Body.String())
	}
}

func TestIndexStorageFailure(t *testing.T) {
	srv := newTestServer(t, &fakeLedger{listErr: errors.New("database is locked")}, 60)

	rr := do(srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "database is locked") {
		t.Errorf("internal error details must not reach the page")
	}
}

func TestAddRecord(t *testing.T) {
	ledger := &fakeLedger{}
	srv := newTestServer(t, ledger, 60)

	rr := do(srv, http.MethodPost, "/add", url.Values{
		"name": {"Kremówki papieskie"}, "value": {"21.37"}, "date": {"2024-04-02"}, "currency": {"PLN"},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
	if len(ledger.records) != 1 || ledger.records[0].Amount.String() != "21.37" {
		t.Fatalf("record not stored: %+v", ledger.records)
	}
}

func TestAddValidation(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		message string
	}{
		{
			name:    "invalid amount",
			form:    url.Values{"name": {"<b>x</b>"}, "value": {"abc"}, "date": {"2024-03-05"}, "currency": {"PLN"}},
			message: "Nieprawidłowa kwota.",
		},
		{
			name:    "missing name",
			form:    url.Values{"name": {""}, "value": {"1.23"}, "date": {"2024-03-05"}, "currency": {"PLN"}},
			message: "Podaj nazwę.",
		},
		{
			name:    "missing currency",
			form:    url.Values{"name": {"x"}, "value": {"1.23"}, "date": {"2024-03-05"}},
			message: "Wybierz walutę.",
		},
		{
			name:    "invalid date",
			form:    url.Values{"name": {"x"}, "value": {"1.23"}, "date": {"05/03/2024"}, "currency": {"EUR"}},
			message: "Nieprawidłowa data.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &fakeLedger{}
			srv := newTestServer(t, ledger, 60)

			rr := do(srv, http.MethodPost, "/add", tt.form)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rr.Code)
			}
			body := rr.Body.String()
			if !strings.Contains(body, tt.message) {
				t.Errorf("expected message %q in body", tt.message)
			}
			if len(ledger.records) != 0 {
				t.Errorf("rejected record was stored")
			}
		})
	}
}

func TestAddKeepsSubmittedValues(t *testing.T) {
	srv := newTestServer(t, &fakeLedger{}, 60)

	rr := do(srv, http.MethodPost, "/add", url.Values{
		"name": {"<b>x</b>"}, "value": {"abc"}, "date": {"2024-03-05"}, "currency": {"GBP"},
	})
	body := rr.Body.String()
	if !strings.Contains(body, "&lt;b&gt;x&lt;/b&gt;") || strings.Contains(body, "<b>x</b>") {
		t.Errorf("submitted name must be kept and escaped")
	}
	if !strings.Contains(body, `value="abc"`) || !strings.Contains(body, `value="2024-03-05"`) {
		t.Errorf("submitted value and date must be kept")
	}
	if !strings.Contains(body, `<option value="GBP" selected>`) {
		t.Errorf("submitted currency must stay selected")
	}
}

func TestAddStorageFailure(t *testing.T) {
	srv := newTestServer(t, &fakeLedger{appendErr: errors.New("disk I/O error")}, 60)

	rr := do(srv, http.MethodPost, "/add", url.Values{
		"name": {"x"}, "value": {"1"}, "date": {"2024-03-05"}, "currency": {"PLN"},
	})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestAddMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeLedger{}, 60)

	rr := do(srv, http.MethodGet, "/add", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestAddRateLimited(t *testing.T) {
	srv := newTestServer(t, &fakeLedger{}, 1)
	form := url.Values{"name": {"x"}, "value": {"1"}, "date": {"2024-03-05"}, "currency": {"PLN"}}

	if rr := do(srv, http.MethodPost, "/add", form); rr.Code != http.StatusSeeOther {
		t.Fatalf("first request: %d", rr.Code)
	}
	rr := do(srv, http.MethodPost, "/add", form)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Errorf("missing Retry-After")
	}
	// Reading the page is not limited.
	if rr := do(srv, http.MethodGet, "/", nil); rr.Code != http.StatusOK {
		t.Fatalf("index must not be limited: %d", rr.Code)
	}
}

func TestManifestAndIcon(t *testing.T) {
	srv := newTestServer(t, &fakeLedger{}, 60)

	rr := do(srv, http.MethodGet, "/manifest.json", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("manifest status=%d", rr.Code)
	}
	var m manifest
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("manifest json: %v", err)
	}
	if m.Name != "Casa" || m.Display != "standalone" || m.ThemeColor != "#313131" || m.BackgroundColor != "#313131" {
		t.Errorf("unexpected manifest %+v", m)
	}
	if len(m.Icons) != 1 || m.Icons[0].Src != "/icon.png" || m.Icons[0].Sizes != "192x192" {
		t.Errorf("unexpected icons %+v", m.Icons)
	}

	rr = do(srv, http.MethodGet, "/icon.png", nil)
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("icon status=%d type=%q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Errorf("icon is not a PNG")
	}
}

func TestHealthAndReady(t *testing.T) {
	ledger := &fakeLedger{}
	srv := newTestServer(t, ledger, 60)

	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(srv, http.MethodGet, path, nil); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	ledger.pingErr = errors.New("closed")
	rr := do(srv, http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the database is down, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "not_ready") {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}

func TestEndToEndWithSQLite(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "casa.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()
	srv := newTestServer(t, repo, 60)

	for _, form := range []url.Values{
		{"name": {"Rent"}, "value": {"1200.00"}, "date": {"2024-03-01"}, "currency": {"PLN"}},
		{"name": {"Salary"}, "value": {"-3000.00"}, "date": {"2024-03-05"}, "currency": {"PLN"}},
	} {
		if rr := do(srv, http.MethodPost, "/add", form); rr.Code != http.StatusSeeOther {
			t.Fatalf("add %v: %d", form, rr.Code)
		}
	}

	rr := do(srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"marzec 2024",
		"Wydatki: 1200.00, przychody: 3000.00, razem: 1800.00",
		"PLN: 1800.00",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Index(body, "Salary") > strings.Index(body, "Rent") {
		t.Errorf("March 5 must be listed before March 1")
	}
}
