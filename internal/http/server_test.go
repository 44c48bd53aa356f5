package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/format"
	"financas/internal/log"
	"financas/internal/seed/memory"
	"financas/internal/services"
)

var testNow = time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, cfg Config, opts ...Option) (*Server, *services.Ledger) {
	t.Helper()
	ledger := services.NewLedger(memory.SampleTransactions(), core.DefaultCategories(),
		services.WithClock(func() time.Time { return testNow }))
	if cfg.RateLimitPerMinute == 0 {
		cfg.RateLimitPerMinute = 1000
	}
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	srv, err := NewServer(cfg, ledger, format.Default(), log.Discard(), opts...)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, ledger
}

func do(srv *Server, method, path string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

func expectTrigger(t *testing.T, rr *httptest.ResponseRecorder, events ...string) {
	t.Helper()
	h := rr.Header().Get("HX-Trigger")
	for _, e := range events {
		if !strings.Contains(h, `"`+e+`"`) {
			t.Errorf("HX-Trigger %q lacks %q", h, e)
		}
	}
}

func expectNotification(t *testing.T, rr *httptest.ResponseRecorder, message string) {
	t.Helper()
	var events map[string]struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(rr.Header().Get("HX-Trigger")), &events); err != nil {
		t.Fatalf("decode HX-Trigger: %v", err)
	}
	if got := events["show-notification"].Message; got != message {
		t.Errorf("notification = %q, want %q", got, message)
	}
}

func TestIndexRendersSummary(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rr := do(srv, http.MethodGet, "/", nil)
	expectStatus(t, rr, http.StatusOK)

	body := rr.Body.String()
	for _, want := range []string{
		"Controle Financeiro",
		"R$ 5.000,00",   // income, September 2025
		"R$ 395,50",     // expenses
		"R$ 4.604,50",   // balance
		"Alimentação",   // breakdown and category chips
		"5 de 6 transações",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers not applied")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("request id not echoed")
	}
}

func TestUnknownPathIs404(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	expectStatus(t, do(srv, http.MethodGet, "/nope", nil), http.StatusNotFound)
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t, Config{}, WithPinger(fakePinger{}))
	for _, path := range []string{"/healthz", "/readyz"} {
		expectStatus(t, do(srv, http.MethodGet, path, nil), http.StatusOK)
	}

	down, _ := newTestServer(t, Config{}, WithPinger(fakePinger{err: errors.New("db closed")}))
	expectStatus(t, do(down, http.MethodGet, "/readyz", nil), http.StatusServiceUnavailable)
}

func TestCreateTransactionFlow(t *testing.T) {
	srv, ledger := newTestServer(t, Config{})

	rr := do(srv, http.MethodPost, "/transactions/new", url.Values{})
	expectStatus(t, rr, http.StatusNoContent)
	expectTrigger(t, rr, EventLedgerChanged, EventModalChanged)

	rr = do(srv, http.MethodGet, "/ui/modal", nil)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), "Nova Transação") {
		t.Fatal("modal not rendered in create mode")
	}

	rr = do(srv, http.MethodPost, "/transactions/submit", url.Values{
		"dueDate":     {"2025-09-20"},
		"value":       {"80"},
		"description": {"Jantar"},
		"category":    {"Lazer"},
		"type":        {"expense"},
	})
	expectStatus(t, rr, http.StatusNoContent)
	expectTrigger(t, rr, EventLedgerChanged, EventModalChanged, "show-notification")
	expectNotification(t, rr, "Transação adicionada")

	txs := ledger.Transactions()
	if len(txs) != 7 {
		t.Fatalf("len = %d, want 7", len(txs))
	}
	added := txs[6]
	if added.ID != 7 || !added.Value.Equal(decimal.RequireFromString("-80")) {
		t.Fatalf("added = %+v", added)
	}
	if ledger.Modal().Open {
		t.Error("modal still open after a successful submit")
	}

	rr = do(srv, http.MethodGet, "/ui/transactions", nil)
	if body := rr.Body.String(); !strings.Contains(body, "Jantar") || !strings.Contains(body, "-R$ 80,00") {
		t.Errorf("transactions partial missing the new row: %s", body)
	}
}

func TestSubmitValidationFailureKeepsModalOpen(t *testing.T) {
	srv, ledger := newTestServer(t, Config{})
	do(srv, http.MethodPost, "/transactions/new", url.Values{})
	rev := ledger.Revision()

	rr := do(srv, http.MethodPost, "/transactions/submit", url.Values{
		"dueDate":     {"2025-09-20"},
		"value":       {"abc"},
		"description": {"Jantar"},
		"type":        {"expense"},
	})
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	if !strings.Contains(rr.Body.String(), "Valor inválido") {
		t.Errorf("422 body lacks the validation message: %s", rr.Body.String())
	}
	if strings.Contains(rr.Header().Get("HX-Trigger"), EventLedgerChanged) {
		t.Error("rejected submit announced a ledger change")
	}

	if len(ledger.Transactions()) != 6 {
		t.Error("rejected submit changed the collection")
	}
	m := ledger.Modal()
	if !m.Open || m.Draft.Value != "abc" || m.Draft.Description != "Jantar" {
		t.Errorf("draft not preserved: %+v", m)
	}
	if ledger.Revision() == rev {
		t.Error("replacing the draft should bump the revision")
	}
}

func TestSubmitWithClosedModal(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	expectStatus(t, do(srv, http.MethodPost, "/transactions/submit", url.Values{}), http.StatusConflict)
	expectStatus(t, do(srv, http.MethodPost, "/transactions/draft", url.Values{"value": {"1"}}), http.StatusConflict)
}

func TestEditRoundTrip(t *testing.T) {
	srv, ledger := newTestServer(t, Config{})
	before := ledger.Transactions()[2]

	rr := do(srv, http.MethodPost, "/transactions/edit", url.Values{"id": {"3"}})
	expectStatus(t, rr, http.StatusNoContent)

	rr = do(srv, http.MethodGet, "/ui/modal", nil)
	if !strings.Contains(rr.Body.String(), "Editar Transação") || !strings.Contains(rr.Body.String(), `value="80"`) {
		t.Fatalf("edit modal not prefilled: %s", rr.Body.String())
	}

	rr = do(srv, http.MethodPost, "/transactions/submit", url.Values{})
	expectStatus(t, rr, http.StatusNoContent)
	expectNotification(t, rr, "Transação atualizada")
	after := ledger.Transactions()[2]
	if after.ID != before.ID || !after.Value.Equal(before.Value) || !after.DueDate.Equal(before.DueDate.Time) ||
		after.Description != before.Description || after.Category != before.Category || after.Type != before.Type {
		t.Errorf("round trip changed the transaction: before %+v after %+v", before, after)
	}
}

func TestEditErrors(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	expectStatus(t, do(srv, http.MethodPost, "/transactions/edit", url.Values{"id": {"999"}}), http.StatusNotFound)
	expectStatus(t, do(srv, http.MethodPost, "/transactions/edit", url.Values{"id": {"x"}}), http.StatusBadRequest)
}

func TestDraftEndpoint(t *testing.T) {
	srv, ledger := newTestServer(t, Config{})
	do(srv, http.MethodPost, "/transactions/new", url.Values{})

	rr := do(srv, http.MethodPost, "/transactions/draft", url.Values{"value": {"12,5"}, "type": {"income"}})
	expectStatus(t, rr, http.StatusNoContent)
	if strings.Contains(rr.Header().Get("HX-Trigger"), EventModalChanged) {
		t.Error("draft update should not re-render the modal")
	}
	d := ledger.Modal().Draft
	if d.Value != "12,5" || d.Type != core.Income {
		t.Errorf("draft = %+v", d)
	}

	expectStatus(t, do(srv, http.MethodPost, "/transactions/close", url.Values{}), http.StatusNoContent)
	if ledger.Modal().Open {
		t.Error("close left the modal open")
	}
}

func TestTwoPhaseDelete(t *testing.T) {
	srv, ledger := newTestServer(t, Config{})

	expectStatus(t, do(srv, http.MethodPost, "/transactions/delete/request", url.Values{"id": {"1"}}), http.StatusNoContent)
	if len(ledger.Transactions()) != 6 {
		t.Fatal("request alone removed a transaction")
	}
	rr := do(srv, http.MethodGet, "/ui/confirm", nil)
	if body := rr.Body.String(); !strings.Contains(body, "Confirmar Exclusão") || !strings.Contains(body, "Supermercado") {
		t.Fatalf("confirm dialog not rendered: %s", body)
	}

	expectStatus(t, do(srv, http.MethodPost, "/transactions/delete/cancel", url.Values{}), http.StatusNoContent)
	if _, pending := ledger.PendingDelete(); pending || len(ledger.Transactions()) != 6 {
		t.Fatal("cancel did not restore the idle state")
	}

	do(srv, http.MethodPost, "/transactions/delete/request", url.Values{"id": {"1"}})
	rr = do(srv, http.MethodPost, "/transactions/delete/confirm", url.Values{})
	expectStatus(t, rr, http.StatusNoContent)
	expectTrigger(t, rr, EventLedgerChanged, "show-notification")
	if len(ledger.Transactions()) != 5 {
		t.Fatalf("len = %d after confirm, want 5", len(ledger.Transactions()))
	}

	rr = do(srv, http.MethodPost, "/transactions/delete/confirm", url.Values{})
	expectStatus(t, rr, http.StatusNoContent)
	if len(ledger.Transactions()) != 5 {
		t.Fatal("second confirm removed another transaction")
	}

	expectStatus(t, do(srv, http.MethodPost, "/transactions/delete/request", url.Values{"id": {"0"}}), http.StatusBadRequest)
}

func TestFilterEndpoint(t *testing.T) {
	srv, ledger := newTestServer(t, Config{})

	rr := do(srv, http.MethodPost, "/filter", url.Values{"period": {"all"}})
	expectStatus(t, rr, http.StatusNoContent)
	if ledger.Filter().Period != core.PeriodAll {
		t.Fatalf("filter = %+v", ledger.Filter())
	}
	if !strings.Contains(do(srv, http.MethodGet, "/ui/filters", nil).Body.String(), "6 de 6") {
		t.Error("filters partial does not reflect the all-time view")
	}

	rr = do(srv, http.MethodPost, "/filter", url.Values{"period": {"fortnight"}, "fortnight": {"2"}})
	expectStatus(t, rr, http.StatusNoContent)
	want := core.Filter{Period: core.PeriodFortnight, Year: "2025", Month: "09", Fortnight: "2"}
	if got := ledger.Filter(); got != want {
		t.Errorf("filter = %+v, want %+v", got, want)
	}

	expectStatus(t, do(srv, http.MethodPost, "/filter", url.Values{"month": {"13"}}), http.StatusBadRequest)
	expectStatus(t, do(srv, http.MethodPost, "/filter", url.Values{"period": {"week"}}), http.StatusBadRequest)
	if got := ledger.Filter(); got != want {
		t.Errorf("rejected filter changed state: %+v", got)
	}
}

func TestTabSwitch(t *testing.T) {
	srv, ledger := newTestServer(t, Config{})

	expectStatus(t, do(srv, http.MethodPost, "/ui/tab", url.Values{"tab": {"transactions"}}), http.StatusNoContent)
	if ledger.ActiveTab() != services.TabTransactions {
		t.Fatalf("tab = %q", ledger.ActiveTab())
	}
	expectStatus(t, do(srv, http.MethodPost, "/ui/tab", url.Values{"tab": {"reports"}}), http.StatusBadRequest)
}

func TestCategoryEndpoints(t *testing.T) {
	srv, ledger := newTestServer(t, Config{})

	expectStatus(t, do(srv, http.MethodPost, "/categories/form", url.Values{"show": {"true"}}), http.StatusNoContent)
	if _, shown := ledger.CategoryForm(); !shown {
		t.Fatal("add-category input not shown")
	}

	expectStatus(t, do(srv, http.MethodPost, "/categories", url.Values{"name": {"Viagem"}}), http.StatusNoContent)
	rr := do(srv, http.MethodPost, "/categories", url.Values{"name": {"Viagem"}})
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	expectTrigger(t, rr, "show-notification")

	cats := ledger.Categories()
	if len(cats) != 8 || cats[7] != "Viagem" {
		t.Fatalf("categories = %v", cats)
	}

	expectStatus(t, do(srv, http.MethodPost, "/categories", url.Values{"name": {"   "}}), http.StatusUnprocessableEntity)

	expectStatus(t, do(srv, http.MethodPost, "/categories/remove", url.Values{"name": {"Viagem"}}), http.StatusNoContent)
	if ledger.Categories().Contains("Viagem") {
		t.Error("category not removed")
	}
	expectStatus(t, do(srv, http.MethodPost, "/categories/remove", url.Values{}), http.StatusBadRequest)
	expectStatus(t, do(srv, http.MethodPost, "/categories/form", url.Values{"show": {"maybe"}}), http.StatusBadRequest)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rr := do(srv, http.MethodGet, "/transactions/submit", nil)
	expectStatus(t, rr, http.StatusMethodNotAllowed)
	if rr.Header().Get("Allow") != http.MethodPost {
		t.Errorf("Allow = %q", rr.Header().Get("Allow"))
	}
	expectStatus(t, do(srv, http.MethodPost, "/ui/dashboard", url.Values{}), http.StatusMethodNotAllowed)
}

func TestAPIState(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rr := do(srv, http.MethodGet, "/api/state", nil)
	expectStatus(t, rr, http.StatusOK)

	var state struct {
		Transactions []map[string]any `json:"transactions"`
		Categories   []string         `json:"categories"`
		ActiveTab    string           `json:"activeTab"`
		View         struct {
			Filter core.Filter `json:"filter"`
			Total  int         `json:"total"`
		} `json:"view"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(state.Transactions) != 6 || len(state.Categories) != 7 || state.View.Total != 6 {
		t.Errorf("state = %+v", state)
	}
	if state.ActiveTab != "dashboard" || state.View.Filter.Month != "09" {
		t.Errorf("state = %+v", state)
	}
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	do(srv, http.MethodGet, "/", nil)

	rr := do(srv, http.MethodGet, "/metrics", nil)
	expectStatus(t, rr, http.StatusOK)

	var m metricsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Transactions != 6 || m.Categories != 7 {
		t.Errorf("metrics = %+v", m)
	}
	if m.Requests.TotalRequests < 1 {
		t.Errorf("request counter = %d", m.Requests.TotalRequests)
	}
}

func TestViewCacheFollowsRevision(t *testing.T) {
	srv, ledger := newTestServer(t, Config{})

	first := srv.view()
	_ = srv.view()
	if stats := srv.views.Stats(); stats.Hits != 1 {
		t.Fatalf("hits = %d, want 1", stats.Hits)
	}
	if len(first.Transactions) != 5 {
		t.Fatalf("month view has %d transactions, want 5", len(first.Transactions))
	}

	if err := ledger.SetPeriod(context.Background(), core.PeriodAll); err != nil {
		t.Fatal(err)
	}
	if v := srv.view(); len(v.Transactions) != 6 {
		t.Fatalf("view after filter change has %d transactions, want 6", len(v.Transactions))
	}
}

func TestRateLimitOnlyAppliesToPosts(t *testing.T) {
	srv, _ := newTestServer(t, Config{RateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		expectStatus(t, do(srv, http.MethodPost, "/transactions/close", url.Values{}), http.StatusNoContent)
	}
	rr := do(srv, http.MethodPost, "/transactions/close", url.Values{})
	expectStatus(t, rr, http.StatusTooManyRequests)
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}
	expectStatus(t, do(srv, http.MethodGet, "/ui/dashboard", nil), http.StatusOK)
}

func TestSuspiciousRequestRejected(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	expectStatus(t, do(srv, http.MethodGet, "/.env", nil), http.StatusBadRequest)
	if srv.detector.SuspiciousCount() != 1 {
		t.Errorf("suspicious count = %d", srv.detector.SuspiciousCount())
	}
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rr := do(srv, http.MethodGet, "/static/app.css", nil)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Header().Get("Cache-Control"), "max-age=3600") {
		t.Errorf("Cache-Control = %q", rr.Header().Get("Cache-Control"))
	}
}

func TestInvalidTrustedProxy(t *testing.T) {
	ledger := services.NewLedger(nil, nil)
	if _, err := NewServer(Config{TrustedProxies: []string{"not-a-cidr"}}, ledger, nil, nil); err == nil {
		t.Fatal("expected an error for a malformed proxy CIDR")
	}
}
