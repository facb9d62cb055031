package http

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finalyze/internal/amqp"
	"finalyze/internal/core"
	"finalyze/internal/email"
	"finalyze/internal/log"
	"finalyze/internal/services"
	"finalyze/internal/sheets/memory"
)

type fakeStore struct{ err error }

func (f fakeStore) Ping(context.Context) error { return f.err }

type fakePublisher struct {
	msgs []*amqp.RenderRequestMessage
	err  error
}

func (p *fakePublisher) PublishRenderRequest(_ context.Context, msg *amqp.RenderRequestMessage) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

type failingSource struct{}

func (failingSource) ReadMonthOverview(context.Context, int, int) (core.MonthOverview, error) {
	return core.MonthOverview{}, errors.New("sheets quota exceeded")
}

func quietLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = io.Discard
	return log.New(cfg)
}

func defaultOptions() Options {
	return Options{
		Logger:  quietLogger(),
		Reports: services.NewReportService(memory.New(memory.PreviewOverview()), 80, nil),
		Outbox:  services.NewOutboxService(&fakePublisher{}, nil),
		Store:   fakeStore{},
	}
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	srv := NewServer(":0", opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, defaultOptions())

	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK || decodeJSON(t, rr)["status"] != "ok" {
		t.Fatalf("healthz = %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz = %d %s", rr.Code, rr.Body.String())
	}
	checks := decodeJSON(t, rr)["checks"].(map[string]any)
	if checks["outbox"] != "ok" || checks["publisher"] != "ok" || checks["templates"] != "ok" {
		t.Errorf("checks = %v", checks)
	}
}

func TestReadyFailsWhenOutboxUnreachable(t *testing.T) {
	opts := defaultOptions()
	opts.Store = fakeStore{err: errors.New("database is locked")}
	opts.Outbox = nil
	srv := newTestServer(t, opts)

	rr := do(t, srv, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz = %d", rr.Code)
	}
	body := decodeJSON(t, rr)
	checks := body["checks"].(map[string]any)
	if body["status"] != "not_ready" || !strings.Contains(checks["outbox"].(string), "database is locked") || checks["publisher"] != "disabled" {
		t.Errorf("body = %v", body)
	}
}

func TestPreviewIndex(t *testing.T) {
	srv := newTestServer(t, defaultOptions())
	rr := do(t, srv, http.MethodGet, "/preview", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{`href="/preview/monthly-report"`, `href="/preview/budget-alert?format=text"`, "Your Monthly Financial Report"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if got := rr.Header().Get("Cache-Control"); got != "public, max-age=300" {
		t.Errorf("Cache-Control = %q", got)
	}

	rr = do(t, srv, http.MethodGet, "/", "")
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/preview" {
		t.Errorf("root = %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestPreview(t *testing.T) {
	srv := newTestServer(t, defaultOptions())

	rr := do(t, srv, http.MethodGet, "/preview/budget-alert", "")
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("status = %d, content type %q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), "₹20,000.00") || rr.Header().Get("X-Email-Subject") != "Budget Alert" {
		t.Errorf("unexpected budget alert preview")
	}
	if rr.Header().Get("X-Email-Fallback") != "true" {
		t.Errorf("preview must set X-Email-Fallback, got %q", rr.Header().Get("X-Email-Fallback"))
	}

	rr = do(t, srv, http.MethodGet, "/preview/budget-alert?format=text", "")
	want := "Budget Alert\nHello Kushal,\nYou’ve used 98.5% of your monthly budget.\n\nBudget Amount: ₹20,000.00\nSpent So Far: ₹19,700.00\nRemaining: ₹300.00\n"
	if rr.Body.String() != want {
		t.Errorf("text preview = %q, want %q", rr.Body.String(), want)
	}

	unknown := do(t, srv, http.MethodGet, "/preview/weekly-digest", "")
	monthly := do(t, srv, http.MethodGet, "/preview/monthly-report", "")
	if unknown.Body.String() != monthly.Body.String() {
		t.Error("unknown preview type should render the monthly-report preview")
	}

	if rr := do(t, srv, http.MethodGet, "/preview/monthly-report?format=pdf", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad format = %d", rr.Code)
	}
}

func TestRender(t *testing.T) {
	srv := newTestServer(t, defaultOptions())
	body := `{"userName":"Ravi","type":"budget-alert","data":{"percentageUsed":112.345,"budgetAmount":20000,"totalExpenses":22469}}`

	rr := do(t, srv, http.MethodPost, "/render", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Cache") != "MISS" {
		t.Errorf("first render X-Cache = %q", rr.Header().Get("X-Cache"))
	}
	if !strings.Contains(rr.Body.String(), "₹-2,469.00") || !strings.Contains(rr.Body.String(), "Hello Ravi,") {
		t.Errorf("render body missing figures")
	}

	rr = do(t, srv, http.MethodPost, "/render?format=text", body)
	if rr.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second render X-Cache = %q", rr.Header().Get("X-Cache"))
	}
	if !strings.Contains(rr.Body.String(), "You’ve used 112.3% of your monthly budget.\n") {
		t.Errorf("text render = %q", rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/render?format=json", body)
	var msg email.Message
	if err := json.Unmarshal(rr.Body.Bytes(), &msg); err != nil {
		t.Fatalf("json render: %v", err)
	}
	if msg.Type != email.BudgetAlert || msg.Fallback || msg.Subject != "Budget Alert" {
		t.Errorf("json render = %+v", msg)
	}
}

func TestRenderFallbackAndErrors(t *testing.T) {
	srv := newTestServer(t, defaultOptions())

	for _, body := range []string{"", "null", `{"type":"monthly-report"}`} {
		rr := do(t, srv, http.MethodPost, "/render", body)
		if rr.Code != http.StatusOK || rr.Header().Get("X-Email-Fallback") != "true" {
			t.Errorf("body %q: status %d, fallback %q", body, rr.Code, rr.Header().Get("X-Email-Fallback"))
		}
		if !strings.Contains(rr.Body.String(), "Hello Kushal,") {
			t.Errorf("body %q did not render the preview data", body)
		}
	}

	if rr := do(t, srv, http.MethodPost, "/render", `{"userName":`); rr.Code != http.StatusBadRequest {
		t.Errorf("malformed json = %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, "/render", `{"userName":"A","type":"monthly-report","data":{"stats":{"byCategory":7}}}`); rr.Code != http.StatusBadRequest {
		t.Errorf("bad byCategory = %d", rr.Code)
	}

	big := `{"userName":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	if rr := do(t, srv, http.MethodPost, "/render", big); rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body = %d", rr.Code)
	}

	if rr := do(t, srv, http.MethodGet, "/render", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /render = %d", rr.Code)
	}
}

func TestRenderIsRateLimited(t *testing.T) {
	opts := defaultOptions()
	opts.RequestsPerMinute = 2
	srv := newTestServer(t, opts)

	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodPost, "/render", "null"); rr.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i+1, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPost, "/render", "null")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("third request = %d, Retry-After %q", rr.Code, rr.Header().Get("Retry-After"))
	}
	if rr := do(t, srv, http.MethodGet, "/preview/monthly-report", ""); rr.Code != http.StatusOK {
		t.Fatalf("GET should not be limited, got %d", rr.Code)
	}
}

func TestMonthlyReport(t *testing.T) {
	srv := newTestServer(t, defaultOptions())

	rr := do(t, srv, http.MethodGet, "/reports/monthly?user=Asha&year=2025&month=6&format=text", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{
		"Hello Asha,",
		"Here’s your financial summary for June:",
		"Net: ₹15,300.00",
		"housing: ₹9,000.00",
		"• Your housing expenses account for over 45% of your spending.",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("report missing %q:\n%s", want, body)
		}
	}

	rr = do(t, srv, http.MethodGet, "/reports/monthly?user=Asha&year=2025&month=6&income=10000&format=text", "")
	if !strings.Contains(rr.Body.String(), "Net: ₹-9,700.00") {
		t.Errorf("income override not applied:\n%s", rr.Body.String())
	}

	tests := []struct {
		target string
		want   int
	}{
		{"/reports/monthly?year=2025&month=6", http.StatusBadRequest},
		{"/reports/monthly?user=Asha&month=13", http.StatusBadRequest},
		{"/reports/monthly?user=Asha&year=abc", http.StatusBadRequest},
		{"/reports/monthly?user=Asha&income=-5", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rr := do(t, srv, http.MethodGet, tt.target, ""); rr.Code != tt.want {
			t.Errorf("%s = %d, want %d", tt.target, rr.Code, tt.want)
		}
	}
}

func TestMonthlyReportSourceFailures(t *testing.T) {
	opts := defaultOptions()
	opts.Reports = services.NewReportService(failingSource{}, 80, nil)
	srv := newTestServer(t, opts)
	if rr := do(t, srv, http.MethodGet, "/reports/monthly?user=Asha", ""); rr.Code != http.StatusBadGateway {
		t.Errorf("source error = %d", rr.Code)
	}

	opts = defaultOptions()
	opts.Reports = nil
	srv = newTestServer(t, opts)
	if rr := do(t, srv, http.MethodGet, "/reports/monthly?user=Asha", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("no source = %d", rr.Code)
	}
}

func TestBudgetAlertReport(t *testing.T) {
	srv := newTestServer(t, defaultOptions())

	rr := do(t, srv, http.MethodGet, "/reports/budget-alert?user=Kushal&year=2025&month=6&budget=20000", "")
	if rr.Code != http.StatusOK || rr.Header().Get("X-Alert-Triggered") != "true" {
		t.Fatalf("status = %d, triggered %q", rr.Code, rr.Header().Get("X-Alert-Triggered"))
	}
	if !strings.Contains(rr.Body.String(), "98.5%") {
		t.Errorf("alert body missing percentage")
	}

	rr = do(t, srv, http.MethodGet, "/reports/budget-alert?user=Kushal&year=2025&month=6&budget=50000", "")
	if rr.Header().Get("X-Alert-Triggered") != "false" {
		t.Errorf("39.4%% usage should not trigger")
	}

	if rr := do(t, srv, http.MethodGet, "/reports/budget-alert?user=Kushal", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("missing budget = %d", rr.Code)
	}
}

func TestEnqueue(t *testing.T) {
	pub := &fakePublisher{}
	opts := defaultOptions()
	opts.Outbox = services.NewOutboxService(pub, nil)
	srv := newTestServer(t, opts)

	rr := do(t, srv, http.MethodPost, "/outbox", `{"recipient":"kushal@example.com","request":{"userName":"Kushal","type":"budget-alert","data":{"percentageUsed":50}}}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d %s", rr.Code, rr.Body.String())
	}
	body := decodeJSON(t, rr)
	if len(pub.msgs) != 1 || body["id"] != pub.msgs[0].ID.String() || body["status"] != "queued" {
		t.Fatalf("body = %v, published %d", body, len(pub.msgs))
	}
	if pub.msgs[0].Request.Type != email.BudgetAlert {
		t.Errorf("published type = %q", pub.msgs[0].Request.Type)
	}

	if rr := do(t, srv, http.MethodPost, "/outbox", `{"request":{}}`); rr.Code != http.StatusBadRequest {
		t.Errorf("missing recipient = %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, "/outbox", `not json`); rr.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d", rr.Code)
	}
}

func TestEnqueuePublisherFailures(t *testing.T) {
	tests := []struct {
		name   string
		outbox *services.OutboxService
		want   int
	}{
		{"no publisher", nil, http.StatusServiceUnavailable},
		{"circuit open", services.NewOutboxService(&fakePublisher{err: amqp.ErrCircuitOpen}, nil), http.StatusServiceUnavailable},
		{"broker error", services.NewOutboxService(&fakePublisher{err: errors.New("channel closed")}, nil), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions()
			opts.Outbox = tt.outbox
			srv := newTestServer(t, opts)
			rr := do(t, srv, http.MethodPost, "/outbox", `{"recipient":"a@example.com","request":null}`)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestMiddlewareChain(t *testing.T) {
	srv := newTestServer(t, defaultOptions())

	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	if rr := do(t, srv, "TRACE", "/healthz", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("TRACE = %d", rr.Code)
	}

	do(t, srv, http.MethodPost, "/render", "null")
	do(t, srv, http.MethodPost, "/render", "null")
	rr = do(t, srv, http.MethodGet, "/metrics", "")
	body := rr.Body.String()
	for _, want := range []string{"render_cache_hits_total 1", "render_cache_misses_total 1", "blocked_requests_total 1", "http_requests_total"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestPreviewIsCompressed(t *testing.T) {
	srv := newTestServer(t, defaultOptions())
	req := httptest.NewRequest(http.MethodGet, "/preview/monthly-report?format=text", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if rr.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q", rr.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(rr.Body)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(zr)
	if !strings.HasPrefix(string(body), "Monthly Financial Report\nHello Kushal,\n") {
		t.Errorf("body = %q", body)
	}
}
