package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PerfDash/internal/services/analytics"
	"PerfDash/internal/services/render"
	"PerfDash/internal/usecase"
	"PerfDash/pkg/config"
	xhttp "PerfDash/pkg/http"
	"PerfDash/pkg/ratelimit"

	"github.com/gorilla/websocket"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

const fetchBody = `{"AAPL": {
	"prices": [50, 55, 45],
	"dates": ["2019-01-01", "2019-02-01", "2019-03-01"],
	"sharpe_ratios": {"1M": 0.5, "3M": 0.6, "6M": 0.7, "1Y": 0.8, "3Y": 0.9, "5Y": 1.0},
	"annualized_returns": {"1M": 0.01, "3M": 0.02, "6M": 0.03, "12M": 0.1234, "36M": 0.05, "60M": 0.06}
}}`

// fakeAnalytics serves both endpoints; block, when set, holds fetch-data until closed.
func fakeAnalytics(t *testing.T, block chan struct{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/fetch-data":
			if block != nil {
				<-block
			}
			_, _ = w.Write([]byte(fetchBody))
		case "/api/heatmap":
			_ = json.NewEncoder(w).Encode(map[string]string{"heatmap": base64.StdEncoding.EncodeToString(pngBytes)})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, analyticsURL string, burst float64, opts ...HandlerOption) *xhttp.Server {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Analytics.BaseURL = analyticsURL
	cfg.Analytics.Timeout = 5 * time.Second
	cfg.Render.Width, cfg.Render.Height = 480, 240

	orch := usecase.NewFetchOrchestrator(analytics.NewService(cfg), nil, nil, cfg.Analytics.Timeout)
	dash, err := usecase.NewDashboardController(cfg, orch, nil)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	h := NewDashboardEchoHandler(nil, dash, render.New(cfg), ratelimit.New(burst, 0.001), NewStreamHandler(cfg, nil, dash), opts...)
	return xhttp.NewServer(h, nil)
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, s *xhttp.Server, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func TestInstrumentsCatalog(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1", 5)
	rec, env := do(t, s, http.MethodGet, "/api/instruments", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(string(env.Data), `"AAPL"`) || !strings.Contains(string(env.Data), `"NDX"`) {
		t.Fatalf("catalog = %s", env.Data)
	}
}

func TestSelectionEndpoints(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1", 5)

	rec, env := do(t, s, http.MethodPut, "/api/selection/instruments", `{"instruments": ["msft", "AAPL", "MSFT"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set instruments status = %d: %s", rec.Code, rec.Body.String())
	}
	var sel usecase.SelectionView
	if err := json.Unmarshal(env.Data, &sel); err != nil {
		t.Fatalf("decode selection: %v", err)
	}
	if strings.Join(sel.Instruments, ",") != "MSFT,AAPL" {
		t.Fatalf("instruments = %v", sel.Instruments)
	}

	rec, _ = do(t, s, http.MethodPut, "/api/selection/instruments", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing instruments status = %d", rec.Code)
	}

	rec, _ = do(t, s, http.MethodPut, "/api/selection/start", `{"date": "2024-06-01"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "ERR_DATE_RANGE") {
		t.Fatalf("inverted range: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"end_date":"2023-12-31"`) {
		t.Fatalf("range params missing: %s", rec.Body.String())
	}

	rec, _ = do(t, s, http.MethodPut, "/api/selection/end", `{"date": "31/12/2023"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "ERR_DATETIME") {
		t.Fatalf("bad date: %d %s", rec.Code, rec.Body.String())
	}

	rec, env = do(t, s, http.MethodPut, "/api/selection/start", `{"date": "2020-03-15T10:00:00Z"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set start status = %d", rec.Code)
	}
	_ = json.Unmarshal(env.Data, &sel)
	if sel.StartDate != "2020-03-15" || sel.EndDate != "2023-12-31" {
		t.Fatalf("selection = %+v", sel)
	}
}

func TestAnalyzeWithoutInstruments(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1", 5)
	rec, _ := do(t, s, http.MethodPost, "/api/analyze", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAnalyzeWaitAndImages(t *testing.T) {
	srv := fakeAnalytics(t, nil)
	s := newTestServer(t, srv.URL, 5)

	if rec, _ := do(t, s, http.MethodGet, "/api/heatmap.png", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("heatmap before analyze = %d", rec.Code)
	}

	do(t, s, http.MethodPut, "/api/selection/instruments", `{"instruments": ["AAPL"]}`)
	rec, env := do(t, s, http.MethodPost, "/api/analyze", `{"wait": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze status = %d: %s", rec.Code, rec.Body.String())
	}
	var view usecase.View
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Phase != "ready" || view.Metrics == nil || view.Metrics.Rows[0].Cells[3] != "12.34%" {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Heatmap == nil {
		t.Fatalf("heatmap missing from view")
	}

	rec, _ = do(t, s, http.MethodGet, "/api/heatmap.png", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" || !bytes.Equal(rec.Body.Bytes(), pngBytes) {
		t.Fatalf("heatmap: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	for _, path := range []string{"/api/charts/performance.png", "/api/charts/sharpe.png"} {
		rec, _ = do(t, s, http.MethodGet, path, "")
		if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), pngBytes[:8]) {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
	}
}

func TestAnalyzeConflictWhileLoading(t *testing.T) {
	block := make(chan struct{})
	srv := fakeAnalytics(t, block)
	s := newTestServer(t, srv.URL, 5)
	do(t, s, http.MethodPut, "/api/selection/instruments", `{"instruments": ["AAPL"]}`)

	rec, env := do(t, s, http.MethodPost, "/api/analyze", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first analyze = %d", rec.Code)
	}
	var view usecase.View
	_ = json.Unmarshal(env.Data, &view)
	if view.Phase != "loading" || view.Analyze.Label != "Loading..." {
		t.Fatalf("expected loading view, got %+v", view)
	}

	rec, _ = do(t, s, http.MethodPost, "/api/analyze", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("second analyze = %d", rec.Code)
	}
	close(block)
}

func TestAnalyzeRateLimited(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1", 1)
	do(t, s, http.MethodPost, "/api/analyze", "")
	rec, _ := do(t, s, http.MethodPost, "/api/analyze", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1", 5)
	if rec, _ := do(t, s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStateStream(t *testing.T) {
	srv := fakeAnalytics(t, nil)
	s := newTestServer(t, srv.URL, 5)
	ts := httptest.NewServer(s.Echo())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/state", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg struct {
		Type string       `json:"type"`
		Data usecase.View `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if msg.Type != "view" || msg.Data.Phase != "idle" {
		t.Fatalf("initial message %+v", msg)
	}

	do(t, s, http.MethodPut, "/api/selection/instruments", `{"instruments": ["AAPL"]}`)
	do(t, s, http.MethodPost, "/api/analyze", `{"wait": true}`)

	// Intermediate views may be coalesced; the last one is the ready view.
	for msg.Data.Phase != "ready" {
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read update: %v", err)
		}
	}
	if msg.Data.Metrics == nil || len(msg.Data.Metrics.Rows) != 1 {
		t.Fatalf("ready view without metrics: %+v", msg.Data)
	}
}

func TestAnalyzeWaitAnswersBeforeWriteTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := fakeAnalytics(t, block)
	writeTimeout := time.Second
	s := newTestServer(t, srv.URL, 5, WithWaitLimit(WaitLimitFor(writeTimeout)))

	ts := httptest.NewUnstartedServer(s.Echo())
	ts.Config.WriteTimeout = writeTimeout
	ts.Start()
	defer ts.Close()

	do(t, s, http.MethodPut, "/api/selection/instruments", `{"instruments": ["AAPL"]}`)

	// The cycle outlasts the write timeout.
	release := time.AfterFunc(1500*time.Millisecond, func() { close(block) })
	defer release.Stop()

	resp, err := http.Post(ts.URL+"/api/analyze", "application/json", strings.NewReader(`{"wait": true}`))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var view usecase.View
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Phase != "loading" {
		t.Fatalf("phase = %s", view.Phase)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		_, env = do(t, s, http.MethodGet, "/api/state", "")
		_ = json.Unmarshal(env.Data, &view)
		if view.Phase == "ready" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("cycle did not finish, phase = %s", view.Phase)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWaitLimitFor(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{0, 0},
		{time.Second, 900 * time.Millisecond},
		{5 * time.Second, 4500 * time.Millisecond},
		{30 * time.Second, 29 * time.Second},
	}
	for _, tt := range tests {
		if got := WaitLimitFor(tt.in); got != tt.want {
			t.Fatalf("WaitLimitFor(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestViewBufferKeepsNewest(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	loading := usecase.View{Phase: "loading", UpdatedAt: t0}
	ready := usecase.View{Phase: "ready", UpdatedAt: t0.Add(time.Second)}

	b := newViewBuffer()
	b.push(ready)
	b.push(loading)
	if v := <-b.C; v.Phase != "ready" {
		t.Fatalf("older view replaced newer: %s", v.Phase)
	}

	b.push(loading)
	select {
	case v := <-b.C:
		t.Fatalf("stale view delivered: %s", v.Phase)
	default:
	}

	b = newViewBuffer()
	b.push(loading)
	b.push(ready)
	if v := <-b.C; v.Phase != "ready" {
		t.Fatalf("latest view not delivered: %s", v.Phase)
	}
}
