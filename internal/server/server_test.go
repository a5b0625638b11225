package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sitelens/sitelens/internal/app"
	"github.com/sitelens/sitelens/internal/model"
	"github.com/sitelens/sitelens/internal/server"
	"github.com/sitelens/sitelens/internal/store"
	"github.com/sitelens/sitelens/internal/testutil"
)

func newTestServer(t *testing.T, analyzerDelay time.Duration) *httptest.Server {
	t.Helper()

	orch := app.NewOrchestrator(
		store.NewMemoryStore(),
		&testutil.StubProber{Report: model.SecurityReport{HTTPS: true, Reachable: true}},
		&testutil.StubSessionManager{},
		&testutil.StubAnalyzer{Delay: analyzerDelay},
		&testutil.StubAxeRunner{Violations: []model.AccessibilityViolation{}},
		&testutil.StubSEOAuditor{Checks: []model.SEOCheck{{ID: "title", Passed: true}}},
		&testutil.RecordingGenerator{},
		&testutil.DummyLogger{},
	)

	srv := server.NewServer(server.DefaultConfig(), orch, &testutil.DummyLogger{})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func postAudit(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/audit", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /api/audit: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

// pollResults requests the results endpoint until the scan is terminal.
func pollResults(t *testing.T, ts *httptest.Server, scanID string) model.ScanRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/api/results/" + scanID)
		if err != nil {
			t.Fatalf("GET /api/results: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET /api/results status = %d", resp.StatusCode)
		}
		var rec model.ScanRecord
		decodeJSON(t, resp, &rec)
		if rec.Status.Terminal() {
			return rec
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("scan never reached a terminal status")
	return model.ScanRecord{}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestSubmitAudit_InvalidJSON(t *testing.T) {
	ts := newTestServer(t, 0)

	resp := postAudit(t, ts, "{not json")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSubmitAudit_EmptyURL(t *testing.T) {
	ts := newTestServer(t, 0)

	resp := postAudit(t, ts, `{"url":""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["error"] == "" {
		t.Fatal("expected an error message in the body")
	}
}

func TestSubmitAudit_ReturnsScanIDAndInitialRecord(t *testing.T) {
	ts := newTestServer(t, 0)

	resp := postAudit(t, ts, `{"url":"example.com"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		ScanID  string           `json:"scanId"`
		Initial model.ScanRecord `json:"initial"`
	}
	decodeJSON(t, resp, &body)
	if body.ScanID == "" {
		t.Fatal("no scanId in response")
	}
	if body.Initial.Status != model.StatusRunning {
		t.Fatalf("initial status = %s, want running", body.Initial.Status)
	}
	if body.Initial.URL != "https://example.com" {
		t.Fatalf("initial url = %q", body.Initial.URL)
	}
	if body.Initial.Security == nil || !body.Initial.Security.HTTPS {
		t.Fatalf("initial record missing security section: %+v", body.Initial.Security)
	}
}

func TestGetResults_Unknown(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, err := http.Get(ts.URL + "/api/results/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["error"] != "Scan not found" {
		t.Fatalf("error = %q", body["error"])
	}
}

func TestGetResults_CompletedRecordIsEnriched(t *testing.T) {
	ts := newTestServer(t, 0)

	resp := postAudit(t, ts, `{"url":"https://example.com"}`)
	var submitted struct {
		ScanID string `json:"scanId"`
	}
	decodeJSON(t, resp, &submitted)

	rec := pollResults(t, ts, submitted.ScanID)
	if rec.Status != model.StatusCompleted {
		t.Fatalf("status = %s, want completed (error: %s)", rec.Status, rec.Error)
	}
	if rec.Performance == nil || rec.Performance.PerformanceScore != 90 {
		t.Fatalf("performance section: %+v", rec.Performance)
	}

	// The terminal read through the API triggers the one-time enrichment.
	final := pollResults(t, ts, submitted.ScanID)
	if !final.AIEnhanced {
		t.Fatal("completed record not enriched on read")
	}
	if final.Performance.AISuggestion == "" {
		t.Fatal("performance suggestion missing after enrichment")
	}
}

func TestScanWS_StreamsUntilTerminal(t *testing.T) {
	// Slow the analyzer down so the scan is still running when the
	// websocket subscribes.
	ts := newTestServer(t, 150*time.Millisecond)

	resp := postAudit(t, ts, `{"url":"https://example.com"}`)
	var submitted struct {
		ScanID string `json:"scanId"`
	}
	decodeJSON(t, resp, &submitted)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/scans/" + submitted.ScanID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	// First frame is the current record snapshot.
	var snapshot model.ScanRecord
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("reading snapshot frame: %v", err)
	}
	if snapshot.ScanID != submitted.ScanID {
		t.Fatalf("snapshot scanId = %q", snapshot.ScanID)
	}

	// Then events flow until the job finishes and the channel closes.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	sawTerminal := snapshot.Status.Terminal()
	for !sawTerminal {
		var ev app.ScanEvent
		if err := conn.ReadJSON(&ev); err != nil {
			// Channel closed after the terminal event was delivered.
			break
		}
		if ev.Type == app.ScanEventStatus && ev.Status.Terminal() {
			sawTerminal = true
		}
	}
	if !sawTerminal {
		t.Fatal("websocket stream ended without a terminal status event")
	}
}

func TestScanWS_UnknownID(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, err := http.Get(ts.URL + "/ws/scans/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
