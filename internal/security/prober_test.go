package security_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/sitelens/sitelens/internal/security"
	"github.com/sitelens/sitelens/internal/testutil"
)

func newProber(timeout time.Duration) *security.Prober {
	cfg := security.Config{FetchTimeout: timeout}
	return security.NewProber(cfg, nil, &testutil.DummyLogger{})
}

func TestProbe_MissingHeadersChecklistOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	report := newProber(5 * time.Second).Probe(context.Background(), srv.URL)

	if !report.Reachable {
		t.Fatal("expected reachable")
	}
	want := []string{
		"strict-transport-security",
		"x-frame-options",
		"x-content-type-options",
		"content-security-policy",
		"referrer-policy",
		"permissions-policy",
	}
	if !reflect.DeepEqual(report.MissingHeaders, want) {
		t.Fatalf("missing headers\nwant %v\ngot  %v", want, report.MissingHeaders)
	}
	for _, h := range want {
		if report.MissingHeadersExplanation[h] == "" {
			t.Fatalf("no explanation for %s", h)
		}
	}
}

func TestProbe_DetectsPresentHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	report := newProber(5 * time.Second).Probe(context.Background(), srv.URL)

	for _, missing := range report.MissingHeaders {
		if missing == "x-frame-options" || missing == "content-security-policy" {
			t.Fatalf("header %s reported missing despite being set", missing)
		}
	}
	found := false
	for _, h := range report.DetectedHeaders {
		if h == "x-frame-options" {
			found = true
		}
	}
	if !found {
		t.Fatalf("x-frame-options not in detected headers: %v", report.DetectedHeaders)
	}
}

func TestProbe_HTTPSFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	report := newProber(5 * time.Second).Probe(context.Background(), srv.URL)
	if report.HTTPS {
		t.Fatal("plain-http target flagged as https")
	}
	if report.MixedContent {
		t.Fatal("mixed content must not be checked for http targets")
	}
}

func TestProbe_MixedContent(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"http image src", `<html><img src="http://a.com/x.png"></html>`, true},
		{"http href", `<html><a href='http://a.com'>x</a></html>`, true},
		{"uppercase scheme", `<html><img SRC="HTTP://a.com/x.png"></html>`, true},
		{"https only", `<html><img src="https://a.com/x.png"></html>`, false},
		{"no references", `<html><p>hello</p></html>`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			cfg := security.Config{FetchTimeout: 5 * time.Second}
			prober := security.NewProber(cfg, srv.Client(), &testutil.DummyLogger{})
			report := prober.Probe(context.Background(), srv.URL)

			if !report.HTTPS {
				t.Fatal("tls target not flagged https")
			}
			if report.MixedContent != tc.want {
				t.Fatalf("mixedContent = %v, want %v", report.MixedContent, tc.want)
			}
		})
	}
}

func TestProbe_UnreachableDegradesFields(t *testing.T) {
	// Reserved TEST-NET address, nothing listens there.
	report := newProber(500 * time.Millisecond).Probe(context.Background(), "https://192.0.2.1:9")

	if report.Reachable {
		t.Fatal("unreachable target reported reachable")
	}
	if len(report.MissingHeaders) != 6 {
		t.Fatalf("expected all checklist headers missing, got %v", report.MissingHeaders)
	}
	if !report.HTTPS {
		t.Fatal("https flag should come from the URL, not the fetch")
	}
}
