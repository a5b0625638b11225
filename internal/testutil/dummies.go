// Package testutil provides shared test doubles for use across package
// tests. All dummies implement the corresponding interfaces from the
// production code, allowing injection into components under test without
// real I/O or side effects.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sitelens/sitelens/internal/browser"
	"github.com/sitelens/sitelens/internal/lighthouse"
	"github.com/sitelens/sitelens/internal/logging"
	"github.com/sitelens/sitelens/internal/model"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── Prober ────────────────────────────────────────────────────────────

// StubProber returns a canned security report for any target.
type StubProber struct {
	Report model.SecurityReport
}

func (p *StubProber) Probe(_ context.Context, target string) *model.SecurityReport {
	report := p.Report
	report.URL = target
	return &report
}

// ─── Browser ───────────────────────────────────────────────────────────

// StubSession implements browser.Session without a real browser.
type StubSession struct {
	mu        sync.Mutex
	Released  bool
	PagesOpen int
}

func (s *StubSession) Port() int { return 9222 }

func (s *StubSession) NewPage(ctx context.Context) (context.Context, context.CancelFunc, error) {
	s.mu.Lock()
	s.PagesOpen++
	s.mu.Unlock()
	pageCtx, cancel := context.WithCancel(ctx)
	return pageCtx, cancel, nil
}

func (s *StubSession) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Released = true
}

// WasReleased reports whether Release ran.
func (s *StubSession) WasReleased() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Released
}

// StubSessionManager hands out StubSessions, or fails when AcquireErr is set.
type StubSessionManager struct {
	AcquireErr error

	mu       sync.Mutex
	Sessions []*StubSession
}

func (m *StubSessionManager) Acquire(_ context.Context) (browser.Session, error) {
	if m.AcquireErr != nil {
		return nil, m.AcquireErr
	}
	sess := &StubSession{}
	m.mu.Lock()
	m.Sessions = append(m.Sessions, sess)
	m.mu.Unlock()
	return sess, nil
}

// ─── Analyzer ──────────────────────────────────────────────────────────

// StubAnalyzer implements lighthouse.Analyzer with a canned report.
type StubAnalyzer struct {
	Report *lighthouse.Report
	Err    error
	Delay  time.Duration

	mu    sync.Mutex
	Calls int
}

func (a *StubAnalyzer) Run(_ context.Context, _ string, _ int) (*lighthouse.Report, error) {
	a.mu.Lock()
	a.Calls++
	a.mu.Unlock()
	if a.Delay > 0 {
		time.Sleep(a.Delay)
	}
	if a.Err != nil {
		return nil, a.Err
	}
	if a.Report != nil {
		return a.Report, nil
	}
	return &lighthouse.Report{
		PerformanceScore: 90,
		SEOScore:         80,
		Audits: map[string]model.Metric{
			"first-contentful-paint": {Value: "1.2 s", Explanation: "fcp"},
		},
	}, nil
}

// ─── Accessibility ─────────────────────────────────────────────────────

// StubAxeRunner returns canned violations or an error.
type StubAxeRunner struct {
	Violations []model.AccessibilityViolation
	Err        error
	Panic      bool
}

func (r *StubAxeRunner) Evaluate(_ context.Context, _ browser.Session, _ string) ([]model.AccessibilityViolation, error) {
	if r.Panic {
		panic("axe runner blew up")
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Violations, nil
}

// ─── SEO ───────────────────────────────────────────────────────────────

// StubSEOAuditor returns canned on-page checks.
type StubSEOAuditor struct {
	Checks []model.SEOCheck
	Err    error
}

func (a *StubSEOAuditor) Audit(_ context.Context, _ string) ([]model.SEOCheck, error) {
	if a.Err != nil {
		return nil, a.Err
	}
	return a.Checks, nil
}

// ─── Suggestions ───────────────────────────────────────────────────────

// RecordingGenerator counts Generate calls per section, so tests can assert
// the exactly-once enrichment property. FailSections forces a failure for
// the named sections.
type RecordingGenerator struct {
	FailSections map[string]bool

	mu    sync.Mutex
	Calls map[string]int
}

func (g *RecordingGenerator) Generate(ctx context.Context, section string, _ any) (string, error) {
	g.mu.Lock()
	if g.Calls == nil {
		g.Calls = make(map[string]int)
	}
	g.Calls[section]++
	g.mu.Unlock()

	// Fail on dead contexts the way a real API client would.
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.FailSections != nil && g.FailSections[section] {
		return "", errors.New("generator unavailable")
	}
	return fmt.Sprintf("advice for %s", section), nil
}

// CallCount returns the number of Generate calls for a section.
func (g *RecordingGenerator) CallCount(section string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Calls[section]
}
