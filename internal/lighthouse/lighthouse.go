// Package lighthouse drives the Lighthouse CLI against an already-running
// browser session and extracts the performance and SEO category results.
package lighthouse

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/sitelens/sitelens/internal/logging"
	"github.com/sitelens/sitelens/internal/model"
)

// auditIDs are the six named metrics extracted from the report, in the
// order they are reported.
var auditIDs = []string{
	"first-contentful-paint",
	"speed-index",
	"interactive",
	"total-blocking-time",
	"largest-contentful-paint",
	"cumulative-layout-shift",
}

// auditExplanations are the static per-metric notes.
var auditExplanations = map[string]string{
	"first-contentful-paint":   "How fast the first text or image appears on screen. Aim under 2 seconds.",
	"speed-index":              "Measures how quickly the visible parts of the page are displayed. Lower is better.",
	"interactive":              "When the page is fully usable. Should be under 5 seconds.",
	"total-blocking-time":      "Time the browser was blocked by scripts. Lower means smoother experience.",
	"largest-contentful-paint": "Time taken for the biggest image or text to appear. Aim under 2.5 seconds.",
	"cumulative-layout-shift":  "Measures how much the layout shifts unexpectedly. Keep it below 0.1.",
}

// Report is the analyzer output consumed by the audit runner.
type Report struct {
	PerformanceScore int
	SEOScore         int
	Audits           map[string]model.Metric
}

// Analyzer runs the performance/SEO analysis against the debugging port of
// an acquired browser session.
type Analyzer interface {
	Run(ctx context.Context, target string, port int) (*Report, error)
}

// CLIAnalyzer shells out to the lighthouse binary. One invocation covers
// both categories, so performance and SEO never require a second pass.
type CLIAnalyzer struct {
	cfg    Config
	logger logging.Logger
}

// NewCLIAnalyzer builds a CLIAnalyzer.
func NewCLIAnalyzer(cfg Config, logger logging.Logger) *CLIAnalyzer {
	return &CLIAnalyzer{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "lighthouse"}),
	}
}

func (a *CLIAnalyzer) Run(ctx context.Context, target string, port int) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.RunTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.cfg.BinPath,
		target,
		"--port="+strconv.Itoa(port),
		"--output=json",
		"--quiet",
		"--only-categories=performance,seo",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	a.logger.Debug("running lighthouse",
		logging.Field{Key: "url", Value: target},
		logging.Field{Key: "port", Value: port})

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("lighthouse run: %w: %s", err, stderr.String())
	}

	report, err := ParseReport(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ParseReport extracts scores and the six named audits from a Lighthouse
// JSON report.
func ParseReport(data []byte) (*Report, error) {
	perf := gjson.GetBytes(data, "categories.performance.score")
	seo := gjson.GetBytes(data, "categories.seo.score")
	if !perf.Exists() || !seo.Exists() {
		return nil, fmt.Errorf("parse lighthouse report: missing category scores")
	}

	audits := make(map[string]model.Metric, len(auditIDs))
	for _, id := range auditIDs {
		audit := gjson.GetBytes(data, "audits."+id)
		if !audit.Exists() {
			continue
		}
		value := audit.Get("displayValue")
		if !value.Exists() {
			value = audit.Get("score")
		}
		audits[id] = model.Metric{
			Value:       value.String(),
			Explanation: auditExplanations[id],
		}
	}

	return &Report{
		PerformanceScore: int(math.Round(perf.Float() * 100)),
		SEOScore:         int(math.Round(seo.Float() * 100)),
		Audits:           audits,
	}, nil
}
