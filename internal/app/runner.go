package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sitelens/sitelens/internal/browser"
	"github.com/sitelens/sitelens/internal/logging"
	"github.com/sitelens/sitelens/internal/model"
)

// runAudit is the background job body. It acquires one browser session,
// runs the two browser-bound sub-audits, merges their results into the
// record and finalizes the status. The caller does not await it.
func (o *Orchestrator) runAudit(scanID, target string) {
	log := o.logger.With(logging.Field{Key: "scan_id", Value: scanID})
	defer o.closeEvents(scanID)
	defer func() {
		// The job is fire-and-forget; a panic here must surface in the
		// record instead of being dropped with the goroutine.
		if r := recover(); r != nil {
			log.Error("audit job panicked", logging.Field{Key: "panic", Value: fmt.Sprint(r)})
			o.failScan(scanID, fmt.Sprintf("audit job failed: %v", r))
		}
	}()

	// The job outlives the submit request; sub-calls carry their own
	// timeouts and no whole-job cancellation is exposed.
	ctx := context.Background()

	sess, err := o.sessions.Acquire(ctx)
	if err != nil {
		log.Error("acquiring browser session", logging.Field{Key: "error", Value: err.Error()})
		o.failScan(scanID, fmt.Sprintf("browser launch failed: %s", err))
		return
	}
	defer sess.Release()

	var (
		wg         sync.WaitGroup
		perfReport *model.PerformanceReport
		seoReport  *model.SEOReport
		accReport  *model.AccessibilityReport
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		perfReport, seoReport = o.runPerformanceSEO(ctx, log, sess.Port(), target)
	}()
	go func() {
		defer wg.Done()
		accReport = o.runAccessibility(ctx, log, sess, target)
	}()
	wg.Wait()

	_, err = o.store.Update(scanID, func(rec *model.ScanRecord) {
		now := time.Now().UTC()
		rec.Performance = perfReport
		rec.SEO = seoReport
		rec.Accessibility = accReport
		rec.Status = model.StatusCompleted
		rec.CompletedAt = &now
	})
	if err != nil {
		log.Error("recording audit results", logging.Field{Key: "error", Value: err.Error()})
		return
	}

	o.emitEvent(scanID, ScanEvent{ScanID: scanID, Type: ScanEventSection, Section: "performance"})
	o.emitEvent(scanID, ScanEvent{ScanID: scanID, Type: ScanEventSection, Section: "seo"})
	o.emitEvent(scanID, ScanEvent{ScanID: scanID, Type: ScanEventSection, Section: "accessibility"})
	o.emitEvent(scanID, ScanEvent{ScanID: scanID, Type: ScanEventStatus, Status: model.StatusCompleted})
	log.Info("audit completed", logging.Field{Key: "url", Value: target})
}

// runPerformanceSEO delegates to the analyzer and attaches the independent
// on-page checks. Any failure is scoped to the returned sections.
func (o *Orchestrator) runPerformanceSEO(ctx context.Context, log logging.Logger, port int, target string) (perf *model.PerformanceReport, seoRep *model.SEOReport) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("performance sub-audit panicked", logging.Field{Key: "panic", Value: fmt.Sprint(r)})
			msg := fmt.Sprintf("Lighthouse scan failed: %v", r)
			perf = &model.PerformanceReport{Error: msg}
			seoRep = &model.SEOReport{Error: msg}
		}
	}()

	report, err := o.analyzer.Run(ctx, target, port)
	if err != nil {
		log.Warn("performance/seo sub-audit failed", logging.Field{Key: "error", Value: err.Error()})
		msg := fmt.Sprintf("Lighthouse scan failed: %s", err)
		return &model.PerformanceReport{Error: msg}, &model.SEOReport{Error: msg}
	}

	perf = &model.PerformanceReport{
		PerformanceScore: report.PerformanceScore,
		Audits:           report.Audits,
	}
	seoRep = &model.SEOReport{SEOScore: report.SEOScore}

	// On-page checks degrade independently of the Lighthouse score.
	checks, err := o.seo.Audit(ctx, target)
	if err != nil {
		log.Warn("on-page seo checks failed", logging.Field{Key: "error", Value: err.Error()})
	} else {
		seoRep.Checks = checks
	}
	return perf, seoRep
}

// runAccessibility loads the target in a fresh page and runs the rule
// engine. Any failure becomes a one-element error placeholder.
func (o *Orchestrator) runAccessibility(ctx context.Context, log logging.Logger, sess browser.Session, target string) (report *model.AccessibilityReport) {
	report = &model.AccessibilityReport{}
	defer func() {
		if r := recover(); r != nil {
			log.Error("accessibility sub-audit panicked", logging.Field{Key: "panic", Value: fmt.Sprint(r)})
			report.Violations = []model.AccessibilityViolation{
				{Error: fmt.Sprintf("Accessibility scan failed: %v", r)},
			}
		}
	}()

	violations, err := o.axe.Evaluate(ctx, sess, target)
	if err != nil {
		log.Warn("accessibility sub-audit failed", logging.Field{Key: "error", Value: err.Error()})
		report.Violations = []model.AccessibilityViolation{
			{Error: fmt.Sprintf("Accessibility scan failed: %s", err)},
		}
		return report
	}
	if violations == nil {
		violations = []model.AccessibilityViolation{}
	}
	report.Violations = violations
	return report
}

// failScan marks the scan as failed while preserving every field already
// written, in particular the security section from submission.
func (o *Orchestrator) failScan(scanID, msg string) {
	_, err := o.store.Update(scanID, func(rec *model.ScanRecord) {
		if rec.Status.Terminal() {
			return
		}
		now := time.Now().UTC()
		rec.Status = model.StatusError
		rec.Error = msg
		rec.CompletedAt = &now
	})
	if err != nil {
		o.logger.Error("marking scan failed",
			logging.Field{Key: "scan_id", Value: scanID},
			logging.Field{Key: "error", Value: err.Error()})
		return
	}
	o.emitEvent(scanID, ScanEvent{ScanID: scanID, Type: ScanEventStatus, Status: model.StatusError, Error: msg})
}
