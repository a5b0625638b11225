// Package app composes the audit engine: synchronous security probe,
// fire-and-forget background audit, lazy suggestion enrichment.
package app

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sitelens/sitelens/internal/browser"
	"github.com/sitelens/sitelens/internal/lighthouse"
	"github.com/sitelens/sitelens/internal/logging"
	"github.com/sitelens/sitelens/internal/model"
	"github.com/sitelens/sitelens/internal/seo"
	"github.com/sitelens/sitelens/internal/store"
	"github.com/sitelens/sitelens/internal/suggest"
)

// Prober is the synchronous security check consumed by Submit.
type Prober interface {
	Probe(ctx context.Context, target string) *model.SecurityReport
}

// AccessibilityRunner evaluates rule violations against a loaded page.
type AccessibilityRunner interface {
	Evaluate(ctx context.Context, sess browser.Session, target string) ([]model.AccessibilityViolation, error)
}

var schemeRe = regexp.MustCompile(`(?i)^https?://`)

// NormalizeURL trims the input and defaults the scheme to https.
func NormalizeURL(raw string) string {
	target := strings.TrimSpace(raw)
	if !schemeRe.MatchString(target) {
		target = "https://" + target
	}
	return target
}

// Orchestrator is the public entry point of the audit engine.
type Orchestrator struct {
	store     store.ScanStore
	prober    Prober
	sessions  browser.Manager
	analyzer  lighthouse.Analyzer
	axe       AccessibilityRunner
	seo       seo.Auditor
	suggester suggest.Generator
	logger    logging.Logger

	eventsMu sync.Mutex
	events   map[string]chan ScanEvent

	enrichMu    sync.Mutex
	enrichLocks map[string]*sync.Mutex
}

// NewOrchestrator wires the components together. All collaborators are
// injected; nothing is reached through ambient globals.
func NewOrchestrator(
	scanStore store.ScanStore,
	prober Prober,
	sessions browser.Manager,
	analyzer lighthouse.Analyzer,
	axeRunner AccessibilityRunner,
	seoAuditor seo.Auditor,
	suggester suggest.Generator,
	logger logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:       scanStore,
		prober:      prober,
		sessions:    sessions,
		analyzer:    analyzer,
		axe:         axeRunner,
		seo:         seoAuditor,
		suggester:   suggester,
		logger:      logger,
		events:      make(map[string]chan ScanEvent),
		enrichLocks: make(map[string]*sync.Mutex),
	}
}

// Submit validates and normalizes the URL, runs the security probe
// synchronously, stores the initial running record and kicks off the
// background audit. It returns before the audit completes.
func (o *Orchestrator) Submit(ctx context.Context, rawURL string) (model.ScanRecord, error) {
	if strings.TrimSpace(rawURL) == "" {
		return model.ScanRecord{}, &model.ValidationError{Field: "url", Reason: "must not be empty"}
	}
	target := NormalizeURL(rawURL)

	scanID := uuid.New().String()
	rec := model.ScanRecord{
		ScanID:      scanID,
		URL:         target,
		Status:      model.StatusRunning,
		Security:    o.prober.Probe(ctx, target),
		SubmittedAt: time.Now().UTC(),
	}
	if err := o.store.Create(rec); err != nil {
		return model.ScanRecord{}, err
	}

	o.openEvents(scanID)
	o.emitEvent(scanID, ScanEvent{ScanID: scanID, Type: ScanEventStatus, Status: model.StatusRunning})

	o.logger.Info("scan submitted",
		logging.Field{Key: "scan_id", Value: scanID},
		logging.Field{Key: "url", Value: target})

	go o.runAudit(scanID, target)

	return rec, nil
}

// Fetch returns the current record. On the first read of a completed record
// it runs the suggestion enrichment inline, exactly once.
func (o *Orchestrator) Fetch(ctx context.Context, scanID string) (model.ScanRecord, error) {
	rec, err := o.store.Get(scanID)
	if err != nil {
		return model.ScanRecord{}, err
	}
	if rec.Status != model.StatusCompleted || rec.AIEnhanced {
		return rec, nil
	}

	mu := o.enrichLock(scanID)
	mu.Lock()
	defer mu.Unlock()

	// Re-check under the lock: a concurrent Fetch may have enriched while
	// we waited.
	rec, err = o.store.Get(scanID)
	if err != nil {
		return model.ScanRecord{}, err
	}
	if rec.Status != model.StatusCompleted || rec.AIEnhanced {
		return rec, nil
	}
	// Enrichment is a one-shot record mutation; a reader hanging up must not
	// commit fallback text for everyone after it.
	return o.enrich(context.WithoutCancel(ctx), rec)
}

func (o *Orchestrator) enrichLock(scanID string) *sync.Mutex {
	o.enrichMu.Lock()
	defer o.enrichMu.Unlock()
	mu, ok := o.enrichLocks[scanID]
	if !ok {
		mu = &sync.Mutex{}
		o.enrichLocks[scanID] = mu
	}
	return mu
}
