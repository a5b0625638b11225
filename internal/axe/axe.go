// Package axe runs the axe-core rule engine inside a page loaded in an
// acquired browser session.
package axe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/sitelens/sitelens/internal/browser"
	"github.com/sitelens/sitelens/internal/logging"
	"github.com/sitelens/sitelens/internal/model"
)

// ChromeRunner injects the axe-core script into a fresh tab and maps the
// resulting violations.
type ChromeRunner struct {
	cfg    Config
	logger logging.Logger

	sourceMu sync.Mutex
	source   string
}

// NewChromeRunner builds a ChromeRunner. The rule engine script is loaded
// lazily on first use, from cfg.ScriptPath if set, otherwise from the CDN.
func NewChromeRunner(cfg Config, logger logging.Logger) *ChromeRunner {
	return &ChromeRunner{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "axe"}),
	}
}

type axeViolation struct {
	ID          string  `json:"id"`
	Impact      *string `json:"impact"`
	Description string  `json:"description"`
	Help        string  `json:"help"`
	HelpURL     string  `json:"helpUrl"`
}

type axeResult struct {
	Violations []axeViolation `json:"violations"`
}

func (r *ChromeRunner) Evaluate(ctx context.Context, sess browser.Session, target string) ([]model.AccessibilityViolation, error) {
	src, err := r.scriptSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("load axe script: %w", err)
	}

	pageCtx, cancel, err := sess.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer cancel()

	runCtx, runCancel := context.WithTimeout(pageCtx, r.cfg.RunTimeout)
	defer runCancel()

	idle := browser.WaitNetworkIdle(runCtx, r.cfg.NetworkIdleAfter)
	if err := chromedp.Run(runCtx, chromedp.Navigate(target)); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", target, err)
	}
	select {
	case <-idle:
	case <-runCtx.Done():
		return nil, fmt.Errorf("waiting for network idle: %w", runCtx.Err())
	}

	var result axeResult
	err = chromedp.Run(runCtx,
		chromedp.Evaluate(src, nil),
		chromedp.Evaluate(`axe.run()`, &result, func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
			return p.WithAwaitPromise(true).WithReturnByValue(true)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("run axe: %w", err)
	}

	violations := make([]model.AccessibilityViolation, 0, len(result.Violations))
	for _, v := range result.Violations {
		impact := ""
		if v.Impact != nil {
			impact = *v.Impact
		}
		violations = append(violations, model.AccessibilityViolation{
			ID:           v.ID,
			Impact:       impact,
			Description:  v.Description,
			Help:         v.Help,
			HelpURL:      v.HelpURL,
			FriendlyNote: fmt.Sprintf("This affects accessibility: %s. %s", v.Description, v.Help),
		})
	}

	r.logger.Debug("axe evaluation finished",
		logging.Field{Key: "url", Value: target},
		logging.Field{Key: "violations", Value: len(violations)})
	return violations, nil
}

// scriptSource returns the axe-core source, caching it after the first load.
func (r *ChromeRunner) scriptSource(ctx context.Context) (string, error) {
	r.sourceMu.Lock()
	defer r.sourceMu.Unlock()
	if r.source != "" {
		return r.source, nil
	}

	if r.cfg.ScriptPath != "" {
		data, err := os.ReadFile(r.cfg.ScriptPath)
		if err != nil {
			return "", err
		}
		r.source = string(data)
		return r.source, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, r.cfg.ScriptURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", r.cfg.ScriptURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	r.source = string(data)
	r.logger.Info("fetched axe-core script", logging.Field{Key: "bytes", Value: len(data)})
	return r.source, nil
}
