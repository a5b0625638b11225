// Package security implements the synchronous HTTP posture check that runs
// inside the submission path.
package security

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sitelens/sitelens/internal/logging"
	"github.com/sitelens/sitelens/internal/model"
)

// requiredHeaders is the checklist, in reporting order.
var requiredHeaders = []string{
	"strict-transport-security",
	"x-frame-options",
	"x-content-type-options",
	"content-security-policy",
	"referrer-policy",
	"permissions-policy",
}

// headerExplanations are the static per-header notes attached to missing
// checklist entries.
var headerExplanations = map[string]string{
	"strict-transport-security": "Forces browsers to use HTTPS only, protecting users from insecure connections.",
	"x-frame-options":           "Prevents your site from being embedded in other sites, stopping clickjacking attacks.",
	"x-content-type-options":    "Prevents browsers from misinterpreting files, reducing certain attacks.",
	"content-security-policy":   "Controls what content is allowed (scripts, images, etc.) to block XSS attacks.",
	"referrer-policy":           "Controls what information is sent when users click external links (privacy protection).",
	"permissions-policy":        "Restricts access to features like camera, microphone, or location for better security.",
}

// Textual heuristic, not a parsed-DOM check. http:// subresource references
// inside an https page count as mixed content.
var (
	mixedSrcRe  = regexp.MustCompile(`(?i)src=["']http://`)
	mixedHrefRe = regexp.MustCompile(`(?i)href=["']http://`)
)

const maxBodyBytes = 5 << 20

// Prober performs the fast security check. Every step degrades its own
// field on network failure; Probe itself never fails.
type Prober struct {
	client  *http.Client
	timeout time.Duration
	logger  logging.Logger
}

// NewProber builds a Prober. A nil httpClient gets a default client; the
// per-fetch timeout comes from cfg.
func NewProber(cfg Config, httpClient *http.Client, logger logging.Logger) *Prober {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Prober{
		client:  httpClient,
		timeout: cfg.FetchTimeout,
		logger:  logger.With(logging.Field{Key: "component", Value: "security"}),
	}
}

// Probe fetches the target and reports HTTPS use, reachability, missing
// security headers and the mixed-content heuristic.
func (p *Prober) Probe(ctx context.Context, target string) *model.SecurityReport {
	report := &model.SecurityReport{
		URL:   target,
		HTTPS: strings.HasPrefix(strings.ToLower(target), "https://"),
	}

	headers, _, err := p.fetch(ctx, target, false)
	if err != nil {
		p.logger.Warn("header fetch failed",
			logging.Field{Key: "url", Value: target},
			logging.Field{Key: "error", Value: err.Error()})
	}

	detected := make([]string, 0, len(headers))
	for name := range headers {
		detected = append(detected, strings.ToLower(name))
	}
	sort.Strings(detected)
	report.DetectedHeaders = detected
	report.Reachable = len(detected) > 0

	detectedSet := make(map[string]struct{}, len(detected))
	for _, h := range detected {
		detectedSet[h] = struct{}{}
	}
	report.MissingHeaders = make([]string, 0, len(requiredHeaders))
	report.MissingHeadersExplanation = make(map[string]string)
	for _, h := range requiredHeaders {
		if _, ok := detectedSet[h]; !ok {
			report.MissingHeaders = append(report.MissingHeaders, h)
			report.MissingHeadersExplanation[h] = headerExplanations[h]
		}
	}

	if report.HTTPS {
		_, body, err := p.fetch(ctx, target, true)
		if err != nil {
			p.logger.Warn("body fetch for mixed-content check failed",
				logging.Field{Key: "url", Value: target},
				logging.Field{Key: "error", Value: err.Error()})
		} else if mixedSrcRe.Match(body) || mixedHrefRe.Match(body) {
			report.MixedContent = true
		}
	}

	return report
}

func (p *Prober) fetch(ctx context.Context, target string, readBody bool) (http.Header, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	var body []byte
	if readBody {
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return resp.Header, nil, err
		}
	}
	return resp.Header, body, nil
}
