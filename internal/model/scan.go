package model

import "time"

// Status is the lifecycle state of a scan. Transitions are monotonic:
// running -> completed or running -> error, never backwards.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Terminal reports whether no further sub-audit mutation can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// ScanRecord is the unit of work and the unit of storage: one end-to-end
// audit of a single URL, keyed by ScanID.
type ScanRecord struct {
	// ScanID is the unique identifier for this scan, generated at submission.
	ScanID string `json:"scanId"`

	// URL is the normalized target (scheme defaulted to https:// if absent).
	URL string `json:"url"`

	// Status indicates the current state of the scan.
	Status Status `json:"status"`

	// Security is written synchronously at submission by the prober.
	Security *SecurityReport `json:"security"`

	// Performance is written by the background runner, or nil while running.
	Performance *PerformanceReport `json:"performance"`

	// SEO is written by the background runner, or nil while running.
	SEO *SEOReport `json:"seo"`

	// Accessibility is written by the background runner, or nil while running.
	Accessibility *AccessibilityReport `json:"accessibility"`

	// AIEnhanced flips to true exactly once, when suggestions are attached.
	AIEnhanced bool `json:"aiEnhanced"`

	// Error is set only if the background job fails outside the per-section
	// boundaries. Section data written before the failure is preserved.
	Error string `json:"error,omitempty"`

	// SubmittedAt is when the scan was submitted.
	SubmittedAt time.Time `json:"submittedAt"`

	// CompletedAt is when the scan reached a terminal status.
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// SecurityReport is the synchronous HTTP posture check result.
type SecurityReport struct {
	URL       string `json:"url"`
	HTTPS     bool   `json:"https"`
	Reachable bool   `json:"reachable"`

	// DetectedHeaders are the lower-cased header names observed on the response.
	DetectedHeaders []string `json:"detectedHeaders"`

	// MissingHeaders are checklist entries absent from the response, in
	// checklist order.
	MissingHeaders []string `json:"missingHeaders"`

	// MissingHeadersExplanation maps each missing header to a static
	// human-readable explanation.
	MissingHeadersExplanation map[string]string `json:"missingHeadersExplanation"`

	// MixedContent is set when an https page references http:// subresources.
	MixedContent bool `json:"mixedContent"`

	Error        string `json:"error,omitempty"`
	AISuggestion string `json:"aiSuggestion,omitempty"`
}

// Metric is one named Lighthouse audit value with its static explanation.
type Metric struct {
	Value       string `json:"value"`
	Explanation string `json:"explanation"`
}

// PerformanceReport carries the Lighthouse performance category result.
type PerformanceReport struct {
	PerformanceScore int `json:"performanceScore"`

	// Audits maps Lighthouse audit ids (first-contentful-paint, speed-index,
	// interactive, total-blocking-time, largest-contentful-paint,
	// cumulative-layout-shift) to their values.
	Audits map[string]Metric `json:"audits,omitempty"`

	Error        string `json:"error,omitempty"`
	AISuggestion string `json:"aiSuggestion,omitempty"`
}

// SEOCheck is one on-page SEO heuristic result.
type SEOCheck struct {
	ID     string `json:"id"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// SEOReport combines the Lighthouse SEO category score with independent
// on-page checks.
type SEOReport struct {
	SEOScore int        `json:"seoScore"`
	Checks   []SEOCheck `json:"checks,omitempty"`

	Error        string `json:"error,omitempty"`
	AISuggestion string `json:"aiSuggestion,omitempty"`
}

// AccessibilityViolation is one axe-core rule violation. A failed sub-audit
// is represented as a single violation with only Error set.
type AccessibilityViolation struct {
	ID           string `json:"id,omitempty"`
	Impact       string `json:"impact,omitempty"`
	Description  string `json:"description,omitempty"`
	Help         string `json:"help,omitempty"`
	HelpURL      string `json:"helpUrl,omitempty"`
	FriendlyNote string `json:"friendlyNote,omitempty"`
	Error        string `json:"error,omitempty"`
}

// AccessibilityReport is the ordered violation list for a scan.
type AccessibilityReport struct {
	Violations []AccessibilityViolation `json:"violations"`

	AISuggestion string `json:"aiSuggestion,omitempty"`
}

// Clone returns a deep copy of the record. The store hands out and accepts
// clones so that no caller can mutate a stored record in place.
func (r ScanRecord) Clone() ScanRecord {
	out := r
	if r.Security != nil {
		sec := *r.Security
		sec.DetectedHeaders = append([]string(nil), r.Security.DetectedHeaders...)
		sec.MissingHeaders = append([]string(nil), r.Security.MissingHeaders...)
		if r.Security.MissingHeadersExplanation != nil {
			sec.MissingHeadersExplanation = make(map[string]string, len(r.Security.MissingHeadersExplanation))
			for k, v := range r.Security.MissingHeadersExplanation {
				sec.MissingHeadersExplanation[k] = v
			}
		}
		out.Security = &sec
	}
	if r.Performance != nil {
		perf := *r.Performance
		if r.Performance.Audits != nil {
			perf.Audits = make(map[string]Metric, len(r.Performance.Audits))
			for k, v := range r.Performance.Audits {
				perf.Audits[k] = v
			}
		}
		out.Performance = &perf
	}
	if r.SEO != nil {
		seo := *r.SEO
		seo.Checks = append([]SEOCheck(nil), r.SEO.Checks...)
		out.SEO = &seo
	}
	if r.Accessibility != nil {
		acc := *r.Accessibility
		acc.Violations = append([]AccessibilityViolation(nil), r.Accessibility.Violations...)
		out.Accessibility = &acc
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
