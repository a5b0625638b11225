// Package seo runs the independent on-page SEO checks. The Lighthouse SEO
// category score comes from the analyzer; these checks look at the served
// markup itself.
package seo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/sitelens/sitelens/internal/logging"
	"github.com/sitelens/sitelens/internal/model"
)

const (
	maxTitleLength = 60
	minTitleLength = 10
)

// Auditor produces the on-page check list for a target URL.
type Auditor interface {
	Audit(ctx context.Context, target string) ([]model.SEOCheck, error)
}

// PageAuditor fetches the page over plain HTTP and inspects the markup.
type PageAuditor struct {
	client  *http.Client
	timeout time.Duration
	logger  logging.Logger
}

// NewPageAuditor builds a PageAuditor. A nil httpClient gets a default.
func NewPageAuditor(cfg Config, httpClient *http.Client, logger logging.Logger) *PageAuditor {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &PageAuditor{
		client:  httpClient,
		timeout: cfg.FetchTimeout,
		logger:  logger.With(logging.Field{Key: "component", Value: "seo"}),
	}
}

func (a *PageAuditor) Audit(ctx context.Context, target string) ([]model.SEOCheck, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return Inspect(doc), nil
}

// Inspect runs every check against a parsed document.
func Inspect(doc *goquery.Document) []model.SEOCheck {
	return []model.SEOCheck{
		checkTitle(doc),
		checkMetaDescription(doc),
		checkH1(doc),
		checkImageAlts(doc),
		checkCanonical(doc),
		checkViewport(doc),
	}
}

func checkTitle(doc *goquery.Document) model.SEOCheck {
	title := strings.TrimSpace(doc.Find("head title").First().Text())
	check := model.SEOCheck{ID: "title"}
	length := utf8.RuneCountInString(title)
	switch {
	case title == "":
		check.Detail = "Page has no <title>. Every page needs a unique, descriptive title."
	case length < minTitleLength:
		check.Detail = fmt.Sprintf("Title is only %d characters. Short titles waste ranking signal.", length)
	case length > maxTitleLength:
		check.Detail = fmt.Sprintf("Title is %d characters and will be truncated in results. Keep it under %d.", length, maxTitleLength)
	default:
		check.Passed = true
		check.Detail = "Title present with a reasonable length."
	}
	return check
}

func checkMetaDescription(doc *goquery.Document) model.SEOCheck {
	desc, _ := doc.Find(`head meta[name="description"]`).First().Attr("content")
	check := model.SEOCheck{ID: "meta-description"}
	if strings.TrimSpace(desc) == "" {
		check.Detail = "No meta description. Search engines will improvise a snippet."
	} else {
		check.Passed = true
		check.Detail = "Meta description present."
	}
	return check
}

func checkH1(doc *goquery.Document) model.SEOCheck {
	count := doc.Find("h1").Length()
	check := model.SEOCheck{ID: "single-h1"}
	switch count {
	case 0:
		check.Detail = "Page has no <h1> heading."
	case 1:
		check.Passed = true
		check.Detail = "Exactly one <h1> heading."
	default:
		check.Detail = fmt.Sprintf("Page has %d <h1> headings; use one per page.", count)
	}
	return check
}

func checkImageAlts(doc *goquery.Document) model.SEOCheck {
	total := 0
	missing := 0
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		total++
		if alt, ok := s.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
			missing++
		}
	})
	check := model.SEOCheck{ID: "img-alt"}
	if missing == 0 {
		check.Passed = true
		if total == 0 {
			check.Detail = "No images on the page."
		} else {
			check.Detail = fmt.Sprintf("All %d images carry alt text.", total)
		}
	} else {
		check.Detail = fmt.Sprintf("%d of %d images are missing alt text.", missing, total)
	}
	return check
}

func checkCanonical(doc *goquery.Document) model.SEOCheck {
	href, _ := doc.Find(`head link[rel="canonical"]`).First().Attr("href")
	check := model.SEOCheck{ID: "canonical"}
	if strings.TrimSpace(href) == "" {
		check.Detail = "No canonical link; duplicate URLs may split ranking."
	} else {
		check.Passed = true
		check.Detail = "Canonical link present."
	}
	return check
}

func checkViewport(doc *goquery.Document) model.SEOCheck {
	content, _ := doc.Find(`head meta[name="viewport"]`).First().Attr("content")
	check := model.SEOCheck{ID: "viewport"}
	if strings.TrimSpace(content) == "" {
		check.Detail = "No viewport meta tag; the page is not mobile friendly."
	} else {
		check.Passed = true
		check.Detail = "Viewport meta tag present."
	}
	return check
}
