package app

import (
	"context"

	"github.com/sitelens/sitelens/internal/logging"
	"github.com/sitelens/sitelens/internal/model"
	"github.com/sitelens/sitelens/internal/suggest"
)

// enrich generates advice for each populated section and commits the
// suggestions together with the AIEnhanced flip in one store write. The
// caller holds the per-scan enrich lock and has verified the gate.
func (o *Orchestrator) enrich(ctx context.Context, rec model.ScanRecord) (model.ScanRecord, error) {
	log := o.logger.With(logging.Field{Key: "scan_id", Value: rec.ScanID})

	var secSug, perfSug, seoSug, accSug string
	if rec.Security != nil {
		secSug = o.generateSuggestion(ctx, log, "Security", rec.Security)
	}
	if rec.Performance != nil {
		perfSug = o.generateSuggestion(ctx, log, "Performance", rec.Performance)
	}
	if rec.SEO != nil {
		seoSug = o.generateSuggestion(ctx, log, "SEO", rec.SEO)
	}
	if rec.Accessibility != nil {
		accSug = o.generateSuggestion(ctx, log, "Accessibility", rec.Accessibility)
	}

	updated, err := o.store.Update(rec.ScanID, func(r *model.ScanRecord) {
		if r.AIEnhanced {
			return
		}
		if r.Security != nil {
			r.Security.AISuggestion = secSug
		}
		if r.Performance != nil {
			r.Performance.AISuggestion = perfSug
		}
		if r.SEO != nil {
			r.SEO.AISuggestion = seoSug
		}
		if r.Accessibility != nil {
			r.Accessibility.AISuggestion = accSug
		}
		r.AIEnhanced = true
	})
	if err != nil {
		return model.ScanRecord{}, err
	}

	log.Info("scan enriched with suggestions")
	return updated, nil
}

// generateSuggestion calls the generator for one section. A failure yields
// the fixed fallback text instead of blocking the other sections.
func (o *Orchestrator) generateSuggestion(ctx context.Context, log logging.Logger, section string, findings any) string {
	text, err := o.suggester.Generate(ctx, section, findings)
	if err != nil {
		log.Warn("suggestion generation failed",
			logging.Field{Key: "section", Value: section},
			logging.Field{Key: "error", Value: err.Error()})
		return suggest.Fallback
	}
	return text
}
