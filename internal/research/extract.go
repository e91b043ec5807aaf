package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/joelkehle/intelbrief/internal/observability"
)

// maxExtractionCalls bounds completion calls per run, repair included.
const maxExtractionCalls = 2

// ExtractorConfig configures the completion calls made by an Extractor.
type ExtractorConfig struct {
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	RetryDelay time.Duration
}

func (c ExtractorConfig) withDefaults() ExtractorConfig {
	if c.Model == "" {
		c.Model = DefaultLLMModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 8192
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	return c
}

// Extractor turns a snippet set into a validated Draft with at most two
// completion calls.
type Extractor struct {
	llm Completer
	cfg ExtractorConfig
	log *zap.Logger
}

// NewExtractor returns an Extractor. A nil log discards output.
func NewExtractor(llm Completer, cfg ExtractorConfig, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{llm: llm, cfg: cfg.withDefaults(), log: log}
}

// ModelName is the model recorded on generated briefs.
func (e *Extractor) ModelName() string { return e.cfg.Model }

// Extract turns the snippet set into a schema-valid Draft. The first answer
// is normalized and validated; any failure, short use-case lists included,
// earns exactly one repair call. Only the repair answer may be padded with
// synthetic use cases.
func (e *Extractor) Extract(ctx context.Context, in CompanyInput, set SnippetSet) (Draft, ExtractMetrics, error) {
	metrics := ExtractMetrics{}
	site, err := ParseWebsite(in.Website)
	if err != nil {
		return Draft{}, metrics, err
	}
	website := site.String()
	known := make(map[string]bool, len(set.Citations))
	for _, u := range set.Citations {
		known[u] = true
	}
	normOpts := NormalizeOptions{KnownURLs: known, CompanyName: in.Name, Website: website}
	opts := CompletionOptions{Model: e.cfg.Model, MaxTokens: e.cfg.MaxTokens, Timeout: e.cfg.Timeout}

	original := BuildExtractionPrompt(in, website, set)
	prompt := original
	purpose := "initial"
	var (
		previous map[string]any
		lastErrs []FieldError
	)

	for call := 1; call <= maxExtractionCalls; call++ {
		metrics.Calls = call
		observability.LLMCalls.WithLabelValues(purpose).Inc()
		start := time.Now()
		raw, err := e.llm.CompleteJSON(ctx, extractionSystemPrompt, prompt, opts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Draft{}, metrics, ctxErr
			}
			if isProviderError(err) {
				e.log.Warn("extraction call failed",
					zap.Int("call", call),
					zap.String("purpose", purpose),
					zap.Duration("elapsed", time.Since(start)),
					zap.Error(err))
				if call < maxExtractionCalls && previous == nil && IsRetryable(err) {
					metrics.TransportRetried = true
					if err := sleepCtx(ctx, e.cfg.RetryDelay); err != nil {
						return Draft{}, metrics, err
					}
					purpose = "retry"
					continue
				}
				if previous != nil {
					return e.fallback(previous, normOpts, call, &metrics)
				}
				return Draft{}, metrics, err
			}
			// Unparseable content is a validation failure like any other.
			lastErrs = []FieldError{{Field: "(root)", Message: err.Error()}}
			prompt = BuildRepairPrompt(original, nil, lastErrs)
			purpose = "repair"
			metrics.Repaired = true
			continue
		}

		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
			lastErrs = []FieldError{{Field: "(root)", Message: "response is not a JSON object"}}
			prompt = BuildRepairPrompt(original, nil, lastErrs)
			purpose = "repair"
			metrics.Repaired = true
			continue
		}

		normOpts.PadUseCases = call == maxExtractionCalls
		normalized, report := Normalize(doc, normOpts)
		res := ValidateDraft(normalized)
		if res.Valid() {
			draft, err := decodeDraft(normalized)
			if err != nil {
				return Draft{}, metrics, err
			}
			applyReport(&metrics, report)
			e.log.Info("extraction succeeded",
				zap.Int("call", call),
				zap.Duration("elapsed", time.Since(start)),
				zap.Int("padded_use_cases", report.PaddedUseCases),
				zap.Int("truncated_use_cases", report.TruncatedUseCases),
				zap.Int("dropped_citations", report.DroppedCitations))
			return draft, metrics, nil
		}

		e.log.Warn("extraction failed validation",
			zap.Int("call", call),
			zap.Int("errors", len(res.Errors)),
			zap.String("first_error", res.Errors[0].String()))
		previous = doc
		lastErrs = res.Errors
		prior, _ := json.Marshal(normalized)
		prompt = BuildRepairPrompt(original, prior, res.Errors)
		purpose = "repair"
		metrics.Repaired = true
	}
	return Draft{}, metrics, &SchemaValidationError{Attempts: metrics.Calls, Errors: lastErrs}
}

// fallback salvages the first answer when the repair call never arrived.
func (e *Extractor) fallback(previous map[string]any, opts NormalizeOptions, calls int, metrics *ExtractMetrics) (Draft, ExtractMetrics, error) {
	opts.PadUseCases = true
	normalized, report := Normalize(previous, opts)
	res := ValidateDraft(normalized)
	if !res.Valid() {
		return Draft{}, *metrics, &SchemaValidationError{Attempts: calls, Errors: res.Errors}
	}
	draft, err := decodeDraft(normalized)
	if err != nil {
		return Draft{}, *metrics, err
	}
	applyReport(metrics, report)
	e.log.Warn("repair call unavailable, using padded first answer", zap.Int("padded_use_cases", report.PaddedUseCases))
	return draft, *metrics, nil
}

func applyReport(m *ExtractMetrics, r NormalizeReport) {
	m.TruncatedUseCases = r.TruncatedUseCases
	m.PaddedUseCases = r.PaddedUseCases
	m.DroppedCitations = r.DroppedCitations
}

func decodeDraft(doc map[string]any) (Draft, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return Draft{}, fmt.Errorf("encode draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	if d.Competitors == nil {
		d.Competitors = []Competitor{}
	}
	return d, nil
}

func isProviderError(err error) bool {
	var te *ProviderTimeoutError
	var he *ProviderHTTPError
	return errors.As(err, &te) || errors.As(err, &he)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
