package research

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/joelkehle/intelbrief/internal/observability"
)

// StageProgressFn receives a human-readable message as each stage starts.
type StageProgressFn func(stage, message string)

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	// Deadline bounds a whole run. Zero means no pipeline-level deadline.
	Deadline time.Duration
}

// Pipeline runs the research stages for one company per call. It holds no
// per-run state and is safe for concurrent use.
type Pipeline struct {
	retriever  *Retriever
	extractor  *Extractor
	discoverer *Discoverer
	cfg        PipelineConfig
	log        *zap.Logger
	now        func() time.Time
}

// NewPipeline wires the stages. discoverer may be nil, in which case briefs
// carry no competitors.
func NewPipeline(retriever *Retriever, extractor *Extractor, discoverer *Discoverer, cfg PipelineConfig, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{retriever: retriever, extractor: extractor, discoverer: discoverer, cfg: cfg, log: log, now: time.Now}
}

// ValidateConfig reports missing required stages.
func (p *Pipeline) ValidateConfig() error {
	if p.retriever == nil {
		return errors.New("retriever is required")
	}
	if p.extractor == nil {
		return errors.New("extractor is required")
	}
	return nil
}

// Run is RunWithProgress without a progress callback.
func (p *Pipeline) Run(ctx context.Context, in CompanyInput) (Result, error) {
	return p.RunWithProgress(ctx, in, nil)
}

// RunWithProgress executes queries, retrieval, extraction, competitor
// discovery, rollup and assembly in order. Any stage error aborts the run;
// no partial brief is returned.
func (p *Pipeline) RunWithProgress(ctx context.Context, in CompanyInput, progress StageProgressFn) (res Result, err error) {
	observability.PipelineActive.Inc()
	defer observability.PipelineActive.Dec()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = ErrorCode(err)
		}
		observability.PipelineRuns.WithLabelValues(outcome).Inc()
	}()

	if p.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Deadline)
		defer cancel()
	}
	ctx, span := observability.Tracer().Start(ctx, "research.pipeline")
	defer span.End()
	span.SetAttributes(attribute.String("company.name", in.Name), attribute.String("company.website", in.Website))

	log := p.log.With(zap.String("company", in.Name), zap.String("website", in.Website))
	res.Metadata = PipelineMetadata{StartedAt: p.now(), Model: p.extractor.ModelName()}
	defer func() {
		res.Metadata.CompletedAt = p.now()
		res.Metadata.DurationMS = res.Metadata.CompletedAt.Sub(res.Metadata.StartedAt).Milliseconds()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, ErrorCode(err))
			log.Error("research pipeline failed",
				zap.String("stage", StageNameFromError(err)),
				zap.String("code", ErrorCode(err)),
				zap.Int64("duration_ms", res.Metadata.DurationMS),
				zap.Error(err))
			return
		}
		log.Info("research pipeline finished",
			zap.Int64("duration_ms", res.Metadata.DurationMS),
			zap.Int("citations", len(res.Citations)),
			zap.Int("competitors", len(res.Brief.Competitors)))
	}()

	var queries []ResearchQuery
	if err = p.stage(ctx, &res, log, progress, StageQueries, "Building research queries...", func(ctx context.Context) error {
		q, err := BuildQueries(in)
		queries = q
		res.Metadata.Queries = len(q)
		return err
	}); err != nil {
		return res, err
	}
	site, _ := ParseWebsite(in.Website)
	targetDomain := RegistrableDomain(site.String())

	var snippets SnippetSet
	if err = p.stage(ctx, &res, log, progress, StageRetrieve, "Searching the web for evidence...", func(ctx context.Context) error {
		set, stats, err := p.retriever.Gather(ctx, targetDomain, queries)
		snippets = set
		res.Metadata.Retrieval = stats
		return err
	}); err != nil {
		return res, err
	}

	var draft Draft
	if err = p.stage(ctx, &res, log, progress, StageExtract, "Extracting structured facts...", func(ctx context.Context) error {
		d, metrics, err := p.extractor.Extract(ctx, in, snippets)
		draft = d
		res.Metadata.Extraction = metrics
		return err
	}); err != nil {
		return res, err
	}

	competitors := []Competitor{}
	if err = p.stage(ctx, &res, log, progress, StageCompetitors, "Discovering competitors...", func(ctx context.Context) error {
		if p.discoverer == nil {
			res.Metadata.Discovery = DiscoveryStats{Skipped: true, SkipReason: "discovery disabled"}
			return nil
		}
		found, stats, err := p.discoverer.Discover(ctx, NewTargetProfile(in, draft))
		competitors = found
		res.Metadata.Discovery = stats
		return err
	}); err != nil {
		return res, err
	}

	var rollup ROIRollup
	if err = p.stage(ctx, &res, log, progress, StageRollup, "Computing financial rollup...", func(ctx context.Context) error {
		rollup = ComputeROI(draft.UseCases)
		return nil
	}); err != nil {
		return res, err
	}

	if err = p.stage(ctx, &res, log, progress, StageAssemble, "Assembling brief...", func(ctx context.Context) error {
		b, err := Assemble(AssembleInput{
			Draft:       draft,
			Website:     site.String(),
			Competitors: competitors,
			Model:       p.extractor.ModelName(),
			GeneratedAt: p.now(),
		})
		if err != nil {
			return err
		}
		if b.ROI != rollup {
			return errors.New("rollup is not deterministic")
		}
		res.Brief = b
		res.Citations = b.Citations
		return nil
	}); err != nil {
		return res, err
	}
	return res, nil
}

func (p *Pipeline) stage(ctx context.Context, res *Result, log *zap.Logger, progress StageProgressFn, name, message string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: name, Err: err}
	}
	emit(progress, name, message)
	ctx, span := observability.Tracer().Start(ctx, "research."+name)
	defer span.End()

	start := time.Now()
	log.Debug("stage started", zap.String("stage", name))
	err := fn(ctx)
	elapsed := time.Since(start)
	observability.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &StageError{Stage: name, Err: err}
	}
	res.Metadata.StagesExecuted = append(res.Metadata.StagesExecuted, name)
	log.Info("stage finished", zap.String("stage", name), zap.Int64("duration_ms", elapsed.Milliseconds()))
	return nil
}

func emit(progress StageProgressFn, stage, message string) {
	if progress != nil {
		progress(stage, message)
	}
}
