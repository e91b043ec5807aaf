package research

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipelineFixture struct {
	web     *fakeSearcher
	llm     *fakeCompleter
	fetcher *fakeFetcher
}

func newPipelineFixture() *pipelineFixture {
	competitorResults := []Snippet{
		{Title: "Leipzig Freight GmbH", URL: "https://leipzig-freight.de/", Content: "Spedition und Logistik aus Leipzig."},
		{Title: "Sachsen Spedition", URL: "https://sachsen-spedition.de/", Content: "Spedition und Lager in Leipzig."},
		{Title: "Hamburg Cargo", URL: "https://hamburg-cargo.de/", Content: "Freight and logistik across Germany."},
	}
	fetcher := &fakeFetcher{pages: map[string]Page{}}
	for _, s := range competitorResults {
		fetcher.pages[s.URL] = Page{Title: s.Title, Description: s.Content, Text: s.Content}
		fetcher.pages[s.URL+"about"] = Page{Title: s.Title, Text: s.Content}
	}
	return &pipelineFixture{
		web: &fakeSearcher{fn: func(q string) ([]Snippet, error) {
			if strings.Contains(q, "-site:") {
				return competitorResults, nil
			}
			return testSnippetSet().Snippets, nil
		}},
		llm:     &fakeCompleter{responses: []string{mustJSON(draftDoc(5))}},
		fetcher: fetcher,
	}
}

func (f *pipelineFixture) pipeline(withDiscovery bool) *Pipeline {
	retriever := NewRetriever(f.web, nil, RetrieverConfig{Retry: fastRetry()}, nil)
	extractor := NewExtractor(f.llm, ExtractorConfig{Model: "test-model", RetryDelay: time.Millisecond}, nil)
	var discoverer *Discoverer
	if withDiscovery {
		discoverer = NewDiscoverer(f.web, f.fetcher, DiscoveryConfig{Retry: fastRetry()}, nil)
	}
	return NewPipeline(retriever, extractor, discoverer, PipelineConfig{Deadline: 10 * time.Second}, nil)
}

func TestPipelineRunProducesValidBrief(t *testing.T) {
	f := newPipelineFixture()
	var stages []string
	res, err := f.pipeline(true).RunWithProgress(context.Background(), testInput(), func(stage, _ string) {
		stages = append(stages, stage)
	})
	require.NoError(t, err)

	want := []string{StageQueries, StageRetrieve, StageExtract, StageCompetitors, StageRollup, StageAssemble}
	assert.Equal(t, want, stages)
	assert.Equal(t, want, res.Metadata.StagesExecuted)

	b := res.Brief
	assert.True(t, ValidateBrief(b).Valid())
	assert.Len(t, b.UseCases, UseCaseCount)
	assert.Len(t, b.Competitors, 3)
	assert.Equal(t, GeoCity, b.Competitors[0].GeoFit)
	assert.Equal(t, "test-model", b.Model)
	assert.Equal(t, b.Citations, res.Citations)
	assert.LessOrEqual(t, b.ROI.OverallROIPct, 250.0)
	assert.Equal(t, ComputeROI(b.UseCases), b.ROI)

	assert.Equal(t, 1, res.Metadata.Extraction.Calls)
	assert.Equal(t, 3, res.Metadata.Discovery.Accepted)
	assert.False(t, res.Metadata.CompletedAt.Before(res.Metadata.StartedAt))
}

func TestPipelineWithoutDiscovery(t *testing.T) {
	f := newPipelineFixture()
	res, err := f.pipeline(false).Run(context.Background(), testInput())
	require.NoError(t, err)
	assert.Empty(t, res.Brief.Competitors)
	assert.True(t, res.Metadata.Discovery.Skipped)
	assert.Equal(t, ConfidenceLow, res.Brief.Confidence.Competitors)
}

func TestPipelineNoEvidenceReturnsNoBrief(t *testing.T) {
	f := newPipelineFixture()
	f.web.fn = func(string) ([]Snippet, error) {
		return nil, &ProviderHTTPError{Provider: "web", Status: 503}
	}
	res, err := f.pipeline(true).Run(context.Background(), testInput())
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrNoEvidence))
	assert.Equal(t, StageRetrieve, StageNameFromError(err))
	assert.Equal(t, CodeNoEvidence, ErrorCode(err))
	assert.Empty(t, res.Citations)
	assert.Empty(t, res.Brief.UseCases)
	assert.Zero(t, f.llm.callCount())
}

func TestPipelineInvalidInput(t *testing.T) {
	f := newPipelineFixture()
	_, err := f.pipeline(true).Run(context.Background(), CompanyInput{Name: "ACME"})

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageQueries, se.Stage)
	assert.Equal(t, CodeInvalidInput, ErrorCode(err))
	assert.Empty(t, f.web.seen())
}

func TestPipelineExtractionFailure(t *testing.T) {
	f := newPipelineFixture()
	f.llm.responses = []string{"{}", "{}"}
	res, err := f.pipeline(true).Run(context.Background(), testInput())

	assert.Equal(t, StageExtract, StageNameFromError(err))
	assert.Equal(t, CodeSchemaValidation, ErrorCode(err))
	assert.Equal(t, []string{StageQueries, StageRetrieve}, res.Metadata.StagesExecuted)
	assert.Equal(t, 2, f.llm.callCount())
}

func TestPipelineCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := newPipelineFixture()
	_, err := f.pipeline(true).Run(ctx, testInput())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, CodeCanceled, ErrorCode(err))
}

func TestPipelineValidateConfig(t *testing.T) {
	assert.Error(t, (&Pipeline{}).ValidateConfig())
	assert.NoError(t, newPipelineFixture().pipeline(false).ValidateConfig())
}
