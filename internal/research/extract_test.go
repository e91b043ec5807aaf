package research

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(llm Completer) *Extractor {
	return NewExtractor(llm, ExtractorConfig{RetryDelay: time.Millisecond}, nil)
}

func TestExtractHappyPathSingleCall(t *testing.T) {
	llm := &fakeCompleter{responses: []string{mustJSON(draftDoc(5))}}
	draft, metrics, err := newTestExtractor(llm).Extract(context.Background(), testInput(), testSnippetSet())
	require.NoError(t, err)

	assert.Equal(t, 1, llm.callCount())
	assert.Equal(t, 1, metrics.Calls)
	assert.False(t, metrics.Repaired)
	assert.Len(t, draft.UseCases, UseCaseCount)
	assert.Empty(t, draft.Competitors)
	assert.Equal(t, "Leipzig", draft.Company.Headquarters.City)
	for _, uc := range draft.UseCases {
		assert.False(t, uc.Synthetic)
	}
}

func TestExtractTruncatesLongUseCaseListUnmodified(t *testing.T) {
	llm := &fakeCompleter{responses: []string{mustJSON(draftDoc(7))}}
	draft, metrics, err := newTestExtractor(llm).Extract(context.Background(), testInput(), testSnippetSet())
	require.NoError(t, err)

	require.Len(t, draft.UseCases, UseCaseCount)
	assert.Equal(t, 2, metrics.TruncatedUseCases)
	assert.Equal(t, 1, llm.callCount())
	for i, uc := range draft.UseCases {
		n := float64(i + 1)
		assert.Equal(t, 100000*n, uc.EstAnnualBenefit)
		assert.Equal(t, 40000.0, uc.EstOneTimeCost)
		assert.Equal(t, 10000.0, uc.EstOngoingCost)
		assert.Equal(t, 6+n, uc.PaybackMonths)
	}
}

func TestExtractShortUseCaseListRepairsThenPads(t *testing.T) {
	short := mustJSON(draftDoc(3))
	llm := &fakeCompleter{responses: []string{short, short}}
	draft, metrics, err := newTestExtractor(llm).Extract(context.Background(), testInput(), testSnippetSet())
	require.NoError(t, err)

	assert.Equal(t, 2, llm.callCount())
	assert.True(t, metrics.Repaired)
	assert.Equal(t, 2, metrics.PaddedUseCases)
	require.Len(t, draft.UseCases, UseCaseCount)
	for i, uc := range draft.UseCases {
		if i < 3 {
			assert.False(t, uc.Synthetic)
			continue
		}
		assert.True(t, uc.Synthetic)
		assert.Zero(t, uc.EstAnnualBenefit)
		assert.Zero(t, uc.EstOneTimeCost)
		assert.Zero(t, uc.EstOngoingCost)
		assert.Zero(t, uc.PaybackMonths)
	}
	assert.True(t, containsAll(llm.prompts[1], "failed validation", "use_cases"))
}

func TestExtractRepairSucceeds(t *testing.T) {
	llm := &fakeCompleter{responses: []string{"not json at all", mustJSON(draftDoc(5))}}
	draft, metrics, err := newTestExtractor(llm).Extract(context.Background(), testInput(), testSnippetSet())
	require.NoError(t, err)

	assert.Equal(t, 2, metrics.Calls)
	assert.True(t, metrics.Repaired)
	assert.Zero(t, metrics.PaddedUseCases)
	assert.Len(t, draft.UseCases, UseCaseCount)
	assert.Contains(t, llm.prompts[1], "not a valid JSON object")
}

func TestExtractNeverExceedsTwoCalls(t *testing.T) {
	bad := draftDoc(5)
	bad["strategic_moves"] = []any{}
	llm := &fakeCompleter{responses: []string{mustJSON(bad), mustJSON(bad), mustJSON(bad)}}
	_, metrics, err := newTestExtractor(llm).Extract(context.Background(), testInput(), testSnippetSet())

	var sv *SchemaValidationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, 2, sv.Attempts)
	assert.Equal(t, 2, llm.callCount())
	assert.Equal(t, 2, metrics.Calls)
	assert.NotEmpty(t, sv.Errors)
	assert.Equal(t, CodeSchemaValidation, ErrorCode(err))
}

func TestExtractRetriesTransientTransportFailureOnce(t *testing.T) {
	llm := &fakeCompleter{
		errs:      []error{&ProviderHTTPError{Provider: "anthropic", Status: 529}},
		responses: []string{"", mustJSON(draftDoc(5))},
	}
	draft, metrics, err := newTestExtractor(llm).Extract(context.Background(), testInput(), testSnippetSet())
	require.NoError(t, err)

	assert.True(t, metrics.TransportRetried)
	assert.False(t, metrics.Repaired)
	assert.Equal(t, 2, llm.callCount())
	assert.Equal(t, llm.prompts[0], llm.prompts[1])
	assert.Len(t, draft.UseCases, UseCaseCount)
}

func TestExtractNonRetryableProviderErrorFailsFast(t *testing.T) {
	llm := &fakeCompleter{errs: []error{&ProviderHTTPError{Provider: "anthropic", Status: 401}}}
	_, _, err := newTestExtractor(llm).Extract(context.Background(), testInput(), testSnippetSet())

	var he *ProviderHTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, 1, llm.callCount())
	assert.Equal(t, CodeProviderUnavailable, ErrorCode(err))
}

func TestExtractFallsBackToPaddedFirstAnswer(t *testing.T) {
	llm := &fakeCompleter{
		responses: []string{mustJSON(draftDoc(4))},
		errs:      []error{nil, &ProviderTimeoutError{Provider: "anthropic", Err: context.DeadlineExceeded}},
	}
	draft, metrics, err := newTestExtractor(llm).Extract(context.Background(), testInput(), testSnippetSet())
	require.NoError(t, err)

	assert.Equal(t, 2, llm.callCount())
	assert.Equal(t, 1, metrics.PaddedUseCases)
	require.Len(t, draft.UseCases, UseCaseCount)
	assert.True(t, draft.UseCases[4].Synthetic)
}

func TestExtractDropsCitationsOutsideSnippetSet(t *testing.T) {
	doc := draftDoc(5)
	company := doc["company"].(map[string]any)
	company["citations"] = []any{testSources[0], "https://invented.example.com/page"}
	llm := &fakeCompleter{responses: []string{mustJSON(doc)}}

	draft, metrics, err := newTestExtractor(llm).Extract(context.Background(), testInput(), testSnippetSet())
	require.NoError(t, err)
	assert.Equal(t, []string{testSources[0]}, draft.Company.Citations)
	assert.Equal(t, 1, metrics.DroppedCitations)
}

func TestExtractForcesCompetitorsEmpty(t *testing.T) {
	doc := draftDoc(5)
	doc["competitors"] = []any{map[string]any{"name": "Invented Rival GmbH"}}
	llm := &fakeCompleter{responses: []string{mustJSON(doc)}}

	draft, _, err := newTestExtractor(llm).Extract(context.Background(), testInput(), testSnippetSet())
	require.NoError(t, err)
	assert.Empty(t, draft.Competitors)
}

func TestExtractCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	llm := &fakeCompleter{errs: []error{context.Canceled}}
	_, _, err := newTestExtractor(llm).Extract(ctx, testInput(), testSnippetSet())
	require.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, CodeCanceled, ErrorCode(err))
}
