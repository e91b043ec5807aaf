package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelkehle/intelbrief/internal/research"
	"github.com/joelkehle/intelbrief/internal/store"
)

type fakeGenerator struct {
	mu    sync.Mutex
	res   research.Result
	err   error
	panic bool
	got   []research.CompanyInput
}

func (g *fakeGenerator) Run(_ context.Context, in research.CompanyInput) (research.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.got = append(g.got, in)
	if g.panic {
		panic("boom")
	}
	return g.res, g.err
}

type memStore struct {
	mu      sync.Mutex
	briefs  map[string]research.Brief
	bypass  []bool
	saveErr error
}

func (m *memStore) Save(_ context.Context, b research.Brief) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return "", m.saveErr
	}
	slug := fmt.Sprintf("acme-%08d", len(m.briefs)+1)
	m.briefs[slug] = b
	return slug, nil
}

func (m *memStore) GetBySlug(_ context.Context, slug string, bypassCache bool) (research.Brief, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bypass = append(m.bypass, bypassCache)
	b, ok := m.briefs[slug]
	if !ok {
		return research.Brief{}, store.ErrNotFound
	}
	return b, nil
}

func testBrief() research.Brief {
	return research.Brief{
		Company:     research.CompanyProfile{Name: "ACME Logistik GmbH", Website: "https://acme-logistik.de"},
		Competitors: []research.Competitor{},
		Citations:   []string{"https://acme-logistik.de/about"},
		GeneratedAt: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
		Model:       "claude-test",
	}
}

func newTestRouter(gen Generator, st store.Store, checks map[string]HealthCheck) *gin.Engine {
	return NewRouter(Options{Generator: gen, Store: st, HealthChecks: checks, Version: "test"})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

type errorEnvelope struct {
	OK    bool      `json:"ok"`
	Error errorBody `json:"error"`
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func TestCreateBriefStoresAndReturnsSlug(t *testing.T) {
	gen := &fakeGenerator{res: research.Result{Brief: testBrief()}}
	st := &memStore{briefs: map[string]research.Brief{}}
	h := newTestRouter(gen, st, nil)

	rr := do(t, h, http.MethodPost, "/v1/briefs",
		`{"name":"ACME Logistik GmbH","website":"acme-logistik.de","headquarters":{"city":"Leipzig","country":"Germany"}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp briefResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "acme-00000001", resp.Slug)
	assert.Equal(t, "ACME Logistik GmbH", resp.Brief.Company.Name)
	assert.Equal(t, "/v1/briefs/acme-00000001", rr.Header().Get("Location"))
	assert.NotEmpty(t, rr.Header().Get(headerRequestID))

	require.Len(t, gen.got, 1)
	assert.Equal(t, "acme-logistik.de", gen.got[0].Website)
	assert.Equal(t, "Leipzig", gen.got[0].Headquarters.City)
	assert.Contains(t, st.briefs, "acme-00000001")
}

func TestCreateBriefRejectsMalformedBody(t *testing.T) {
	gen := &fakeGenerator{}
	h := newTestRouter(gen, &memStore{briefs: map[string]research.Brief{}}, nil)

	rr := do(t, h, http.MethodPost, "/v1/briefs", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	env := decodeError(t, rr)
	assert.False(t, env.OK)
	assert.Equal(t, CodeBadRequest, env.Error.Code)
	assert.Empty(t, gen.got)
}

func TestCreateBriefRejectsOversizedBody(t *testing.T) {
	gen := &fakeGenerator{}
	h := NewRouter(Options{Generator: gen, Store: &memStore{briefs: map[string]research.Brief{}}, MaxBodyBytes: 32})

	rr := do(t, h, http.MethodPost, "/v1/briefs", `{"name":"`+strings.Repeat("a", 100)+`","website":"a.de"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, gen.got)
}

func TestCreateBriefMapsPipelineErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid input", &research.InvalidInputError{Field: "website", Reason: "not a URL"}, http.StatusBadRequest, research.CodeInvalidInput},
		{"no evidence", &research.StageError{Stage: research.StageRetrieve, Err: research.ErrNoEvidence}, http.StatusUnprocessableEntity, research.CodeNoEvidence},
		{"schema", &research.StageError{Stage: research.StageExtract, Err: &research.SchemaValidationError{Attempts: 2}}, http.StatusBadGateway, research.CodeSchemaValidation},
		{"provider", &research.ProviderHTTPError{Provider: "llm", Status: 529, Body: "overloaded_error: secret upstream text"}, http.StatusServiceUnavailable, research.CodeProviderUnavailable},
		{"canceled", context.Canceled, http.StatusRequestTimeout, research.CodeCanceled},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, research.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := &memStore{briefs: map[string]research.Brief{}}
			h := newTestRouter(&fakeGenerator{err: tc.err}, st, nil)

			rr := do(t, h, http.MethodPost, "/v1/briefs", `{"name":"ACME","website":"acme.de"}`)
			assert.Equal(t, tc.status, rr.Code)
			env := decodeError(t, rr)
			assert.Equal(t, tc.code, env.Error.Code)
			assert.Equal(t, msgGenerateFailed, env.Error.Message)
			assert.NotContains(t, rr.Body.String(), "secret upstream text")
			assert.NotContains(t, rr.Body.String(), "disk on fire")
			assert.Empty(t, st.briefs)
		})
	}
}

func TestCreateBriefInvalidInputNamesField(t *testing.T) {
	h := newTestRouter(&fakeGenerator{err: &research.InvalidInputError{Field: "name", Reason: "empty"}}, &memStore{briefs: map[string]research.Brief{}}, nil)
	rr := do(t, h, http.MethodPost, "/v1/briefs", `{"name":"","website":"acme.de"}`)
	assert.Equal(t, "name", decodeError(t, rr).Error.Field)
}

func TestCreateBriefStoreFailure(t *testing.T) {
	st := &memStore{briefs: map[string]research.Brief{}, saveErr: store.ErrSlugExists}
	h := newTestRouter(&fakeGenerator{res: research.Result{Brief: testBrief()}}, st, nil)

	rr := do(t, h, http.MethodPost, "/v1/briefs", `{"name":"ACME","website":"acme.de"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	env := decodeError(t, rr)
	assert.Equal(t, research.CodeInternal, env.Error.Code)
	assert.Equal(t, msgStoreFailed, env.Error.Message)
}

func TestGetBrief(t *testing.T) {
	st := &memStore{briefs: map[string]research.Brief{"acme-12345678": testBrief()}}
	h := newTestRouter(&fakeGenerator{}, st, nil)

	rr := do(t, h, http.MethodGet, "/v1/briefs/acme-12345678", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp briefResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "claude-test", resp.Brief.Model)

	rr = do(t, h, http.MethodGet, "/v1/briefs/acme-12345678?fresh=true", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []bool{false, true}, st.bypass)
}

func TestGetBriefNotFound(t *testing.T) {
	h := newTestRouter(&fakeGenerator{}, &memStore{briefs: map[string]research.Brief{}}, nil)
	rr := do(t, h, http.MethodGet, "/v1/briefs/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, rr).Error.Code)
}

func TestUnknownRoute(t *testing.T) {
	h := newTestRouter(&fakeGenerator{}, &memStore{briefs: map[string]research.Brief{}}, nil)
	rr := do(t, h, http.MethodGet, "/v2/nothing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealth(t *testing.T) {
	healthy := newTestRouter(&fakeGenerator{}, &memStore{}, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	})
	rr := do(t, healthy, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test","checks":{"database":"ok"}}`, rr.Body.String())

	degraded := newTestRouter(&fakeGenerator{}, &memStore{}, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})
	rr = do(t, degraded, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"degraded","version":"test","checks":{"database":"ok","redis":"unhealthy"}}`, rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(&fakeGenerator{}, &memStore{}, nil)
	do(t, h, http.MethodGet, "/healthz", "")

	rr := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "intelbrief_http_requests_total")
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestRouter(&fakeGenerator{}, &memStore{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "req-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "req-42", rr.Header().Get(headerRequestID))
}

func TestPanicIsRecovered(t *testing.T) {
	h := newTestRouter(&fakeGenerator{panic: true}, &memStore{briefs: map[string]research.Brief{}}, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/briefs", bytes.NewBufferString(`{"name":"ACME","website":"acme.de"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, research.CodeInternal, decodeError(t, rr).Error.Code)
}
