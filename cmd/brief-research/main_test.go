package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/joelkehle/intelbrief/internal/app"
	"github.com/joelkehle/intelbrief/internal/config"
	"github.com/joelkehle/intelbrief/internal/research"
	"github.com/joelkehle/intelbrief/internal/store"
)

func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	code := exitCode(root.ExecuteContext(context.Background()), &stderr)
	return stdout.String(), stderr.String(), code
}

func storageEnv(t *testing.T) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "briefs.db")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("BRIEF_SEARCH_API_KEY", "")
	t.Setenv("BRIEF_SEARCH_ENGINE_ID", "")
	t.Setenv("BRIEF_DATABASE_DRIVER", "sqlite")
	t.Setenv("BRIEF_DATABASE_DSN", dsn)
	t.Setenv("BRIEF_REDIS_ADDRESS", "")
	return dsn
}

func TestGetPrintsStoredBrief(t *testing.T) {
	dsn := storageEnv(t)
	st, err := store.OpenSQL(store.DriverSQLite, dsn, zaptest.NewLogger(t))
	require.NoError(t, err)
	slug, err := st.Save(context.Background(), research.Brief{
		Company: research.CompanyProfile{Name: "ACME Logistik GmbH"},
		Model:   "claude-test",
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	stdout, stderr, code := execute(t, "get", slug)
	require.Equal(t, 0, code, stderr)

	var brief research.Brief
	require.NoError(t, json.Unmarshal([]byte(stdout), &brief))
	assert.Equal(t, "ACME Logistik GmbH", brief.Company.Name)
	assert.Equal(t, "claude-test", brief.Model)
}

func TestGetWritesOutFile(t *testing.T) {
	dsn := storageEnv(t)
	st, err := store.OpenSQL(store.DriverSQLite, dsn, zaptest.NewLogger(t))
	require.NoError(t, err)
	slug, err := st.Save(context.Background(), research.Brief{Company: research.CompanyProfile{Name: "ACME"}})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out := filepath.Join(t.TempDir(), "nested", "brief.json")
	stdout, stderr, code := execute(t, "get", slug, "--out", out, "--fresh")
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stdout)

	blob, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"name": "ACME"`)
	_, err = os.Stat(out + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestGetUnknownSlug(t *testing.T) {
	storageEnv(t)
	_, stderr, code := execute(t, "get", "nobody-00000000")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `brief "nobody-00000000" not found`)
}

func TestGetRequiresSlug(t *testing.T) {
	storageEnv(t)
	_, _, code := execute(t, "get")
	assert.Equal(t, 2, code)
}

func TestRunRequiresCredentials(t *testing.T) {
	storageEnv(t)
	_, stderr, code := execute(t, "run", "--name", "ACME", "--website", "acme.de")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "ANTHROPIC_API_KEY")
}

func providerEnv(t *testing.T, searchURL string) {
	t.Helper()
	storageEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("BRIEF_SEARCH_API_KEY", "search-key")
	t.Setenv("BRIEF_SEARCH_ENGINE_ID", "engine")
	t.Setenv("BRIEF_SEARCH_BASE_URL", searchURL)
	t.Setenv("BRIEF_SEARCH_RATE_LIMIT_PER_MINUTE", "60000")
	t.Setenv("BRIEF_SEARCH_NEWS_ENABLED", "false")
	t.Setenv("BRIEF_PIPELINE_RETRY_ATTEMPTS", "1")
	t.Setenv("BRIEF_LOG_LEVEL", "error")
}

func TestRunProviderSetupFailureIsConfigError(t *testing.T) {
	providerEnv(t, "http://127.0.0.1:1")
	orig := newProviders
	t.Cleanup(func() { newProviders = orig })
	newProviders = func(*config.Config) (app.Providers, error) {
		return app.Providers{}, errors.New("llm: bad credentials")
	}

	_, stderr, code := execute(t, "run", "--name", "ACME", "--website", "acme.de")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "llm: bad credentials")
}

func TestRunReportsPipelineFailureCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	providerEnv(t, srv.URL)

	_, stderr, code := execute(t, "run", "--name", "ACME Logistik GmbH", "--website", "acme-logistik.de")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "failed to generate report (no_evidence)")
}
