package main

import (
	"bytes"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("BRIEF_SEARCH_API_KEY", "search-key")
	t.Setenv("BRIEF_SEARCH_ENGINE_ID", "engine")
	t.Setenv("BRIEF_DATABASE_DRIVER", "sqlite")
	t.Setenv("BRIEF_DATABASE_DSN", filepath.Join(t.TempDir(), "briefs.db"))
	t.Setenv("BRIEF_LOG_LEVEL", "error")
}

func TestServeRejectsBadConfiguration(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("BRIEF_SEARCH_API_KEY", "")
	var stderr bytes.Buffer
	assert.Equal(t, 1, serve(nil, &stderr))
	assert.Contains(t, stderr.String(), "ANTHROPIC_API_KEY")
}

func TestServeRejectsUnknownFlag(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 2, serve([]string{"-nope"}, &stderr))
}

func TestServeReturnsListenFailure(t *testing.T) {
	serviceEnv(t)
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	var stderr bytes.Buffer
	assert.Equal(t, 1, serve([]string{"-addr", busy.Addr().String()}, &stderr))
}
