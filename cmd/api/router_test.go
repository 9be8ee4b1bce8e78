package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billwatch/billwatch/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			MaxUploadBytes: 1 << 20,
		},
		Detect: config.DetectConfig{MinCount: 3, MaxGroups: 200},
	}
}

func TestSetupRouter_RoutesRegistered(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	deps, err := InitDependencies(testConfig(), logger)
	require.NoError(t, err)

	handler := SetupRouter(deps)

	for _, path := range []string{
		"/v1/import/analyze",
		"/v1/import/parse",
		"/v1/recurring/detect",
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.NotEqual(t, http.StatusNotFound, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSetupRouter_StableRegistrationOrder(t *testing.T) {
	order := func() []string {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		deps, err := InitDependencies(testConfig(), logger)
		require.NoError(t, err)
		SetupRouter(deps)

		var patterns []string
		for _, line := range strings.Split(buf.String(), "\n") {
			if strings.Contains(line, "route registered") {
				patterns = append(patterns, line[strings.Index(line, "pattern="):])
			}
		}
		return patterns
	}

	first := order()
	require.Len(t, first, 3)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, order())
	}
}
