package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentcore/contentcore/internal/ioservice"
	"github.com/contentcore/contentcore/internal/observability"
	"github.com/contentcore/contentcore/jobs"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func memoryIOStack(t *testing.T, cfg *Config) *IOStack {
	t.Helper()
	stack, err := BuildIOStack(cfg, IODeps{StorageFs: afero.NewMemMapFs(), Logger: quietLogger()})
	require.NoError(t, err)
	return stack
}

func testConfig() *Config {
	return &Config{
		IORootDir:         "var/storage",
		IOURLPrefix:       "/var/storage",
		IOMetadataHandler: MetadataHandlerFilesystem,
		IOTolerant:        false,
		IOPrefixByScope:   map[string]string{"admin": "admin"},
	}
}

func TestRouterHealthz(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(RouterParams{
		Logger: quietLogger(),
		Config: cfg,
		Checks: map[string]Pinger{"postgres": PingFunc(func(context.Context) error { return nil })},
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))

	var body healthStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)

	router = NewRouter(RouterParams{
		Logger: quietLogger(),
		Config: cfg,
		Checks: map[string]Pinger{"redis": PingFunc(func(context.Context) error { return errors.New("connection refused") })},
	})
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "connection refused")
}

func TestRouterServesMetricsAndJobs(t *testing.T) {
	metrics := observability.NewMetrics()
	router := NewRouter(RouterParams{
		Logger:     quietLogger(),
		Config:     testConfig(),
		Metrics:    metrics,
		JobHandler: jobs.NewHandler(nil, quietLogger()),
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `contentcore_http_requests_total{code="200",route="/jobs/health"} 1`)
}

func TestRouterFileInfo(t *testing.T) {
	cfg := testConfig()
	stack := memoryIOStack(t, cfg)
	ctx := context.Background()
	_, err := stack.Service.CreateBinaryFile(ctx, ioservice.BinaryFileCreateStruct{
		ID:          "original/1/report.txt",
		Size:        5,
		InputStream: bytes.NewBufferString("hello"),
	})
	require.NoError(t, err)

	router := NewRouter(RouterParams{Logger: quietLogger(), Config: cfg, IO: stack.Service})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/io/files/original/1/report.txt", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var info fileInfoResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, "original/1/report.txt", info.ID)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, "/var/storage/original/1/report.txt", info.URI)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/io/files/original/1/nope.txt", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBuildIOStackScopesAndTolerance(t *testing.T) {
	cfg := testConfig()
	cfg.IOTolerant = true
	stack := memoryIOStack(t, cfg)

	f, err := stack.Service.LoadBinaryFile(context.Background(), "images/missing.png")
	require.NoError(t, err)
	assert.True(t, f.Missing)

	stack.Service.OnConfigScopeChange("admin")
	assert.Equal(t, "admin", stack.Service.Prefix())
	stack.Service.OnConfigScopeChange("elsewhere")
	assert.Equal(t, "admin", stack.Service.Prefix())

	cfg.IOMetadataHandler = MetadataHandlerDFS
	_, err = BuildIOStack(cfg, IODeps{StorageFs: afero.NewMemMapFs()})
	assert.Error(t, err)
}
