package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/contentcore/contentcore/internal/ioservice"
	"github.com/contentcore/contentcore/internal/observability"
	"github.com/contentcore/contentcore/internal/platform/httpx"
	"github.com/contentcore/contentcore/jobs"
)

// Pinger is a dependency whose liveness /healthz reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// RouterParams groups dependencies for building the ops router.
type RouterParams struct {
	Logger     *slog.Logger
	Config     *Config
	Metrics    *observability.Metrics
	Checks     map[string]Pinger
	JobHandler *jobs.Handler
	IO         ioservice.IOService
}

// NewRouter constructs the ops chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", healthz(params.Checks))
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.IO != nil {
		r.Get("/io/files/*", fileInfo(params.IO))
	}
	return r
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthz(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		out := healthStatus{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				out.Checks[name] = err.Error()
				out.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			out.Checks[name] = "ok"
		}
		httpx.JSON(w, status, out)
	}
}

type fileInfoResponse struct {
	ID       string    `json:"id"`
	Size     int64     `json:"size"`
	MTime    time.Time `json:"mtime"`
	URI      string    `json:"uri"`
	MimeType string    `json:"mimeType"`
	Missing  bool      `json:"missing,omitempty"`
}

func fileInfo(svc ioservice.IOService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := svc.LoadBinaryFile(r.Context(), chi.URLParam(r, "*"))
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, fileInfoResponse{
			ID: f.ID, Size: f.Size, MTime: f.MTime, URI: f.URI, MimeType: f.MimeType, Missing: f.Missing,
		})
	}
}
