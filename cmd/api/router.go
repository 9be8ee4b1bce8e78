package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/billwatch/billwatch/pkg/middleware"
	"github.com/billwatch/billwatch/pkg/observability"
)

// SetupRouter wires the API routes behind the middleware chain.
func SetupRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()
	registerAPIRoutes(mux, deps)
	registerOpsRoutes(mux, deps)

	tracer := otel.GetTracerProvider().Tracer("billwatch/api")

	middlewares := []func(http.Handler) http.Handler{
		middleware.RequestID("X-Request-ID"),
		middleware.Tracing(tracer),
		middleware.Recovery(deps.Logger),
		middleware.Logging(deps.Logger),
	}
	if deps.Config.Server.RateLimitPerSecond > 0 && deps.Config.Server.RateLimitBurst > 0 {
		limiter := rate.NewLimiter(
			rate.Limit(float64(deps.Config.Server.RateLimitPerSecond)),
			deps.Config.Server.RateLimitBurst,
		)
		middlewares = append(middlewares, middleware.RateLimit(limiter))
	}
	middlewares = append(middlewares, observability.MetricsMiddleware)

	// TODO: narrow AllowedOrigins to the web UI origin once it is deployed.
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept-Encoding", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           7200,
	})

	return c.Handler(middleware.Chain(mux, middlewares...))
}

// registerAPIRoutes registers the import and detection endpoints.
func registerAPIRoutes(mux *http.ServeMux, deps *Dependencies) {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"POST /v1/import/analyze", deps.ImportHandler.Analyze},
		{"POST /v1/import/parse", deps.ImportHandler.Parse},
		{"POST /v1/recurring/detect", deps.RecurringHandler.Detect},
	}
	for _, r := range routes {
		mux.HandleFunc(r.pattern, r.handler)
		deps.Logger.Info("route registered", "pattern", r.pattern)
	}
}

// registerOpsRoutes registers liveness, readiness, and metrics endpoints.
func registerOpsRoutes(mux *http.ServeMux, deps *Dependencies) {
	mux.HandleFunc("/health", plainText("ok"))
	mux.HandleFunc("/ready", plainText("ready"))

	if deps.Config.Observability.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		deps.Logger.Info("metrics enabled", "path", "/metrics")
	}
}

func plainText(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}
}
