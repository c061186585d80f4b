package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cataloghandler "cropwatch/internal/catalog/handler"
	pricehandler "cropwatch/internal/canonical/handler"
	moderationhandler "cropwatch/internal/moderation/handler"
	platformmetrics "cropwatch/internal/platform/metrics"
	"cropwatch/internal/submit"
	"cropwatch/pkg/requestcontext"
)

// Deps collects the handlers the router mounts. The moderation endpoints sit
// behind RequireActor so the review service always receives an authenticated
// reviewer.
type Deps struct {
	Moderation   *moderationhandler.Handler
	Catalog      *cataloghandler.Handler
	Prices       *pricehandler.Handler
	Submit       *submit.Handler
	RequireActor func(http.Handler) http.Handler
	Health       http.HandlerFunc
	Metrics      *platformmetrics.Metrics
}

// NewRouter wires all public endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(propagateRequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(deps.Metrics.Middleware)

	r.Get("/healthz", deps.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		deps.Catalog.Register(r)
		deps.Prices.Register(r)
		deps.Submit.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(deps.RequireActor)
			deps.Moderation.Register(r)
		})
	})

	return r
}

// propagateRequestID copies chi's request id into the request context package
// so services and handlers can log it without importing chi.
func propagateRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
			ctx = requestcontext.WithRequestID(ctx, reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
