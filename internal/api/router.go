package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/inscrevo/server/internal/api/handlers"
	"github.com/inscrevo/server/internal/api/middleware"
	"github.com/inscrevo/server/internal/auth"
	"github.com/inscrevo/server/internal/config"
	"github.com/inscrevo/server/internal/domain/events"
	"github.com/inscrevo/server/internal/domain/payments"
	"github.com/inscrevo/server/internal/domain/registrations"
	"github.com/inscrevo/server/internal/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Dependencies carries the constructed services the router wires to routes.
type Dependencies struct {
	Config        config.Config
	Logger        zerolog.Logger
	Pool          *pgxpool.Pool
	JWTManager    *auth.JWTManager
	Events        *events.Service
	Registrations *registrations.Service
	Payments      *payments.Service
	Reconciler    *payments.Reconciler
	Version       string
	GitCommit     string
}

// NewRouter builds the HTTP surface: public event listings, authenticated
// registration and payment routes, the webhook ingress and the probes.
func NewRouter(deps Dependencies) http.Handler {
	env := deps.Config.Environment

	eventsHandler := handlers.NewEventsHandler(deps.Events, env)
	registrationsHandler := handlers.NewRegistrationsHandler(deps.Registrations, env)
	paymentsHandler := handlers.NewPaymentsHandler(deps.Payments, deps.Reconciler, deps.Config.Webhook.Secret, env)
	health := handlers.NewHealthChecker(deps.Pool, deps.Version, deps.GitCommit)

	requireAuth := middleware.RequireAuth(deps.JWTManager, env)
	userTier := middleware.WithRateLimitTierHandler(middleware.TierUser)
	webhookTier := middleware.WithRateLimitTierHandler(middleware.TierWebhook)

	// One limiter store shared by every route; the tier tagger must run
	// before the limiter so it sees the right bucket, and auth must run
	// before both so user-tier buckets key off the JWT subject.
	rateLimit := middleware.RateLimit(deps.Config.RateLimit)

	public := func(h http.HandlerFunc) http.Handler {
		return rateLimit(h)
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return requireAuth(userTier(rateLimit(h)))
	}
	webhook := func(h http.HandlerFunc) http.Handler {
		return webhookTier(rateLimit(h))
	}

	mux := http.NewServeMux()

	mux.Handle("/healthz", http.HandlerFunc(health.Health))
	mux.Handle("/readyz", http.HandlerFunc(health.Ready))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/v1/events", public(eventsHandler.List))
	mux.Handle("/api/v1/events/{id}", public(eventsHandler.Get))

	mux.Handle("/api/v1/registrations", methodMux(map[string]http.Handler{
		http.MethodPost: authed(registrationsHandler.Create),
	}))
	mux.Handle("/api/v1/registrations/me", methodMux(map[string]http.Handler{
		http.MethodGet: authed(registrationsHandler.ListMine),
	}))
	mux.Handle("/api/v1/registrations/{id}", methodMux(map[string]http.Handler{
		http.MethodGet: authed(registrationsHandler.Get),
	}))
	mux.Handle("/api/v1/registrations/{id}/cancel", methodMux(map[string]http.Handler{
		http.MethodPost: authed(registrationsHandler.Cancel),
	}))
	mux.Handle("/api/v1/registrations/{id}/summary", methodMux(map[string]http.Handler{
		http.MethodGet: authed(paymentsHandler.RegistrationSummary),
	}))

	mux.Handle("/api/v1/payments", methodMux(map[string]http.Handler{
		http.MethodPost: authed(paymentsHandler.Create),
	}))
	mux.Handle("/api/v1/payments/confirm", methodMux(map[string]http.Handler{
		http.MethodPost: authed(paymentsHandler.Confirm),
	}))
	mux.Handle("/api/v1/payments/process", methodMux(map[string]http.Handler{
		http.MethodPost: authed(paymentsHandler.Process),
	}))
	mux.Handle("/api/v1/payments/webhook", methodMux(map[string]http.Handler{
		http.MethodPost: webhook(paymentsHandler.Webhook),
	}))
	mux.Handle("/api/v1/payments/me", methodMux(map[string]http.Handler{
		http.MethodGet: authed(paymentsHandler.ListMine),
	}))
	mux.Handle("/api/v1/payments/{id}", methodMux(map[string]http.Handler{
		http.MethodGet: authed(paymentsHandler.Get),
	}))

	var handler http.Handler = mux
	handler = middleware.RequestLogging(deps.Logger)(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
