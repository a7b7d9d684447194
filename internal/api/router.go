package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/Togather-Foundation/agenda/internal/api/handlers"
	"github.com/Togather-Foundation/agenda/internal/api/middleware"
	"github.com/Togather-Foundation/agenda/internal/api/problem"
	"github.com/Togather-Foundation/agenda/internal/auth"
	"github.com/Togather-Foundation/agenda/internal/config"
	"github.com/Togather-Foundation/agenda/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Dependencies are the services the router dispatches to. Tokens is nil
// when no JWT secret is configured.
type Dependencies struct {
	Config config.Config
	Logger zerolog.Logger

	Users  handlers.LoginService
	Events handlers.EventsService
	Health handlers.HealthProbe
	Tokens *auth.JWTManager

	Version   string
	GitCommit string
	BuildDate string
}

// NewRouter builds the dispatch table and wraps it in the middleware chain.
// Any (verb, path) pair without a handler answers 404 "Route not found".
func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	env := cfg.Environment

	var issuer handlers.TokenIssuer
	if deps.Tokens != nil {
		issuer = deps.Tokens
	}

	loginHandler := handlers.NewLoginHandler(deps.Users, issuer, env)
	eventsHandler := handlers.NewEventsHandler(deps.Events, env)
	health := handlers.NewHealthChecker(deps.Health, deps.Version, deps.GitCommit)

	guard := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.Auth.Required && deps.Tokens != nil {
		requireToken := middleware.RequireToken(deps.Tokens)
		guard = func(h http.HandlerFunc) http.Handler { return requireToken(h) }
	}

	notFound := routeNotFound(env)

	mux := http.NewServeMux()
	mux.Handle("/healthz", methodMux(notFound, map[string]http.Handler{
		http.MethodGet: handlers.Healthz(),
	}))
	mux.Handle("/readyz", methodMux(notFound, map[string]http.Handler{
		http.MethodGet: health.Readyz(),
	}))
	mux.Handle("/health", methodMux(notFound, map[string]http.Handler{
		http.MethodGet: health.Health(),
	}))
	mux.Handle("/version", methodMux(notFound, map[string]http.Handler{
		http.MethodGet: VersionHandler(deps.Version, deps.GitCommit, deps.BuildDate),
	}))
	mux.Handle("/metrics", methodMux(notFound, map[string]http.Handler{
		http.MethodGet: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
	}))

	mux.Handle("/login", methodMux(notFound, map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(loginHandler.Login),
	}))
	mux.Handle("/events", methodMux(notFound, map[string]http.Handler{
		http.MethodGet:  guard(eventsHandler.List),
		http.MethodPost: guard(eventsHandler.Create),
	}))
	mux.Handle("/events/{id}", methodMux(notFound, map[string]http.Handler{
		http.MethodGet:    guard(eventsHandler.Get),
		http.MethodPut:    guard(eventsHandler.Update),
		http.MethodDelete: guard(eventsHandler.Delete),
	}))
	mux.Handle("/", notFound)

	// Outermost first. Nothing between Tracing and the mux may replace the
	// request, or the matched pattern is lost to tracing and metrics.
	chain := []func(http.Handler) http.Handler{
		middleware.CorrelationID(deps.Logger),
		middleware.Tracing,
		middleware.RequestLogging,
		metrics.HTTPMiddleware,
		middleware.Recover(env),
		middleware.SecurityHeaders(cfg.IsProduction()),
		middleware.CORS(cfg.CORS),
		middleware.RateLimit(cfg.RateLimit),
		middleware.RequestSize(cfg.Server.MaxBodyBytes),
	}

	var handler http.Handler = mux
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}
	return handler
}

func routeNotFound(env string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusNotFound, problem.TitleRouteNotFound, nil, env)
	})
}

// methodMux dispatches on the verb. Unknown verbs fall through to fallback
// with an Allow header listing the supported ones.
func methodMux(fallback http.Handler, handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		if allow := allowedMethods(handlers); allow != "" {
			w.Header().Set("Allow", allow)
		}
		fallback.ServeHTTP(w, r)
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
