// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/techwolf/example-api/pkg/logger"
	"github.com/techwolf/example-api/pkg/metrics"
)

// Route binds an HTTP method and a ServeMux path pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Name    string // labels the route in metrics, logs and /routes
	Handler http.HandlerFunc
}

// Router is a group of routes mounted together.
type Router interface {
	Routes() []Route
}

// Server wires HTTP routes for the business API.
type Server struct {
	routers       []Router
	healthHandler *HealthHandler
	routesHandler *RoutesHandler
	gatherer      prometheus.Gatherer
	metrics       *metrics.Manager
	log           logger.Logger
	limiter       RateLimiter
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used by the access log and recovery middleware.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the metrics manager and the gatherer served on /metrics.
func WithMetrics(m *metrics.Manager, g prometheus.Gatherer) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithRateLimiter enables rate limiting of /api/ requests.
func WithRateLimiter(l RateLimiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(opts ...Option) *Server {
	s := &Server{
		routers:       []Router{NewProductHandler(), NewUserHandler()},
		healthHandler: NewHealthHandler(),
		gatherer:      metrics.GetRegistry(),
		metrics:       metrics.Default(),
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routesHandler = NewRoutesHandler(s.Routes())
	return s
}

// Routes returns the business route table in declaration order.
func (s *Server) Routes() []Route {
	var routes []Route
	for _, r := range s.routers {
		routes = append(routes, r.Routes()...)
	}
	return routes
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.metrics, s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", NewMetricsHandler(s.gatherer))
	mux.HandleFunc("GET /routes", MetricsMiddleware(s.metrics, s.routesHandler.HandleRoutes, "routes"))

	for _, route := range s.Routes() {
		mux.HandleFunc(route.Method+" "+route.Pattern, MetricsMiddleware(s.metrics, route.Handler, route.Name))
	}
}

// Wrap applies the server-wide middleware chain to next, which should be the
// mux. Order, outermost first: request id, access log, recover, rate limit,
// unmatched-route metrics.
func (s *Server) Wrap(next http.Handler) http.Handler {
	h := UnmatchedMetricsMiddleware(s.metrics, next)
	if s.limiter != nil {
		h = RateLimitMiddleware(h, s.limiter, s.log, s.metrics)
	}
	h = RecoverMiddleware(h, s.log, s.metrics)
	h = AccessLogMiddleware(h, s.log)
	return RequestIDMiddleware(h)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
