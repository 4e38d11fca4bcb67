package api

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/techwolf/example-api/internal/adapters/ratelimit"
	"github.com/techwolf/example-api/pkg/logger"
	"github.com/techwolf/example-api/pkg/metrics"
)

// HTTP header names.
const (
	HeaderRequestID          = "X-Request-ID"
	HeaderAPIKey             = "X-API-Key"
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRetryAfter         = "Retry-After"
)

const maxRequestIDLength = 128

// HTTP status code constants.
const (
	statusBadRequest      = 400
	statusNotFound        = 404
	statusTooManyRequests = 429
	statusInternalError   = 500
)

// Endpoint labels for requests that never reach a route handler.
const (
	endpointRateLimited = "rate_limited"
	endpointUnmatched   = "unmatched"
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(m *metrics.Manager, next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.AddInFlight(1)
		defer m.AddInFlight(-1)

		wrapped := wrapResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		observe(m, endpoint, r.Method, wrapped.statusCode, start)
	}
}

// UnmatchedMetricsMiddleware records the responses the mux writes itself
// (404, 405, redirects). It must wrap the mux directly: the mux sets
// Request.Pattern on the request it is given.
func UnmatchedMetricsMiddleware(m *metrics.Manager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := wrapResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		if r.Pattern == "" {
			observe(m, endpointUnmatched, r.Method, wrapped.statusCode, start)
		}
	})
}

// observe records one finished request.
func observe(m *metrics.Manager, endpoint, method string, status int, start time.Time) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000
	statusCodeStr := strconv.Itoa(status)

	m.RecordHTTPRequest(endpoint, method, statusCodeStr)
	m.RecordHTTPRequestDuration(endpoint, method, statusCodeStr, durationMs)

	if status >= statusBadRequest {
		errorType := getErrorType(status)
		m.RecordErrorByEndpoint(endpoint, method, errorType)
		m.RecordErrorByType(errorType, getErrorSeverity(status))
	}
}

// getErrorType returns a standardized error type based on HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "server_error"
	case statusCode == statusTooManyRequests:
		return "rate_limit"
	case statusCode == statusNotFound:
		return "not_found"
	case statusCode >= statusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// getErrorSeverity returns error severity based on HTTP status code.
func getErrorSeverity(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "high"
	case statusCode >= statusBadRequest:
		return "medium"
	default:
		return "low"
	}
}

type requestIDKey struct{}

// RequestIDFromContext returns the request id set by RequestIDMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDMiddleware propagates X-Request-ID, generating a UUID when the
// client sent none or an unusable one.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength || strings.ContainsFunc(id, isControl) {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func isControl(r rune) bool { return r < 0x20 || r == 0x7f }

// AccessLogMiddleware writes one log line per request.
func AccessLogMiddleware(next http.Handler, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := wrapResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		log.Info(r.Context(), "http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", wrapped.statusCode),
			logger.Int64("duration_ms", time.Since(start).Milliseconds()),
			logger.String("request_id", RequestIDFromContext(r.Context())),
		)
	})
}

// RecoverMiddleware turns handler panics into 500 responses. When the
// handler already started the response nothing more is written.
func RecoverMiddleware(next http.Handler, log logger.Logger, m *metrics.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := wrapResponseWriter(w)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			m.RecordPanicRecovered()
			log.Error(r.Context(), "handler panic",
				logger.String("path", r.URL.Path),
				logger.Any("panic", rec),
				logger.Bool("response_started", wrapped.wroteHeader),
				logger.String("request_id", RequestIDFromContext(r.Context())),
			)
			if wrapped.wroteHeader {
				return
			}
			writeError(wrapped, http.StatusInternalServerError, "internal_error",
				WrapKind("api.recover", ErrInternal, fmt.Errorf("%v", rec)))
		}()
		next.ServeHTTP(wrapped, r)
	})
}

// RateLimiter decides whether a client may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, ip, apiKey string) (ratelimit.Decision, error)
	Backend() string
}

// RateLimitMiddleware applies limiter to /api/ requests. Store failures let
// the request through. Rejections are recorded on m since they never reach
// a route.
func RateLimitMiddleware(next http.Handler, limiter RateLimiter, log logger.Logger, m *metrics.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "api.rate_limit"
		start := time.Now()
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		d, err := limiter.Allow(r.Context(), clientIP(r), r.Header.Get(HeaderAPIKey))
		if err != nil {
			log.Warn(r.Context(), "rate limiter unavailable; allowing request",
				logger.String("backend", limiter.Backend()),
				logger.Error(err),
			)
		}

		w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(d.Limit))
		w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
		if !d.Allowed {
			w.Header().Set(HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(d.ResetAfter)))
			writeError(w, http.StatusTooManyRequests, "rate_limited", NewKind(op, ratelimit.ErrRateLimited))
			observe(m, endpointRateLimited, r.Method, http.StatusTooManyRequests, start)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 1)
}

// clientIP returns the host part of RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
