// Package middleware provides the HTTP middleware chain: trace ids,
// request logging and per-client rate limiting.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"hsecli/internal/infrastructure"
)

// TraceHeader carries the request trace id in responses.
const TraceHeader = "X-Trace-ID"

// TraceID ensures every request context carries a trace id. An incoming
// header value is honored so callers can correlate retries.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if incoming := r.Header.Get(TraceHeader); incoming != "" {
			ctx = infrastructure.WithTraceID(ctx, incoming)
		} else {
			ctx = infrastructure.EnsureTraceID(ctx)
		}
		w.Header().Set(TraceHeader, infrastructure.GetTraceID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger logs one line per request with status and duration.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger := infrastructure.LoggerWithContext(r.Context())
		logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", r.RemoteAddr))
	})
}
