package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jfowler/remind-api/internal/api/shared"
)

// TraceMiddleware attaches a trace ID to every request's context and logs
// the request once it completes. The trace ID is echoed in error responses
// so clients can reference it in reports.
//
// The response writer is wrapped with chi's WrapResponseWriter, which
// forwards Hijack to the underlying connection; websocket upgrades pass
// through this middleware.
func TraceMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			logger.LogAttrs(ctx, slog.LevelInfo, "request completed",
				slog.String("trace_id", shared.GetTraceID(ctx)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)))
		})
	}
}
