package telemetry

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const httpScopeName = "github.com/shiftcrew/shiftcrew/api"

// Middleware wraps an HTTP handler with OTel tracing and metrics.
// Every request gets a server span and is counted in sc.http.* metrics.
// When telemetry is disabled, next is returned as-is with zero overhead.
func Middleware(next http.Handler) http.Handler {
	if !Enabled() {
		return next
	}

	tracer := Tracer(httpScopeName)
	m := Meter(httpScopeName)
	reqs, _ := m.Int64Counter("sc.http.requests",
		metric.WithDescription("Total HTTP requests served"),
	)
	dur, _ := m.Float64Histogram("sc.http.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("sc.http.errors",
		metric.WithDescription("Total HTTP responses with a 5xx status"),
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		attrs := metric.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.Int("http.status_code", rec.status),
		)
		reqs.Add(ctx, 1, attrs)
		dur.Record(ctx, float64(time.Since(start).Microseconds())/1000.0, attrs)

		span.SetAttributes(attribute.Int("http.status_code", rec.status))
		if rec.status >= 500 {
			errs.Add(ctx, 1, attrs)
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
