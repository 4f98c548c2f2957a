package observability

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/huertohogar/storefront/internal/platform/requestctx"
)

const tracerName = "github.com/huertohogar/storefront/internal/platform/observability"

var tracer = otel.Tracer(tracerName)

// TraceMiddleware starts a server span per request and stores trace identifiers on the context.
func TraceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+SanitizeRoute(r.URL.Path), trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()
			span.SetAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", SanitizeRoute(r.URL.Path)),
			)

			spanCtx := span.SpanContext()
			info := requestctx.TraceInfo{Sampled: spanCtx.IsSampled()}
			if spanCtx.HasTraceID() {
				info.TraceID = spanCtx.TraceID().String()
			}
			if spanCtx.HasSpanID() {
				info.SpanID = spanCtx.SpanID().String()
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithTrace(ctx, info)))
		})
	}
}
