package tracing

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/propagation"
)

// UnmatchedRoute names server spans for requests no route matched
const UnmatchedRoute = "unmatched"

// HTTPMiddleware creates Gin middleware for HTTP tracing
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = UnmatchedRoute
		}

		span, ctx := tracer.StartSpan(ctx, route)
		span.SetTag("span.kind", "server")
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.url", c.Request.URL.String())
		span.SetTag("http.host", c.Request.Host)

		c.Request = c.Request.WithContext(ctx)

		c.Header(TraceIDHeader, span.TraceID.String())
		c.Header(SpanIDHeader, span.SpanID.String())

		c.Next()

		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last().Err)
		}
		span.SetStatus(c.Writer.Status())
		span.SetTag("http.status", strconv.Itoa(c.Writer.Status()))

		span.Finish()
		tracer.Submit(span)
	}
}
