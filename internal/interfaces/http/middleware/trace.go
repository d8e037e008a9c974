package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"promo-script-ai-api/pkg/logger"
)

// Trace 返回 otelgin 追踪与上下文注入两段中间件；探针路径不生成 Span
func Trace(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
			return !isProbePath(r.URL.Path)
		})),
		traceContext,
	}
}

// traceContext 将 trace_id / span_id 写入日志上下文与响应头，并把请求 ID 标到 Span 上
func traceContext(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	sc := span.SpanContext()
	if !sc.IsValid() {
		c.Next()
		return
	}

	traceID := sc.TraceID().String()
	c.Set("trace_id", traceID)

	ctx := logger.WithContext(c.Request.Context(), logger.TraceIDKey, traceID)
	ctx = logger.WithContext(ctx, logger.SpanIDKey, sc.SpanID().String())
	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Trace-ID", traceID)

	if rid := c.GetString("request_id"); rid != "" {
		span.SetAttributes(attribute.String("http.request_id", rid))
	}
	c.Next()
}
