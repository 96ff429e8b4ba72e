package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RequestMetrics records HTTP server metrics per route. Spans come from
// otelfiber, this only adds the instruments and the access log.
type RequestMetrics struct {
	log                       *zap.Logger
	httpRequestCounter        metric.Int64Counter
	httpRequestDuration       metric.Float64Histogram
	httpResponseStatusCounter metric.Int64Counter
	httpRequestSize           metric.Int64Histogram
	httpResponseSize          metric.Int64Histogram
	httpActiveRequests        metric.Int64UpDownCounter
}

func NewRequestMetrics(meter metric.Meter, log *zap.Logger) *RequestMetrics {
	httpRequestCounter, _ := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)

	httpRequestDuration, _ := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("ms"),
	)

	httpResponseStatusCounter, _ := meter.Int64Counter(
		"http.server.response.status",
		metric.WithDescription("HTTP response status codes"),
		metric.WithUnit("{status}"),
	)

	httpRequestSize, _ := meter.Int64Histogram(
		"http.server.request.size",
		metric.WithDescription("Size of HTTP requests"),
		metric.WithUnit("By"),
	)

	httpResponseSize, _ := meter.Int64Histogram(
		"http.server.response.size",
		metric.WithDescription("Size of HTTP responses"),
		metric.WithUnit("By"),
	)

	httpActiveRequests, _ := meter.Int64UpDownCounter(
		"http.server.active.requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{request}"),
	)

	return &RequestMetrics{
		log:                       log,
		httpRequestCounter:        httpRequestCounter,
		httpRequestDuration:       httpRequestDuration,
		httpResponseStatusCounter: httpResponseStatusCounter,
		httpRequestSize:           httpRequestSize,
		httpResponseSize:          httpResponseSize,
		httpActiveRequests:        httpActiveRequests,
	}
}

func (m *RequestMetrics) Handle() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		method := c.Method()
		startTime := time.Now()

		inFlight := metric.WithAttributes(attribute.String("http.method", method))
		m.httpActiveRequests.Add(ctx, 1, inFlight)
		defer m.httpActiveRequests.Add(ctx, -1, inFlight)

		reqContentLength := int64(c.Request().Header.ContentLength())

		err := c.Next()

		// Route templates keep label cardinality bounded; raw paths carry ids.
		route := c.Route().Path
		status := c.Response().StatusCode()
		duration := float64(time.Since(startTime).Nanoseconds()) / 1e6
		resContentLength := int64(len(c.Response().Body()))

		attrs := metric.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		m.httpRequestCounter.Add(ctx, 1, attrs)
		m.httpRequestDuration.Record(ctx, duration, attrs)
		m.httpResponseStatusCounter.Add(ctx, 1, attrs)
		m.httpRequestSize.Record(ctx, reqContentLength, attrs)
		m.httpResponseSize.Record(ctx, resContentLength, attrs)

		spanCtx := trace.SpanContextFromContext(c.UserContext())
		m.log.Info("HTTP request completed",
			zap.String("method", method),
			zap.String("path", c.Path()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Float64("duration_ms", duration),
			zap.Int64("request_size", reqContentLength),
			zap.Int64("response_size", resContentLength),
			zap.String("client_ip", c.IP()),
			zap.String("trace_id", spanCtx.TraceID().String()),
		)

		return err
	}
}
