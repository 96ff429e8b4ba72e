package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ServiceTimeout bounds every service call made from a handler.
const ServiceTimeout = 10 * time.Second

// Observer carries the request instruments shared by the HTTP handlers.
type Observer struct {
	tracer          trace.Tracer
	log             *zap.Logger
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	errorCount      metric.Int64Counter
	responseSize    metric.Int64Histogram
}

func NewObserver(meter metric.Meter, tracer trace.Tracer, log *zap.Logger) *Observer {
	requestCount, err := meter.Int64Counter(
		"api.request.count",
		metric.WithDescription("Number of API requests received"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		zap.L().Fatal("Failed to create request count metric", zap.Error(err))
	}

	requestDuration, err := meter.Float64Histogram(
		"api.request.duration",
		metric.WithDescription("Duration of API requests"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		zap.L().Fatal("Failed to create request duration metric", zap.Error(err))
	}

	errorCount, err := meter.Int64Counter(
		"api.error.count",
		metric.WithDescription("Number of API errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		zap.L().Fatal("Failed to create error count metric", zap.Error(err))
	}

	responseSize, err := meter.Int64Histogram(
		"api.response.size",
		metric.WithDescription("Size of API responses in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		zap.L().Fatal("Failed to create response size metric", zap.Error(err))
	}

	return &Observer{
		tracer:          tracer,
		log:             log,
		requestCount:    requestCount,
		requestDuration: requestDuration,
		errorCount:      errorCount,
		responseSize:    responseSize,
	}
}

// Log returns the handler logger.
func (o *Observer) Log() *zap.Logger {
	return o.log
}

// Start opens the handler span and counts the request. The caller must end
// the returned span.
func (o *Observer) Start(c *fiber.Ctx, spanName string) (context.Context, trace.Span, time.Time) {
	ctx, span := o.tracer.Start(c.UserContext(), spanName)
	start := time.Now()

	span.SetAttributes(
		attribute.String("http.method", c.Method()),
		attribute.String("http.route", c.Path()),
		attribute.String("http.user_agent", string(c.Request().Header.UserAgent())),
		attribute.String("http.client_ip", c.IP()),
	)

	o.log.Debug("Received request",
		zap.String("handler", spanName),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.String("client_ip", c.IP()),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	o.requestCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
	))

	return ctx, span, start
}

func (o *Observer) recordDuration(ctx context.Context, c *fiber.Ctx, start time.Time, statusCode int) float64 {
	duration := float64(time.Since(start).Nanoseconds()) / 1e6
	o.requestDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
		attribute.Int("status_code", statusCode),
	))
	return duration
}

// RecordError records the failure on span and metrics, logs it and writes
// {"error": message} with statusCode.
func (o *Observer) RecordError(
	ctx context.Context, span trace.Span, c *fiber.Ctx,
	start time.Time, err error, statusCode int, errorType, message string, fields ...zap.Field) error {
	o.errorCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
		attribute.String("error_type", errorType),
		attribute.Int("status_code", statusCode),
	))

	duration := o.recordDuration(ctx, c, start, statusCode)

	span.SetAttributes(
		attribute.String("error.type", errorType),
		attribute.String("error.message", err.Error()),
		attribute.Int("http.status_code", statusCode),
	)
	span.RecordError(err)

	logFields := append([]zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.Int("status_code", statusCode),
		zap.String("error_type", errorType),
		zap.Float64("duration_ms", duration),
		zap.Error(err),
	}, fields...)

	// Client mistakes are not server errors.
	if statusCode < fiber.StatusInternalServerError {
		o.log.Warn(message, logFields...)
	} else {
		o.log.Error(message, logFields...)
	}

	return c.Status(statusCode).JSON(fiber.Map{"error": message})
}

// RecordSuccess records the outcome and writes data as JSON with statusCode.
func (o *Observer) RecordSuccess(
	ctx context.Context, span trace.Span, c *fiber.Ctx,
	start time.Time, statusCode int, data any, fields ...zap.Field) error {
	duration := o.recordDuration(ctx, c, start, statusCode)

	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Float64("request.duration_ms", duration),
	)

	logFields := append([]zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.Int("status_code", statusCode),
		zap.Float64("duration_ms", duration),
	}, fields...)

	o.log.Info("Request completed successfully", logFields...)

	if err := c.Status(statusCode).JSON(data); err != nil {
		return err
	}

	o.responseSize.Record(ctx, int64(len(c.Response().Body())), metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
	))

	return nil
}

// CustomerID returns the id the auth middleware stored for the caller.
func CustomerID(c *fiber.Ctx) (uint64, bool) {
	id, ok := c.Locals("customerID").(uint64)
	return id, ok && id != 0
}

// ParamID parses a positive numeric path parameter.
func ParamID(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
