package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Layer selects the instrument names of a Recorder. Services report
// service.operation.*, repositories report db.query.* keyed by table.
type Layer string

const (
	ServiceLayer    Layer = "service"
	RepositoryLayer Layer = "repository"
)

func (l Layer) instrument() string {
	if l == RepositoryLayer {
		return "db.query"
	}
	return "service.operation"
}

func (l Layer) errorInstrument() string {
	if l == RepositoryLayer {
		return "db.error.count"
	}
	return "service.error.count"
}

func (l Layer) componentKey() string {
	if l == RepositoryLayer {
		return "table"
	}
	return "service"
}

// Recorder bundles the tracer, logger and operation instruments shared by
// every method of one component.
type Recorder struct {
	component string
	layer     Layer
	tracer    trace.Tracer
	log       *zap.Logger

	operationDuration metric.Float64Histogram
	operationCount    metric.Int64Counter
	errorCount        metric.Int64Counter
	connectionGauge   metric.Int64UpDownCounter
}

// NewRecorder creates the instruments for one service or table. For the
// repository layer component names the table.
func NewRecorder(layer Layer, component string, meter metric.Meter, tracer trace.Tracer, log *zap.Logger) *Recorder {
	name := layer.instrument()

	operationDuration, _ := meter.Float64Histogram(
		name+".duration",
		metric.WithDescription("Duration of "+string(layer)+" operations"),
		metric.WithUnit("ms"),
	)

	operationCount, _ := meter.Int64Counter(
		name+".count",
		metric.WithDescription("Number of "+string(layer)+" operations"),
		metric.WithUnit("{operation}"),
	)

	errorCount, _ := meter.Int64Counter(
		layer.errorInstrument(),
		metric.WithDescription("Number of "+string(layer)+" errors"),
		metric.WithUnit("{error}"),
	)

	r := &Recorder{
		component:         component,
		layer:             layer,
		tracer:            tracer,
		log:               log,
		operationDuration: operationDuration,
		operationCount:    operationCount,
		errorCount:        errorCount,
	}

	if layer == RepositoryLayer {
		r.connectionGauge, _ = meter.Int64UpDownCounter(
			"db.connections",
			metric.WithDescription("Number of active database connections"),
			metric.WithUnit("{connection}"),
		)
	}

	return r
}

// Log returns the component logger.
func (r *Recorder) Log() *zap.Logger {
	return r.log
}

// Operation is one traced call. Callers must End it.
type Operation struct {
	ctx   context.Context
	span  trace.Span
	name  string
	start time.Time
	r     *Recorder
}

// Start opens a span named "<layer>.<spanName>" and counts the operation.
func (r *Recorder) Start(ctx context.Context, spanName, operation string, attrs ...attribute.KeyValue) (context.Context, *Operation) {
	ctx, span := r.tracer.Start(ctx, string(r.layer)+"."+spanName)

	span.SetAttributes(append(attrs, attribute.String(r.layer.componentKey(), r.component))...)

	r.operationCount.Add(ctx, 1, metric.WithAttributes(r.attrs(operation)...))
	if r.connectionGauge != nil {
		r.connectionGauge.Add(ctx, 1, metric.WithAttributes(r.attrs(operation)...))
	}

	op := &Operation{ctx: ctx, span: span, name: operation, start: time.Now(), r: r}

	r.log.Debug("Starting "+operation, op.traceFields()...)

	return ctx, op
}

func (o *Operation) End() {
	if o.r.connectionGauge != nil {
		o.r.connectionGauge.Add(o.ctx, -1, metric.WithAttributes(o.r.attrs(o.name)...))
	}
	o.span.End()
}

func (o *Operation) Span() trace.Span {
	return o.span
}

// Fail records err against the operation and returns it unchanged.
func (o *Operation) Fail(err error, errorType, message string, fields ...zap.Field) error {
	o.span.SetStatus(codes.Error, message)
	o.span.RecordError(err)

	o.r.errorCount.Add(o.ctx, 1, metric.WithAttributes(
		append(o.r.attrs(o.name), attribute.String("error_type", errorType))...,
	))

	duration := o.record("error")

	o.r.log.Error(message, append(append(o.traceFields(),
		zap.String("error_type", errorType),
		zap.Float64("duration_ms", duration),
		zap.Error(err),
	), fields...)...)

	return err
}

// Reject records a business refusal: logged at warn, counted as an error,
// span status left unset.
func (o *Operation) Reject(err error, errorType, message string, fields ...zap.Field) error {
	o.span.SetAttributes(attribute.String("rejection.reason", errorType))

	o.r.errorCount.Add(o.ctx, 1, metric.WithAttributes(
		append(o.r.attrs(o.name), attribute.String("error_type", errorType))...,
	))

	duration := o.record("rejected")

	o.r.log.Warn(message, append(append(o.traceFields(),
		zap.String("error_type", errorType),
		zap.Float64("duration_ms", duration),
	), fields...)...)

	return err
}

// Succeed closes the operation as successful.
func (o *Operation) Succeed(message string, fields ...zap.Field) {
	duration := o.record("success")
	o.span.SetStatus(codes.Ok, message)

	o.r.log.Info(message, append(append(o.traceFields(),
		zap.Float64("duration_ms", duration),
	), fields...)...)
}

func (o *Operation) record(status string) float64 {
	duration := float64(time.Since(o.start).Nanoseconds()) / 1e6
	o.r.operationDuration.Record(o.ctx, duration, metric.WithAttributes(
		append(o.r.attrs(o.name), attribute.String("status", status))...,
	))
	return duration
}

// NotFound closes a lookup that matched nothing. It is not an error.
func (o *Operation) NotFound(message string, fields ...zap.Field) {
	o.record("not_found")
	o.span.SetStatus(codes.Ok, message)
	o.r.log.Info(message, append(o.traceFields(), fields...)...)
}

func (r *Recorder) attrs(operation string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String(r.layer.componentKey(), r.component),
	}
}

func (o *Operation) traceFields() []zap.Field {
	return []zap.Field{
		zap.String("trace_id", o.span.SpanContext().TraceID().String()),
		zap.String("span_id", o.span.SpanContext().SpanID().String()),
	}
}
