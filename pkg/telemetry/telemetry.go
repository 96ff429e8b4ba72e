// Package telemetry owns lendora's OpenTelemetry pipeline: one OTLP gRPC
// connection feeding traces, metrics and logs, plus the zap logger that
// writes to stdout and the log pipeline at once.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fazamuttaqien/lendora/config"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ScopePrefix namespaces every meter and tracer the service hands out.
const ScopePrefix = "lendora/"

type OpenTelemetry struct {
	Log            *zap.Logger
	TracerProvider *sdktrace.TracerProvider
	LoggerProvider *sdklog.LoggerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Shutdown       func(context.Context) error
}

// Meter returns the meter for one component, such as "loan-service".
func (o *OpenTelemetry) Meter(component string) metric.Meter {
	return o.MeterProvider.Meter(ScopePrefix + component)
}

// Tracer returns the tracer for one component, such as "loan-service".
func (o *OpenTelemetry) Tracer(component string) trace.Tracer {
	return o.TracerProvider.Tracer(ScopePrefix + component)
}

// New wires tracer, meter and logger providers to one OTLP gRPC connection
// and installs the resulting zap logger as the global logger.
func New(ctx context.Context, cfg *config.Config) (*OpenTelemetry, error) {
	res, err := NewResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTel resource: %w", err)
	}

	// TODO: switch to TLS credentials once the collector endpoint exposes them.
	conn, err := NewOTLPClient(cfg.OTEL_EXPORTER_OTLP_ENDPOINT)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP client: %w", err)
	}

	// Filled as each provider comes up; unwound in reverse on failure.
	var started []closer
	abort := func(err error) (*OpenTelemetry, error) {
		shutdownAll(context.Background(), started)
		return nil, err
	}
	started = append(started, closer{"grpc conn", func(context.Context) error { return conn.Close() }})

	tracerProvider, err := NewTracerProvider(ctx, conn, res, cfg.TRACE_SAMPLE_RATIO)
	if err != nil {
		return abort(fmt.Errorf("failed to create tracer provider: %w", err))
	}
	started = append(started, closer{"tracer", tracerProvider.Shutdown})

	loggerProvider, err := NewLoggerProvider(ctx, conn, res)
	if err != nil {
		return abort(fmt.Errorf("failed to create logger provider: %w", err))
	}
	// The otelzap bridge flushes through the logger provider.
	started = append(started, closer{"logger", loggerProvider.Shutdown})

	meterProvider, err := NewMeterProvider(ctx, conn, res, cfg.METRIC_INTERVAL)
	if err != nil {
		return abort(fmt.Errorf("failed to create meter provider: %w", err))
	}
	started = append(started, closer{"meter", meterProvider.Shutdown})

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log := NewZapLogger(cfg, loggerProvider)
	zap.ReplaceGlobals(log)

	if cfg.RUNTIME_METRICS {
		log.Info("Starting runtime metrics collection")
		if err := runtime.Start(runtime.WithMeterProvider(meterProvider),
			runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
			log.Warn("Failed to start runtime metrics collector", zap.Error(err))
		}
	}

	started = append(started, closer{"zap sync", func(context.Context) error { return log.Sync() }})

	log.Info("Telemetry initialized",
		zap.String("otel_endpoint", cfg.OTEL_EXPORTER_OTLP_ENDPOINT),
		zap.Float64("trace_sample_ratio", cfg.TRACE_SAMPLE_RATIO),
	)

	return &OpenTelemetry{
		Log:            log,
		TracerProvider: tracerProvider,
		LoggerProvider: loggerProvider,
		MeterProvider:  meterProvider,
		Shutdown: func(ctx context.Context) error {
			log.Info("Shutting down telemetry")
			return shutdownAll(ctx, started)
		},
	}, nil
}

type closer struct {
	name  string
	close func(context.Context) error
}

// shutdownAll closes in reverse start order and reports every failure.
// Errors go to stderr as well since the log pipeline may already be gone.
func shutdownAll(ctx context.Context, closers []closer) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].close(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "telemetry: %s shutdown failed: %v\n", closers[i].name, err)
			errs = append(errs, fmt.Errorf("%s shutdown failed: %w", closers[i].name, err))
		}
	}
	return errors.Join(errs...)
}

// NewResource describes this process to the collector. Attributes from
// OTEL_RESOURCE_ATTRIBUTES are merged in.
func NewResource(cfg *config.Config) (*sdkresource.Resource, error) {
	hostName, _ := os.Hostname()
	instanceID := fmt.Sprintf("%s-%d", hostName, time.Now().UnixNano())

	return sdkresource.New(
		context.Background(),
		sdkresource.WithProcess(),
		sdkresource.WithOS(),
		sdkresource.WithContainer(),
		sdkresource.WithHost(),
		sdkresource.WithFromEnv(),
		sdkresource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.SERVICE_NAME),
			semconv.ServiceNamespaceKey.String("lendora"),
			semconv.ServiceVersionKey.String(cfg.SERVICE_VERSION),
			semconv.ServiceInstanceIDKey.String(instanceID),
			semconv.DeploymentEnvironmentKey.String(cfg.ENVIRONMENT),
		),
	)
}

// NewTracerProvider samples root spans at ratio and follows the parent's
// decision otherwise. A ratio outside (0, 1] falls back to 0.1.
func NewTracerProvider(ctx context.Context, conn *grpc.ClientConn, res *sdkresource.Resource, ratio float64) (*sdktrace.TracerProvider, error) {
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(traceExporter)),
		sdktrace.WithSampler(Sampler(ratio)),
	), nil
}

func Sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio > 1 {
		ratio = 0.1
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func NewLoggerProvider(ctx context.Context, conn *grpc.ClientConn, res *sdkresource.Resource) (*sdklog.LoggerProvider, error) {
	logExporter, err := otlploggrpc.New(ctx, otlploggrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
	), nil
}

// NewMeterProvider pushes metrics every interval.
func NewMeterProvider(ctx context.Context, conn *grpc.ClientConn, res *sdkresource.Resource, interval time.Duration) (*sdkmetric.MeterProvider, error) {
	metricExporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(interval))),
	), nil
}

// NewOTLPClient dials lazily; the first export establishes the connection.
func NewOTLPClient(endpoint string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithConnectParams(grpc.ConnectParams{MinConnectTimeout: 5 * time.Second}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to %s: %w", endpoint, err)
	}
	return conn, nil
}

// NewZapLogger tees stdout and the OTel log pipeline into one zap.Logger.
// Development mode logs to the console; otherwise stdout gets JSON.
// An unknown LOG_LEVEL means info.
func NewZapLogger(cfg *config.Config, loggerProvider *sdklog.LoggerProvider) *zap.Logger {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.LOG_LEVEL)); err != nil {
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if cfg.DEVELOPMENT_MODE {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.MessageKey = "message"
		encoderConfig.FunctionKey = zapcore.OmitKey
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	stdoutCore := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	otelCore := otelzap.NewCore(ScopePrefix+"log", otelzap.WithLoggerProvider(loggerProvider))

	return zap.New(zapcore.NewTee(stdoutCore, otelCore),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(
			zap.String("service.name", cfg.SERVICE_NAME),
			zap.String("service.version", cfg.SERVICE_VERSION),
			zap.String("deployment.environment", cfg.ENVIRONMENT),
		),
	)
}
