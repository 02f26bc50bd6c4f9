// Package telemetry wires distributed tracing for pipeline execution.
// This package is internal and should not be imported by external projects.
//
// hiveflow 的指标走 Prometheus(internal/metrics),这里只负责链路追踪:
// Worker 为每次 Agent 调用开一个 span,经 OTLP gRPC 导出。禁用时返回
// noop Tracer,不连接任何外部服务。
package telemetry

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/BaSui01/hiveflow/config"
)

// TracerName is the instrumentation scope the pipeline worker spans
// under.
const TracerName = "hiveflow/pipeline"

// Tracing owns the tracer the pipeline engine records spans with. When
// tracing is disabled the tracer is a noop and Shutdown does nothing.
type Tracing struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// Init builds the pipeline tracer. With cfg.Enabled false it returns a
// noop Tracing without touching the network; otherwise it connects an
// OTLP gRPC span exporter, samples pipelines at cfg.SampleRate, and
// registers the provider globally so user handle_task code can pick up
// the active span from its context.
func Init(cfg config.TelemetryConfig, logger *zap.Logger) (*Tracing, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("tracing disabled, pipeline spans are noop")
		return &Tracing{tracer: noop.NewTracerProvider().Tracer(TracerName)}, nil
	}

	ctx := context.Background()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create span exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(cfg.ServiceName),
		semconv.ServiceVersionKey.String(moduleVersion()),
	))
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	// Sampling is per pipeline: the worker opens the root span, and
	// ParentBased keeps every agent hop of a sampled pipeline together.
	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("pipeline tracing initialized",
		zap.String("endpoint", cfg.OTLPEndpoint),
		zap.String("service_name", cfg.ServiceName),
		zap.Float64("sample_rate", cfg.SampleRate))

	return &Tracing{tp: tp, tracer: tp.Tracer(TracerName)}, nil
}

// Tracer returns the tracer the pipeline engine should record spans
// with. Never nil.
func (t *Tracing) Tracer() trace.Tracer {
	return t.tracer
}

// Shutdown flushes pending spans and closes the exporter. Safe on nil
// and on noop Tracing.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t == nil || t.tp == nil {
		return nil
	}
	return t.tp.Shutdown(ctx)
}

func moduleVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}
