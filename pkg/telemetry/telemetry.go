// pkg/telemetry/telemetry.go

package telemetry

import (
	"context"
	"os"
	"path/filepath"

	cerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var tracer trace.Tracer

// Init configures OpenTelemetry; call this early in main(). Tracing is a
// noop unless the operator has opted in by touching ~/.veinserver/telemetry_on.
func Init(service string) error {
	if !enabled() {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		tracer = tp.Tracer(service)
		return nil
	}

	dir := filepath.Join(os.Getenv("HOME"), ".veinserver")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return cerr.Wrap(err, "create telemetry directory")
	}

	file, err := os.OpenFile(filepath.Join(dir, "telemetry.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return cerr.Wrap(err, "open telemetry file")
	}

	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(file),
		stdouttrace.WithoutTimestamps(),
	)
	if err != nil {
		_ = file.Close()
		return cerr.Wrap(err, "create file exporter")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(
			sdkresource.NewSchemaless(
				attribute.String("service.name", service),
				attribute.String("host.name", hostname()),
				attribute.String("run.id", uuid.NewString()),
			),
		),
	)

	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(service)
	return nil
}

// Start a telemetry span with optional attributes.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("veinserver")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func enabled() bool {
	_, err := os.Stat(filepath.Join(os.Getenv("HOME"), ".veinserver", "telemetry_on"))
	return err == nil
}

func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
