// pkg/vein_io/context.go

package vein_io

import (
	"context"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/logger"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RuntimeContext carries the per-invocation context, logger and telemetry
// span through every component. One value is created per CLI command.
type RuntimeContext struct {
	Ctx        context.Context
	Log        *zap.Logger
	Timestamp  time.Time
	Span       trace.Span
	Command    string
	Attributes map[string]string
}

// NewContext sets up tracing and a command-scoped logger.
func NewContext(ctx context.Context, cmdName string) *RuntimeContext {
	ctx, span := telemetry.Start(ctx, cmdName)
	traceID := span.SpanContext().TraceID().String()

	log := zap.L().With(
		zap.String("command", cmdName),
		zap.String("trace_id", traceID),
	).Named(cmdName)

	return &RuntimeContext{
		Ctx:        ctx,
		Log:        log,
		Timestamp:  time.Now(),
		Span:       span,
		Command:    cmdName,
		Attributes: make(map[string]string),
	}
}

// HandlePanic recovers panics, logs them, and converts them to an error.
func (rc *RuntimeContext) HandlePanic(errPtr *error) {
	if r := recover(); r != nil {
		*errPtr = cerr.AssertionFailedf("panic: %v", r)
		rc.Log.Error("panic recovered", zap.Any("panic", r))
	}
}

// End logs the outcome, records the final span attributes, and flushes.
func (rc *RuntimeContext) End(errPtr *error) {
	defer rc.Span.End()

	duration := time.Since(rc.Timestamp)
	success := *errPtr == nil

	if success {
		rc.Log.Info("Command completed", zap.Duration("duration", duration))
	} else {
		rc.Log.Error("Command failed", zap.Duration("duration", duration), zap.Error(*errPtr))
	}

	rc.Span.SetAttributes(
		attribute.Bool("success", success),
		attribute.Int64("duration_ms", duration.Milliseconds()),
		attribute.String("os", runtime.GOOS),
		attribute.String("args", strings.Join(os.Args[1:], " ")),
	)

	logger.Sync()
}
