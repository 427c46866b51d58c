package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Output formats accepted by Setup.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Setup configures the global zerolog logger.
func Setup(level zerolog.Level, format string) {
	SetupWriter(os.Stderr, level, format)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level zerolog.Level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339

	if format == FormatJSON {
		log.Logger = zerolog.New(w).With().Timestamp().Str("app", "kobot").Logger()
	} else {
		// Pretty printing for interactive runs
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}).
			With().Timestamp().Str("app", "kobot").Logger()
	}
	zerolog.SetGlobalLevel(level)
}

// ParseLevel accepts the four levels the CLI exposes.
func ParseLevel(s string) (zerolog.Level, bool) {
	switch s {
	case "debug":
		return zerolog.DebugLevel, true
	case "info", "":
		return zerolog.InfoLevel, true
	case "warn":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	default:
		return zerolog.NoLevel, false
	}
}

// WithRun adds a logger carrying the run id, and trace ids when a span is recording, to the context.
func WithRun(ctx context.Context, runID string) context.Context {
	l := log.With().Str("run_id", runID).Logger()
	l = WithSpan(l, trace.SpanFromContext(ctx))
	return l.WithContext(ctx)
}

// WithSpan adds the trace and span ids of a recording span to l.
func WithSpan(l zerolog.Logger, span trace.Span) zerolog.Logger {
	sCtx := span.SpanContext()
	if !span.IsRecording() || !sCtx.HasTraceID() {
		return l
	}
	return l.With().
		Str("trace_id", sCtx.TraceID().String()).
		Str("span_id", sCtx.SpanID().String()).
		Logger()
}
