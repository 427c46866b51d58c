package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"info":  zerolog.InfoLevel,
		"":      zerolog.InfoLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
	} {
		got, ok := ParseLevel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseLevel("fatal")
	assert.False(t, ok)
}

func TestSetupWriter_JSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer

	SetupWriter(&buf, zerolog.WarnLevel, FormatJSON)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
	assert.Contains(t, buf.String(), `"app":"kobot"`)
}

func TestWithRun(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	SetupWriter(&buf, zerolog.InfoLevel, FormatJSON)

	ctx := WithRun(context.Background(), "run-42")
	zerolog.Ctx(ctx).Info().Msg("hello")

	assert.Contains(t, buf.String(), `"run_id":"run-42"`)
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestWithSpan(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	_, span := tp.Tracer("test").Start(context.Background(), "run")
	defer span.End()

	var buf bytes.Buffer
	traced := WithSpan(zerolog.New(&buf), span)
	traced.Info().Msg("traced")
	require.Contains(t, buf.String(), `"trace_id":"`+span.SpanContext().TraceID().String()+`"`)
	assert.Contains(t, buf.String(), `"span_id":"`+span.SpanContext().SpanID().String()+`"`)

	buf.Reset()
	plain := WithSpan(zerolog.New(&buf), trace.SpanFromContext(context.Background()))
	plain.Info().Msg("plain")
	assert.NotContains(t, buf.String(), "trace_id")
}
