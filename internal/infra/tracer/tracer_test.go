package tracer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"ethpool/internal/infra/config"
)

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer shutdown(context.Background())

	if _, ok := otel.GetTracerProvider().(noop.TracerProvider); !ok {
		t.Errorf("expected noop provider, got %T", otel.GetTracerProvider())
	}
}

func TestSetupEmptyExporter(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: true}, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer shutdown(context.Background())

	if _, ok := otel.GetTracerProvider().(noop.TracerProvider); !ok {
		t.Errorf("expected noop provider for empty exporter, got %T", otel.GetTracerProvider())
	}
}

func TestSetupStdoutWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: "stdout"}, &buf)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer otel.SetTracerProvider(noop.NewTracerProvider())

	_, span := StartSpan(context.Background(), "ethpool.call")
	SetOK(span)
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "ethpool.call") {
		t.Errorf("exported output missing span name: %s", buf.String())
	}
}

func TestSetupUnsupportedExporter(t *testing.T) {
	if _, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: "invalid"}, nil); err == nil {
		t.Error("expected error for unsupported exporter")
	}
}

func TestStartSpanAndHelpers(t *testing.T) {
	otel.SetTracerProvider(noop.NewTracerProvider())

	ctx, span := StartSpan(context.Background(), "test-span")
	if ctx == nil {
		t.Error("context should not be nil")
	}

	// These should not panic
	SetOK(span)
	RecordError(span, errors.New("test error"))
	span.End()
}

func TestAttrHelpers(t *testing.T) {
	s := StringAttr("ethpool.method", "poolStats")
	if string(s.Key) != "ethpool.method" || s.Value.AsString() != "poolStats" {
		t.Errorf("StringAttr = %v", s)
	}

	i := IntAttr("http.status_code", 200)
	if string(i.Key) != "http.status_code" || i.Value.AsInt64() != 200 {
		t.Errorf("IntAttr = %v", i)
	}
}
