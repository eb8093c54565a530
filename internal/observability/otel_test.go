package observability

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tbourn/moneywise/internal/config"
)

func preserveOTelGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func stubExporter(t *testing.T, exp sdktrace.SpanExporter, err error) {
	t.Helper()
	orig := newExporter
	newExporter = func(context.Context, config.OTELConfig) (sdktrace.SpanExporter, error) { return exp, err }
	t.Cleanup(func() { newExporter = orig })
}

func TestSetupTracing_DisabledIsNoOp(t *testing.T) {
	preserveOTelGlobals(t)
	prev := otel.GetTracerProvider()

	shutdown, err := SetupTracing(context.Background(), config.OTELConfig{Enabled: false}, "v0")
	if err != nil || shutdown == nil {
		t.Fatalf("shutdown=%p err=%v", shutdown, err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown: %v", err)
	}
	if otel.GetTracerProvider() != prev {
		t.Fatalf("provider replaced while disabled")
	}
}

func TestSetupTracing_ExportsSpansWithServiceResource(t *testing.T) {
	preserveOTelGlobals(t)
	exp := tracetest.NewInMemoryExporter()
	stubExporter(t, exp, nil)

	shutdown, err := SetupTracing(context.Background(), config.OTELConfig{
		Enabled:     true,
		ServiceName: "moneywise-test",
		SampleRatio: 1,
	}, "v1.2.3")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	defer func() { _ = shutdown(context.Background()) }()

	_, span := otel.Tracer("test").Start(context.Background(), "work")
	span.End()
	tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	if !ok {
		t.Fatalf("expected sdk tracer provider")
	}
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "work" {
		t.Fatalf("spans=%v", spans)
	}
	attrs := spans[0].Resource.String()
	if !strings.Contains(attrs, "moneywise-test") || !strings.Contains(attrs, "v1.2.3") {
		t.Fatalf("resource=%s", attrs)
	}

	carrier := propagation.MapCarrier{}
	ctx, s := otel.Tracer("test").Start(context.Background(), "prop")
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	s.End()
	if carrier.Get("traceparent") == "" {
		t.Fatalf("traceparent not injected")
	}
}

func TestSetupTracing_ExporterErrorLeavesGlobals(t *testing.T) {
	preserveOTelGlobals(t)
	stubExporter(t, nil, errors.New("boom-exporter"))
	prev := otel.GetTracerProvider()

	if _, err := SetupTracing(context.Background(), config.OTELConfig{Enabled: true}, "v0"); err == nil {
		t.Fatalf("expected error")
	}
	if otel.GetTracerProvider() != prev {
		t.Fatalf("provider changed on failure")
	}
}

func TestSetupTracing_ResourceErrorLeavesGlobals(t *testing.T) {
	preserveOTelGlobals(t)
	stubExporter(t, tracetest.NewInMemoryExporter(), nil)
	orig := newResource
	newResource = func(context.Context, string, string) (*resource.Resource, error) {
		return nil, errors.New("boom-resource")
	}
	t.Cleanup(func() { newResource = orig })
	prev := otel.GetTracerProvider()

	if _, err := SetupTracing(context.Background(), config.OTELConfig{Enabled: true}, "v0"); err == nil {
		t.Fatalf("expected error")
	}
	if otel.GetTracerProvider() != prev {
		t.Fatalf("provider changed on failure")
	}
}

func TestSetupTracing_RealExporterIsLazy(t *testing.T) {
	preserveOTelGlobals(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	shutdown, err := SetupTracing(ctx, config.OTELConfig{
		Enabled:     true,
		Insecure:    true,
		Endpoint:    "localhost:4317",
		ServiceName: "svc",
		SampleRatio: 0.5,
	}, "v0")
	if err != nil {
		t.Fatalf("setup with canceled ctx: %v", err)
	}
	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatalf("expected sdk tracer provider")
	}
	_ = shutdown(context.Background())
}

func TestSampler(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tc := range cases {
		if got := sampler(tc.ratio).Description(); !strings.Contains(got, tc.want) {
			t.Fatalf("sampler(%v) = %q, want it to mention %q", tc.ratio, got, tc.want)
		}
	}
}
