package observability

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"

	"github.com/tbourn/go-todo-backend/internal/config"
)

// recordingClient is an in-process otlptrace.Client. It keeps uploaded spans
// and counts Start/Stop so tests never dial a collector.
type recordingClient struct {
	mu      sync.Mutex
	starts  int
	stops   int
	uploads []*tracepb.ResourceSpans
}

func (r *recordingClient) Start(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	return nil
}

func (r *recordingClient) Stop(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	return nil
}

func (r *recordingClient) UploadTraces(_ context.Context, rs []*tracepb.ResourceSpans) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads = append(r.uploads, rs...)
	return nil
}

func (r *recordingClient) exported() []*tracepb.ResourceSpans {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*tracepb.ResourceSpans(nil), r.uploads...)
}

func (r *recordingClient) counts() (starts, stops int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts, r.stops
}

// useRecordingClient swaps the gRPC client seam for a recordingClient and
// restores the seams and the otel globals when the test ends.
func useRecordingClient(t *testing.T) *recordingClient {
	t.Helper()
	rec := &recordingClient{}

	origClient, origExp, origRes := newOTLPClient, newOTLPExporterFn, newServiceResourceFn
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		newOTLPClient, newOTLPExporterFn, newServiceResourceFn = origClient, origExp, origRes
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	newOTLPClient = func(...otlptracegrpc.Option) otlptrace.Client { return rec }
	return rec
}

func enabledCfg() config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    true,
		Endpoint:    "collector:4317",
		ServiceName: "todo-test",
		SampleRatio: 1,
	}
}

func shutdownQuickly(t *testing.T, fn ShutdownFunc) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupOTel_Disabled_NoExporterNoGlobals(t *testing.T) {
	useRecordingClient(t)
	newOTLPClient = func(...otlptracegrpc.Option) otlptrace.Client {
		t.Fatalf("exporter client built while tracing is disabled")
		return nil
	}
	prevTP := otel.GetTracerProvider()

	cfg := enabledCfg()
	cfg.Enabled = false
	shutdown, err := SetupOTel(context.Background(), cfg, "v0")
	if err != nil || shutdown == nil {
		t.Fatalf("shutdown=%v err=%v", shutdown, err)
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatalf("tracer provider replaced while disabled")
	}
	shutdownQuickly(t, shutdown)
}

func TestSetupOTel_ExportsSpansWithServiceResource(t *testing.T) {
	rec := useRecordingClient(t)

	shutdown, err := SetupOTel(context.Background(), enabledCfg(), "v1.2.3")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}
	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatalf("expected *sdktrace.TracerProvider, got %T", otel.GetTracerProvider())
	}

	_, span := otel.Tracer("test").Start(context.Background(), "GET /todos", trace.WithSpanKind(trace.SpanKindServer))
	span.End()
	shutdownQuickly(t, shutdown)

	if starts, stops := rec.counts(); starts != 1 || stops != 1 {
		t.Fatalf("client starts=%d stops=%d", starts, stops)
	}
	uploads := rec.exported()
	if len(uploads) == 0 {
		t.Fatalf("no spans uploaded on shutdown")
	}

	attrs := map[string]string{}
	for _, kv := range uploads[0].GetResource().GetAttributes() {
		attrs[kv.GetKey()] = kv.GetValue().GetStringValue()
	}
	if attrs["service.name"] != "todo-test" || attrs["service.version"] != "v1.2.3" {
		t.Fatalf("service attributes: %v", attrs)
	}
	for _, k := range []string{"host.name", "process.runtime.version"} {
		if attrs[k] == "" {
			t.Fatalf("resource missing %s: %v", k, attrs)
		}
	}

	var found bool
	for _, ss := range uploads[0].GetScopeSpans() {
		for _, s := range ss.GetSpans() {
			if s.GetName() == "GET /todos" && s.GetKind() == tracepb.Span_SPAN_KIND_SERVER {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("server span not exported")
	}
}

func TestSetupOTel_InstallsW3CPropagators(t *testing.T) {
	useRecordingClient(t)

	shutdown, err := SetupOTel(context.Background(), enabledCfg(), "v1")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}
	defer shutdownQuickly(t, shutdown)

	ctx, span := otel.Tracer("test").Start(context.Background(), "outbound")
	defer span.End()

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if !strings.HasPrefix(carrier.Get("traceparent"), "00-"+span.SpanContext().TraceID().String()) {
		t.Fatalf("traceparent = %q", carrier.Get("traceparent"))
	}
}

func TestSetupOTel_TransportModes(t *testing.T) {
	for _, insecure := range []bool{true, false} {
		rec := useRecordingClient(t)
		cfg := enabledCfg()
		cfg.Insecure = insecure

		shutdown, err := SetupOTel(context.Background(), cfg, "v1")
		if err != nil {
			t.Fatalf("insecure=%v: %v", insecure, err)
		}
		shutdownQuickly(t, shutdown)
		if starts, stops := rec.counts(); starts != 1 || stops != 1 {
			t.Fatalf("insecure=%v: starts=%d stops=%d", insecure, starts, stops)
		}
	}
}

func TestSetupOTel_ZeroRatio_DropsNewTraces(t *testing.T) {
	rec := useRecordingClient(t)
	cfg := enabledCfg()
	cfg.SampleRatio = 0

	shutdown, err := SetupOTel(context.Background(), cfg, "v1")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "dropped")
	if span.SpanContext().IsSampled() {
		t.Fatalf("span sampled with ratio 0")
	}
	span.End()
	shutdownQuickly(t, shutdown)

	if n := len(rec.exported()); n != 0 {
		t.Fatalf("unsampled span exported: %d resource spans", n)
	}
}

func TestSetupOTel_ExporterError_WrappedGlobalsUntouched(t *testing.T) {
	useRecordingClient(t)
	boom := errors.New("dial refused")
	newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, boom
	}
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()

	_, err := SetupOTel(context.Background(), enabledCfg(), "v0")
	if !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), "otlp exporter: ") {
		t.Fatalf("err = %v", err)
	}
	if otel.GetTracerProvider() != prevTP || otel.GetTextMapPropagator() != prevProp {
		t.Fatalf("globals changed on exporter failure")
	}
}

func TestSetupOTel_ResourceError_ShutsExporterDown(t *testing.T) {
	rec := useRecordingClient(t)
	boom := errors.New("bad schema url")
	newServiceResourceFn = func(context.Context, string, string) (*resource.Resource, error) {
		return nil, boom
	}
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()

	_, err := SetupOTel(context.Background(), enabledCfg(), "v0")
	if !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), "otel resource: ") {
		t.Fatalf("err = %v", err)
	}
	if starts, stops := rec.counts(); starts != 1 || stops != 1 {
		t.Fatalf("exporter not released: starts=%d stops=%d", starts, stops)
	}
	if otel.GetTracerProvider() != prevTP || otel.GetTextMapPropagator() != prevProp {
		t.Fatalf("globals changed on resource failure")
	}
}

func TestServiceResource_HostAndRuntime(t *testing.T) {
	res, err := newServiceResourceFn(context.Background(), "todo-test", "v2")
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	set := res.Set()
	if v, ok := set.Value(semconv.HostNameKey); !ok || v.AsString() == "" {
		t.Fatalf("host.name missing")
	}
	if v, ok := set.Value(semconv.ProcessRuntimeVersionKey); !ok || v.AsString() != runtime.Version() {
		t.Fatalf("process.runtime.version = %q", v.AsString())
	}
}

// The real gRPC exporter connects lazily, so setup and a bounded shutdown
// must not wait on an absent collector.
func TestSetupOTel_RealExporter_BoundedShutdown(t *testing.T) {
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	cfg := enabledCfg()
	cfg.Endpoint = "127.0.0.1:1"
	shutdown, err := SetupOTel(context.Background(), cfg, "v1")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	_ = shutdown(ctx)
	if d := time.Since(start); d > 2*time.Second {
		t.Fatalf("shutdown took %s", d)
	}
}

func TestSamplerFor(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tc := range cases {
		desc := samplerFor(tc.ratio).Description()
		if !strings.HasPrefix(desc, "ParentBased{root:"+tc.want) {
			t.Fatalf("samplerFor(%v) = %s; want root %s", tc.ratio, desc, tc.want)
		}
	}
}
