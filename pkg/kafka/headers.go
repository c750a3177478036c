package kafka

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Message is a broker-agnostic record. Headers carry string values only.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// headerCarrier adapts message headers to the OpenTelemetry propagator.
type headerCarrier map[string]string

var _ propagation.TextMapCarrier = headerCarrier(nil)

func (h headerCarrier) Get(key string) string { return h[key] }
func (h headerCarrier) Set(key, value string) { h[key] = value }

func (h headerCarrier) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	return keys
}

// withTraceContext returns a copy of headers with the span context of ctx
// injected. The caller's map is left untouched.
func withTraceContext(ctx context.Context, headers map[string]string) map[string]string {
	out := make(headerCarrier, len(headers)+2)
	for k, v := range headers {
		out[k] = v
	}
	otel.GetTextMapPropagator().Inject(ctx, out)
	return out
}

// traceContext extracts the upstream span context carried in headers.
func traceContext(ctx context.Context, headers map[string]string) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, headerCarrier(headers))
}
