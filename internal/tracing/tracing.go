// Package tracing installs the OpenTelemetry tracer provider used for the
// per-file refinement spans.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ServiceName tags every exported span.
const ServiceName = "layoutrefine"

// Provider is an installed SDK tracer provider.
type Provider struct {
	*sdktrace.TracerProvider
}

// NewJSON returns a provider that writes each finished span to w as one JSON
// document and makes it the global provider.
func NewJSON(w io.Writer, version string) (*Provider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", ServiceName),
			attribute.String("service.version", version),
		)),
	)
	otel.SetTracerProvider(tp)
	return &Provider{TracerProvider: tp}, nil
}

// Close flushes pending spans and stops the provider.
func (p *Provider) Close(ctx context.Context) error {
	if err := p.ForceFlush(ctx); err != nil {
		return err
	}
	return p.Shutdown(ctx)
}
