// Package trace bridges async atom runs into OpenTelemetry spans.
//
// Hook builds an atom.AsyncHook that opens a span when a run starts and
// closes it when the run completes, fails, or is discarded as
// superseded. Install it on a store with atom.WithAsyncHook.
package trace

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/statekit-dev/statekit/pkg/atom"
)

// Default tracer name for statekit spans.
const defaultTracerName = "statekit"

// Config configures the async run tracing hook.
type Config struct {
	// TracerName is the name of the tracer (default: "statekit").
	TracerName string

	// TracerProvider supplies the tracer. Default: the global provider
	// registered with otel.SetTracerProvider.
	TracerProvider oteltrace.TracerProvider

	// AttributeExtractor extracts custom attributes per run.
	AttributeExtractor func(run atom.RunInfo) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer oteltrace.Tracer
}

// Option configures the tracing hook.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider sets an explicit tracer provider.
func WithTracerProvider(provider oteltrace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = provider
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(run atom.RunInfo) []attribute.KeyValue) Option {
	return func(c *Config) {
		c.AttributeExtractor = extractor
	}
}

func defaultConfig() Config {
	return Config{
		TracerName: defaultTracerName,
	}
}

// Hook returns an AsyncHook that traces every async atom run.
//
// Each span carries the store name, atom ID and key, and the run's
// generation. Failed runs record the error and set an error status;
// superseded runs end cleanly with a superseded marker, since being
// out-raced by a newer generation is expected behavior, not a fault.
func Hook(opts ...Option) atom.AsyncHook {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider != nil {
		config.tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		config.tracer = otel.Tracer(config.TracerName)
	}

	return func(ctx context.Context, run atom.RunInfo) (context.Context, func(err error)) {
		attrs := []attribute.KeyValue{
			attribute.String("statekit.store", run.Store),
			attribute.Int64("statekit.atom.id", int64(run.AtomID)),
			attribute.Int64("statekit.generation", int64(run.Generation)),
		}
		if run.AtomKey != "" {
			attrs = append(attrs, attribute.String("statekit.atom.key", run.AtomKey))
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(run)...)
		}

		name := run.AtomKey
		if name == "" {
			name = fmt.Sprintf("atom#%d", run.AtomID)
		}
		ctx, span := config.tracer.Start(ctx, "statekit.async "+name,
			oteltrace.WithSpanKind(oteltrace.SpanKindInternal),
			oteltrace.WithAttributes(attrs...),
		)

		return ctx, func(err error) {
			switch {
			case errors.Is(err, atom.ErrSuperseded):
				span.SetAttributes(attribute.Bool("statekit.superseded", true))
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			default:
				span.SetStatus(codes.Ok, "")
			}
			span.End()
		}
	}
}
