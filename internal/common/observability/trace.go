package observability

import (
	"context"

	"explainer/internal/common/logger"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures the tracer provider.
type Option func(*traceOptions)

type traceOptions struct {
	processors []sdktrace.SpanProcessor
	sampler    sdktrace.Sampler
}

// WithSpanProcessor adds p to the tracer provider.
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(o *traceOptions) {
		o.processors = append(o.processors, p)
	}
}

// WithSampler replaces the default always-on sampler.
func WithSampler(s sdktrace.Sampler) Option {
	return func(o *traceOptions) {
		o.sampler = s
	}
}

func newTracerProvider(opts ...Option) *sdktrace.TracerProvider {
	o := traceOptions{sampler: sdktrace.AlwaysSample()}
	for _, opt := range opts {
		opt(&o)
	}

	providerOpts := []sdktrace.TracerProviderOption{sdktrace.WithSampler(o.sampler)}
	for _, p := range o.processors {
		providerOpts = append(providerOpts, sdktrace.WithSpanProcessor(p))
	}
	return sdktrace.NewTracerProvider(providerOpts...)
}

// LogSpans writes every ended span to log at debug level.
func (o *Observability) LogSpans(log logger.Logger) {
	if o.tracerProvider == nil || log == nil {
		return
	}
	o.tracerProvider.RegisterSpanProcessor(&logSpanProcessor{logger: log})
}

type logSpanProcessor struct {
	logger logger.Logger
}

func (p *logSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *logSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	fields := map[string]interface{}{
		"span":     s.Name(),
		"traceId":  s.SpanContext().TraceID().String(),
		"spanId":   s.SpanContext().SpanID().String(),
		"duration": s.EndTime().Sub(s.StartTime()).String(),
		"status":   s.Status().Code.String(),
	}
	for _, kv := range s.Attributes() {
		fields[string(kv.Key)] = kv.Value.Emit()
	}
	if desc := s.Status().Description; desc != "" {
		fields["statusDescription"] = desc
	}
	p.logger.Debug("span ended", fields)
}

func (p *logSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *logSpanProcessor) ForceFlush(context.Context) error { return nil }
