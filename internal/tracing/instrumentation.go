package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "rae-scheduler"
)

// StartSchedulerSpan creates a span for scheduler-level operations (Start,
// Stop, AddJob, RemoveJob and friends).
func StartSchedulerSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, "scheduler."+operation, trace.WithAttributes(attrs...))
}

// StartDispatchSpan creates a span covering a tick-loop's evaluation of a
// single due job, from pop-off-the-queue to handoff to the executor.
func StartDispatchSpan(ctx context.Context, jobID, jobName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	attrs = append(attrs,
		attribute.String("job.id", jobID),
		attribute.String("job.name", jobName),
	)
	return tracer.Start(ctx, "job.dispatch", trace.WithAttributes(attrs...))
}

// StartExecuteSpan creates a span for a single attempt of a job's command.
func StartExecuteSpan(ctx context.Context, jobID, jobName string, attempt int, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	attrs = append(attrs,
		attribute.String("job.id", jobID),
		attribute.String("job.name", jobName),
		attribute.Int("job.attempt", attempt),
	)
	return tracer.Start(ctx, "job.execute", trace.WithAttributes(attrs...))
}

// StartRetrySpan creates a span for the backoff wait between two attempts.
func StartRetrySpan(ctx context.Context, jobID string, attempt int, delaySeconds float64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	attrs = append(attrs,
		attribute.String("job.id", jobID),
		attribute.Int("job.attempt", attempt),
		attribute.Float64("job.retry_delay_seconds", delaySeconds),
	)
	return tracer.Start(ctx, "job.retry", trace.WithAttributes(attrs...))
}

// StartTriggerSpan creates a span for a manual (out-of-band) job trigger.
func StartTriggerSpan(ctx context.Context, jobID, jobName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	attrs = append(attrs,
		attribute.String("job.id", jobID),
		attribute.String("job.name", jobName),
	)
	return tracer.Start(ctx, "job.trigger", trace.WithAttributes(attrs...))
}

// RecordError records an error on the span.
func RecordError(span trace.Span, err error, description string) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err, trace.WithAttributes(
		attribute.String("error.description", description),
	))
	span.SetStatus(codes.Error, description)
}

// RecordSuccess marks the span as successful.
func RecordSuccess(span trace.Span) {
	if span == nil {
		return
	}
	span.SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes sets additional attributes on the span.
func SetAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.SetAttributes(attrs...)
}
