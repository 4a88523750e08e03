package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/abhisek/leetprob"

// Tracer returns the tracer used across the app. Spans are no-ops unless the
// embedding program installs a global TracerProvider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// RecordError marks the span as failed.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
