package otel

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	inErrors "github.com/Alturino/checkout/internal/errors"
)

func RecordError(err error, span trace.Span) {
	if err == nil {
		return
	}
	span.AddEvent(err.Error())
	span.SetAttributes(attribute.String("error.code", inErrors.Code(err)))
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
