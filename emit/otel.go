package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns each update into an immediate OpenTelemetry span,
// named after the update type and tagged with execution/node
// attributes. Ported from graph/emit/otel.go's OTelEmitter.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter returns an emitter that records spans via tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

func (o *OTelEmitter) Emit(u Update) {
	_, span := o.tracer.Start(context.Background(), string(u.Type))
	defer span.End()

	span.SetAttributes(
		attribute.String("execution_id", u.ExecutionID),
	)
	if u.NodeID != "" {
		span.SetAttributes(
			attribute.String("node_id", u.NodeID),
			attribute.String("node_type", u.NodeType),
		)
	}
	if errMsg, ok := u.Data["error"].(string); ok && errMsg != "" {
		span.SetStatus(codes.Error, errMsg)
		span.RecordError(fmt.Errorf("%s", errMsg))
	}
}
