package emit

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns each Event into an OpenTelemetry span: name is
// event.Msg ("flow_start", "retry", ...), attributes carry the run/step
// identifiers plus event.Meta, and the span is ended immediately since
// events represent points in time rather than durations.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter wraps tracer, e.g. otel.Tracer("arx").
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

func (o *OTelEmitter) Emit(event Event) {
	ctx := context.Background()
	_, span := o.tracer.Start(ctx, event.Msg)
	defer span.End()

	o.addStandardAttributes(span, event)
	o.addMetadataAttributes(span, event.Meta)
	o.addRetryAttributes(span, event.Meta)

	if err, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, err)
		span.RecordError(fmt.Errorf("%s", err))
	}
}

// EmitBatch creates one span per event; the configured span processor
// batches the resulting export, not this call.
func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		_, span := o.tracer.Start(ctx, event.Msg)

		o.addStandardAttributes(span, event)
		o.addMetadataAttributes(span, event.Meta)
		o.addRetryAttributes(span, event.Meta)

		if err, ok := event.Meta["error"].(string); ok {
			span.SetStatus(codes.Error, err)
			span.RecordError(fmt.Errorf("%s", err))
		}

		span.End()
	}
	return nil
}

// Flush force-exports any spans buffered by the process's tracer
// provider, when that provider supports it (the default noop provider
// does not, and Flush is then a no-op).
func (o *OTelEmitter) Flush(ctx context.Context) error {
	tp := otel.GetTracerProvider()

	type flusher interface {
		ForceFlush(context.Context) error
	}

	if f, ok := tp.(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}

func (o *OTelEmitter) addStandardAttributes(span trace.Span, event Event) {
	span.SetAttributes(
		attribute.String("arx.run_id", event.RunID),
		attribute.Int("arx.step", event.Step),
		attribute.String("arx.node_id", event.NodeID),
	)
}

// addMetadataAttributes converts event.Meta into span attributes,
// mapping known flow-domain keys to an arx.* namespace and falling
// back to the key's own name (or a string conversion) otherwise.
func (o *OTelEmitter) addMetadataAttributes(span trace.Span, meta map[string]interface{}) {
	if meta == nil {
		return
	}

	for key, value := range meta {
		if key == "attempt" {
			continue // handled by addRetryAttributes
		}

		attrKey := key
		switch key {
		case "persona":
			attrKey = "arx.persona"
		case "exec_mode":
			attrKey = "arx.exec_mode"
		case "branch":
			attrKey = "arx.branch"
		case "reason":
			attrKey = "arx.reason"
		case "flow_id":
			attrKey = "arx.flow_id"
		}

		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String(attrKey, v))
		case int:
			span.SetAttributes(attribute.Int(attrKey, v))
		case int64:
			span.SetAttributes(attribute.Int64(attrKey, v))
		case float64:
			span.SetAttributes(attribute.Float64(attrKey, v))
		case bool:
			span.SetAttributes(attribute.Bool(attrKey, v))
		case time.Duration:
			span.SetAttributes(attribute.Int64(attrKey, int64(v/time.Millisecond)))
		default:
			span.SetAttributes(attribute.String(attrKey, fmt.Sprintf("%v", v)))
		}
	}
}

// addRetryAttributes records the retry attempt number, present on
// "retry" events emitted by the Step Executor's retry loop.
func (o *OTelEmitter) addRetryAttributes(span trace.Span, meta map[string]interface{}) {
	if meta == nil {
		return
	}
	if attempt, ok := meta["attempt"].(int); ok {
		span.SetAttributes(attribute.Int("arx.attempt", attempt))
	} else if attempt, ok := meta["attempt"].(int64); ok {
		span.SetAttributes(attribute.Int64("arx.attempt", attempt))
	}
}
