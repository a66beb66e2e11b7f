// Package handlerwrapper standardizes tracing, logging, metrics, payload
// decoding and outbound message construction for watermill handlers.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fragstats/fragstatsd/internal/attr"
)

// Result is one outbound message produced by a handler. The router resolves
// the publish topic from Result.Topic, carried on the message metadata.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// TopicMetadataKey carries the resolved publish topic on produced messages.
const TopicMetadataKey = "topic"

// Metrics is the minimal handler metrics contract.
type Metrics interface {
	RecordHandlerAttempt(handlerName string)
	RecordHandlerSuccess(handlerName string)
	RecordHandlerFailure(handlerName string)
	RecordHandlerDuration(handlerName string, seconds float64)
}

// WrapTyped adapts a typed handler into a watermill message.HandlerFunc.
// It decodes the message payload, runs the handler inside a span with
// metrics, and marshals returned Results into outbound messages.
func WrapTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	metrics Metrics,
	fn func(ctx context.Context, payload *T) ([]Result, error),
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx, span := tracer.Start(msg.Context(), handlerName, trace.WithAttributes(
			attribute.String("handler", handlerName),
			attribute.String("message_id", msg.UUID),
		))
		defer span.End()

		correlationID := msg.Metadata.Get(middleware.CorrelationIDMetadataKey)
		ctx = attr.WithCorrelationID(ctx, correlationID)

		metrics.RecordHandlerAttempt(handlerName)
		startTime := time.Now()
		defer func() {
			metrics.RecordHandlerDuration(handlerName, time.Since(startTime).Seconds())
		}()

		logger.InfoContext(ctx, handlerName+" triggered",
			attr.CorrelationIDFromMsg(msg),
			attr.String("message_id", msg.UUID),
		)

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.ErrorContext(ctx, "Failed to unmarshal payload",
				attr.CorrelationIDFromMsg(msg),
				attr.Error(err),
			)
			metrics.RecordHandlerFailure(handlerName)
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}

		results, err := fn(ctx, payload)
		if err != nil {
			logger.ErrorContext(ctx, "Error in "+handlerName,
				attr.CorrelationIDFromMsg(msg),
				attr.Error(err),
			)
			metrics.RecordHandlerFailure(handlerName)
			span.RecordError(err)
			return nil, err
		}

		outbound, err := toMessages(results, correlationID)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to build outbound messages",
				attr.CorrelationIDFromMsg(msg),
				attr.Error(err),
			)
			metrics.RecordHandlerFailure(handlerName)
			return nil, err
		}

		metrics.RecordHandlerSuccess(handlerName)
		return outbound, nil
	}
}

func toMessages(results []Result, correlationID string) ([]*message.Message, error) {
	if len(results) == 0 {
		return nil, nil
	}

	messages := make([]*message.Message, 0, len(results))
	for _, r := range results {
		data, err := json.Marshal(r.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload for topic %s: %w", r.Topic, err)
		}

		out := message.NewMessage(watermill.NewUUID(), data)
		out.Metadata.Set(TopicMetadataKey, r.Topic)
		if correlationID != "" {
			out.Metadata.Set(middleware.CorrelationIDMetadataKey, correlationID)
		}
		for k, v := range r.Metadata {
			out.Metadata.Set(k, v)
		}
		messages = append(messages, out)
	}
	return messages, nil
}
