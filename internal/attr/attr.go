// Package attr provides typed slog attribute constructors shared by all
// modules, plus correlation id propagation between the message transport
// and structured logs.
package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

type correlationIDKey struct{}

// WithCorrelationID stores the message correlation id on the context so
// service-layer logs can reference it without carrying the message around.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// ExtractCorrelationID returns a correlation_id attribute from the context,
// or "unknown" when the event did not travel through the router.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if v, ok := ctx.Value(correlationIDKey{}).(string); ok && v != "" {
		return slog.String("correlation_id", v)
	}
	return slog.String("correlation_id", "unknown")
}

// CorrelationIDValue returns the raw correlation id carried on the context,
// or "" when none was set.
func CorrelationIDValue(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return v
	}
	return ""
}

// CorrelationIDFromMsg reads the watermill correlation id metadata.
func CorrelationIDFromMsg(msg *message.Message) slog.Attr {
	return slog.String("correlation_id", msg.Metadata.Get(middleware.CorrelationIDMetadataKey))
}

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Float64(key string, value float64) slog.Attr { return slog.Float64(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Time(key string, value time.Time) slog.Attr { return slog.Time(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// PlayerID tags a persistent player id.
func PlayerID(value int64) slog.Attr { return slog.Int64("player_id", value) }

// ServerID tags the originating game server.
func ServerID(value int64) slog.Attr { return slog.Int64("server_id", value) }

// EventType tags the inbound event kind.
func EventType(value string) slog.Attr { return slog.String("event_type", value) }
