// Package notify publishes informational event notifications onto the bus.
// Kinds are enabled per deployment; everything else is dropped silently at
// the gate, so the player service never marshals a payload nobody wants.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/fragstats/fragstatsd/app/eventbus"
	playerservice "github.com/fragstats/fragstatsd/app/modules/player/application"
	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	"github.com/fragstats/fragstatsd/internal/attr"
)

// Metrics is the slice of observability the publisher records.
type Metrics interface {
	RecordNotificationDropped(kind string)
}

// Publisher implements the player service's Notifier contract over the
// event bus. One message per notification, subject game.notify.<kind>.v1.
type Publisher struct {
	bus     eventbus.EventBus
	logger  *slog.Logger
	metrics Metrics
	enabled map[gameevents.NotificationKind]bool
}

// NewPublisher builds a Publisher gating on the given kinds. Unknown kind
// names are rejected so a config typo cannot silently disable a feed.
func NewPublisher(bus eventbus.EventBus, logger *slog.Logger, metrics Metrics, kinds []string) (*Publisher, error) {
	known := make(map[gameevents.NotificationKind]bool, len(gameevents.AllNotificationKinds()))
	for _, k := range gameevents.AllNotificationKinds() {
		known[k] = true
	}

	enabled := make(map[gameevents.NotificationKind]bool, len(kinds))
	for _, name := range kinds {
		kind := gameevents.NotificationKind(name)
		if !known[kind] {
			return nil, fmt.Errorf("unknown notification kind %q", name)
		}
		enabled[kind] = true
	}

	return &Publisher{
		bus:     bus,
		logger:  logger,
		metrics: metrics,
		enabled: enabled,
	}, nil
}

// IsEventTypeEnabled reports whether a kind should be published at all.
func (p *Publisher) IsEventTypeEnabled(kind gameevents.NotificationKind) bool {
	return p.enabled[kind]
}

func (p *Publisher) NotifyConnect(ctx context.Context, payload *gameevents.PlayerConnectedPayload) error {
	return p.publish(ctx, gameevents.NotifyConnect, payload)
}

func (p *Publisher) NotifyDisconnect(ctx context.Context, payload *gameevents.PlayerDisconnectedPayload) error {
	return p.publish(ctx, gameevents.NotifyDisconnect, payload)
}

func (p *Publisher) NotifySuicide(ctx context.Context, payload *gameevents.PlayerSuicidePayload) error {
	return p.publish(ctx, gameevents.NotifySuicide, payload)
}

func (p *Publisher) NotifyTeamkill(ctx context.Context, payload *gameevents.PlayerTeamkilledPayload) error {
	return p.publish(ctx, gameevents.NotifyTeamkill, payload)
}

func (p *Publisher) NotifyKill(ctx context.Context, payload *gameevents.PlayerKilledPayload) error {
	return p.publish(ctx, gameevents.NotifyKill, payload)
}

func (p *Publisher) publish(ctx context.Context, kind gameevents.NotificationKind, payload any) error {
	if !p.enabled[kind] {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.metrics.RecordNotificationDropped(kind.String())
		return fmt.Errorf("failed to marshal %s notification: %w", kind, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if correlationID := attr.CorrelationIDValue(ctx); correlationID != "" {
		msg.Metadata.Set(middleware.CorrelationIDMetadataKey, correlationID)
	}

	if err := p.bus.Publish(kind.Subject(), msg); err != nil {
		p.metrics.RecordNotificationDropped(kind.String())
		return fmt.Errorf("failed to publish %s notification: %w", kind, err)
	}

	p.logger.DebugContext(ctx, "Notification published",
		attr.ExtractCorrelationID(ctx),
		attr.String("kind", kind.String()),
		attr.String("subject", kind.Subject()),
	)
	return nil
}

var _ playerservice.Notifier = (*Publisher)(nil)
