package eventbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	gameevents "github.com/fragstats/fragstatsd/app/modules/player/domain/events"
	"github.com/fragstats/fragstatsd/internal/attr"
)

// ProvisionStreams creates the daemon's stream topology when missing:
// one stream for inbound game events, one for outbound notifications.
func ProvisionStreams(ctx context.Context, bus EventBus) error {
	if err := bus.EnsureStream(ctx, gameevents.GameEventStream, gameevents.GameEventWildcard); err != nil {
		return fmt.Errorf("failed to provision %s: %w", gameevents.GameEventStream, err)
	}
	if err := bus.EnsureStream(ctx, gameevents.NotifyStream, gameevents.NotifyWildcard); err != nil {
		return fmt.Errorf("failed to provision %s: %w", gameevents.NotifyStream, err)
	}
	return nil
}

// EnsureStream creates the stream if absent, or widens its subject list to
// cover the requested subjects. Already-ensured names short-circuit.
func (b *jetStreamBus) EnsureStream(ctx context.Context, name string, subjects ...string) error {
	b.streamMu.Lock()
	defer b.streamMu.Unlock()

	if b.ensured[name] {
		return nil
	}

	stream, err := b.js.Stream(ctx, name)
	if err != nil && !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream %s: %w", name, err)
	}

	if errors.Is(err, jetstream.ErrStreamNotFound) {
		_, err := b.js.CreateStream(ctx, jetstream.StreamConfig{
			Name:     name,
			Subjects: subjects,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", name, err)
		}
		b.logger.InfoContext(ctx, "Stream created",
			attr.String("stream", name),
			attr.Any("subjects", subjects),
		)
		b.ensured[name] = true
		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stream info for %s: %w", name, err)
	}

	existing := make(map[string]bool, len(info.Config.Subjects))
	for _, s := range info.Config.Subjects {
		existing[s] = true
	}
	var missing []string
	for _, s := range subjects {
		if !existing[s] {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		info.Config.Subjects = append(info.Config.Subjects, missing...)
		if _, err := b.js.UpdateStream(ctx, info.Config); err != nil {
			return fmt.Errorf("failed to update stream %s subjects: %w", name, err)
		}
		b.logger.InfoContext(ctx, "Stream subjects widened",
			attr.String("stream", name),
			attr.Any("subjects", missing),
		)
	}

	b.ensured[name] = true
	return nil
}
