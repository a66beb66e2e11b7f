// Package eventbus provides the NATS JetStream transport: one watermill
// publisher/subscriber pair over a shared connection, plus the stream
// management the daemon runs at bootstrap.
package eventbus

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/nats-io/nkeys"

	"github.com/fragstats/fragstatsd/internal/attr"
)

// EventBus is the transport facade handed to routers and publishers.
type EventBus interface {
	message.Publisher
	message.Subscriber
	EnsureStream(ctx context.Context, name string, subjects ...string) error
	HealthCheck(ctx context.Context) error
}

// Config holds the connection settings. NKeySeedFile is optional; when set
// the connection authenticates by signing server nonces with the seed.
type Config struct {
	URL          string
	NKeySeedFile string
}

type jetStreamBus struct {
	conn       *nc.Conn
	js         jetstream.JetStream
	publisher  *nats.Publisher
	subscriber *nats.Subscriber
	logger     *slog.Logger

	streamMu sync.Mutex
	ensured  map[string]bool
}

// New connects to NATS and builds the watermill publisher and subscriber.
// Streams are not auto-provisioned; callers run EnsureStream at bootstrap.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (EventBus, error) {
	opts, err := connectOptions(cfg, logger)
	if err != nil {
		return nil, err
	}

	conn, err := nc.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	watermillLogger := watermill.NewSlogLogger(logger)
	marshaler := &nats.NATSMarshaler{}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:         cfg.URL,
			NatsOptions: opts,
			Marshaler:   marshaler,
			JetStream: nats.JetStreamConfig{
				Disabled:      false,
				AutoProvision: false,
			},
		},
		watermillLogger,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create watermill publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:            cfg.URL,
			CloseTimeout:   30 * time.Second,
			AckWaitTimeout: 30 * time.Second,
			NatsOptions:    opts,
			Unmarshaler:    marshaler,
			JetStream: nats.JetStreamConfig{
				Disabled:      false,
				AutoProvision: false,
				SubscribeOptions: []nc.SubOpt{
					nc.DeliverAll(),
					nc.AckExplicit(),
				},
			},
		},
		watermillLogger,
	)
	if err != nil {
		if closeErr := publisher.Close(); closeErr != nil {
			logger.ErrorContext(ctx, "Error closing publisher during setup rollback", attr.Error(closeErr))
		}
		conn.Close()
		return nil, fmt.Errorf("failed to create watermill subscriber: %w", err)
	}

	return &jetStreamBus{
		conn:       conn,
		js:         js,
		publisher:  publisher,
		subscriber: subscriber,
		logger:     logger,
		ensured:    make(map[string]bool),
	}, nil
}

func connectOptions(cfg Config, logger *slog.Logger) ([]nc.Option, error) {
	opts := []nc.Option{
		nc.Name("fragstatsd"),
		nc.RetryOnFailedConnect(true),
		nc.Timeout(30 * time.Second),
		nc.ReconnectWait(1 * time.Second),
		nc.ErrorHandler(func(_ *nc.Conn, sub *nc.Subscription, err error) {
			if sub != nil {
				logger.Error("NATS subscription error",
					attr.String("subject", sub.Subject),
					attr.Error(err),
				)
				return
			}
			logger.Error("NATS connection error", attr.Error(err))
		}),
	}
	if cfg.NKeySeedFile != "" {
		opt, err := nkeyOption(cfg.NKeySeedFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

// nkeyOption validates the seed up front so a bad file fails at startup, not
// on the first reconnect.
func nkeyOption(seedFile string) (nc.Option, error) {
	seed, err := os.ReadFile(seedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read nkey seed file: %w", err)
	}
	kp, err := nkeys.FromSeed(bytes.TrimSpace(seed))
	if err != nil {
		return nil, fmt.Errorf("invalid nkey seed: %w", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive nkey public key: %w", err)
	}
	return nc.Nkey(pub, kp.Sign), nil
}

func (b *jetStreamBus) Publish(topic string, messages ...*message.Message) error {
	return b.publisher.Publish(topic, messages...)
}

func (b *jetStreamBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	b.logger.InfoContext(ctx, "Subscribing to subject", attr.String("subject", topic))
	return b.subscriber.Subscribe(ctx, topic)
}

// HealthCheck verifies the connection state and one JetStream round trip.
func (b *jetStreamBus) HealthCheck(ctx context.Context) error {
	if status := b.conn.Status(); status != nc.CONNECTED {
		return fmt.Errorf("nats connection is %s", status)
	}
	if _, err := b.js.AccountInfo(ctx); err != nil {
		return fmt.Errorf("jetstream account lookup failed: %w", err)
	}
	return nil
}

// Close releases the watermill endpoints, then the shared connection.
func (b *jetStreamBus) Close() error {
	if err := b.publisher.Close(); err != nil {
		b.logger.Error("Error closing NATS publisher", attr.Error(err))
	}
	if err := b.subscriber.Close(); err != nil {
		b.logger.Error("Error closing NATS subscriber", attr.Error(err))
	}
	b.conn.Close()
	return nil
}
