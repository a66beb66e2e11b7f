package notify

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/fragstats/fragstatsd/app/eventbus"
)

// FakeBus captures published messages. PublishFunc, when set, decides the
// publish outcome after capture.
type FakeBus struct {
	PublishFunc func(topic string, messages ...*message.Message) error

	Published []PublishedMessage
}

type PublishedMessage struct {
	Topic   string
	Message *message.Message
}

func (f *FakeBus) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		f.Published = append(f.Published, PublishedMessage{Topic: topic, Message: msg})
	}
	if f.PublishFunc != nil {
		return f.PublishFunc(topic, messages...)
	}
	return nil
}

func (f *FakeBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return nil, nil
}

func (f *FakeBus) Close() error { return nil }

func (f *FakeBus) EnsureStream(ctx context.Context, name string, subjects ...string) error {
	return nil
}

func (f *FakeBus) HealthCheck(ctx context.Context) error { return nil }

var _ eventbus.EventBus = (*FakeBus)(nil)

// FakeNotifyMetrics counts dropped notifications per kind.
type FakeNotifyMetrics struct {
	Dropped map[string]int
}

func NewFakeNotifyMetrics() *FakeNotifyMetrics {
	return &FakeNotifyMetrics{Dropped: map[string]int{}}
}

func (f *FakeNotifyMetrics) RecordNotificationDropped(kind string) { f.Dropped[kind]++ }

var _ Metrics = (*FakeNotifyMetrics)(nil)
