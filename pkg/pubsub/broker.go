package pubsub

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Broker is the facade publishers and subscribers interact with. It composes
// a topic registry, a subscription manager and a message dispatcher; all
// operations are safe for concurrent use. Brokers are explicitly constructed
// and owned by the caller, there is no package-level instance.
type Broker struct {
	registry   *TopicRegistry
	manager    SubscriptionManager
	dispatcher MessageDispatcher

	published atomic.Int64 // one per publish call
	delivered atomic.Int64 // one per (message, subscription) scheduled

	log *slog.Logger
}

type Option func(*Broker)

// WithDispatcher replaces the default AsyncDispatcher, e.g. with a
// per-subscriber FIFO strategy.
func WithDispatcher(d MessageDispatcher) Option {
	return func(b *Broker) {
		if d != nil {
			b.dispatcher = d
		}
	}
}

func WithSubscriptionManager(m SubscriptionManager) Option {
	return func(b *Broker) {
		if m != nil {
			b.manager = m
		}
	}
}

func WithRegistry(r *TopicRegistry) Option {
	return func(b *Broker) {
		if r != nil {
			b.registry = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Broker) {
		if l != nil {
			b.log = l
		}
	}
}

// New builds a broker. Without options it uses the async worker-pool
// dispatcher with its defaults.
func New(opts ...Option) *Broker {
	b := &Broker{
		registry: NewTopicRegistry(),
		manager:  NewSubscriptionManager(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.dispatcher == nil {
		b.dispatcher = NewAsyncDispatcher(WithDispatchLogger(b.log))
	}
	return b
}

// CreateTopic registers name and returns its shared Topic instance.
func (b *Broker) CreateTopic(name string) (*Topic, error) {
	return b.registry.GetOrCreate(name)
}

func (b *Broker) Topics() []*Topic { return b.registry.Topics() }

func (b *Broker) TopicExists(name string) bool { return b.registry.Exists(name) }

// Subscribe binds subscriber to the named topic, registering the topic
// first so a subscription never references an unregistered topic.
func (b *Broker) Subscribe(topicName string, subscriber Subscriber) (*Subscription, error) {
	topic, err := b.registry.GetOrCreate(topicName)
	if err != nil {
		return nil, err
	}
	return b.SubscribeTopic(topic, subscriber)
}

func (b *Broker) SubscribeTopic(topic *Topic, subscriber Subscriber) (*Subscription, error) {
	if topic == nil {
		return nil, ErrNilTopic
	}
	if subscriber == nil {
		return nil, ErrNilSubscriber
	}
	if _, err := b.registry.GetOrCreate(topic.Name()); err != nil {
		return nil, err
	}

	sub := NewSubscription(topic, subscriber)
	b.manager.AddSubscription(sub)
	b.log.Debug("subscribed", "topic", topic.Name(), "subscriber", subscriber.ID(), "subscription", sub.ID())
	return sub, nil
}

// Unsubscribe removes the subscription with the given id. It reports false
// when the id is unknown or already removed.
func (b *Broker) Unsubscribe(id string) bool {
	_, ok := b.manager.RemoveSubscription(id)
	return ok
}

func (b *Broker) UnsubscribeSubscription(sub *Subscription) bool {
	if sub == nil {
		return false
	}
	return b.Unsubscribe(sub.ID())
}

// UnsubscribeAll removes every subscription held by subscriberID and returns
// how many were removed.
func (b *Broker) UnsubscribeAll(subscriberID string) int {
	return len(b.manager.RemoveSubscriberFromAll(subscriberID))
}

// Subscriptions returns the active subscriptions for the named topic.
func (b *Broker) Subscriptions(topicName string) []*Subscription {
	topic, ok := b.registry.Get(topicName)
	if !ok {
		return nil
	}
	return b.manager.Subscriptions(topic)
}

func (b *Broker) SubscriberCount(topicName string) int {
	return len(b.Subscriptions(topicName))
}

// SubscriptionsBySubscriber returns the active subscriptions held by
// subscriberID across all topics.
func (b *Broker) SubscriptionsBySubscriber(subscriberID string) []*Subscription {
	return b.manager.SubscriptionsBySubscriber(subscriberID)
}

func (b *Broker) HasSubscribers(topicName string) bool {
	topic, ok := b.registry.Get(topicName)
	if !ok {
		return false
	}
	return b.manager.HasSubscribers(topic)
}

// PublishMessage hands msg to the dispatcher using a point-in-time snapshot
// of the topic's active subscriptions. Subscriptions added after the
// snapshot do not receive msg; subscriptions removed after it still do.
func (b *Broker) PublishMessage(msg *Message) error {
	if msg == nil {
		return ErrNilMessage
	}
	if _, err := b.registry.GetOrCreate(msg.Topic().Name()); err != nil {
		return err
	}

	snapshot := b.manager.Subscriptions(msg.Topic())
	if len(snapshot) > 0 {
		if err := b.dispatcher.Dispatch(msg, snapshot); err != nil {
			return err
		}
		b.delivered.Add(int64(len(snapshot)))
	}
	b.published.Add(1)
	return nil
}

// Publish builds a message for the named topic and publishes it.
func (b *Broker) Publish(topicName string, payload any) (*Message, error) {
	topic, err := b.registry.GetOrCreate(topicName)
	if err != nil {
		return nil, err
	}
	return b.PublishTo(topic, payload)
}

func (b *Broker) PublishTo(topic *Topic, payload any) (*Message, error) {
	msg, err := NewMessage(topic, payload, "")
	if err != nil {
		return nil, err
	}
	if err := b.PublishMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// PublishedCount is the number of successful publish calls.
func (b *Broker) PublishedCount() int64 { return b.published.Load() }

// DeliveredCount is the number of scheduled deliveries (messages times
// subscribers at snapshot time).
func (b *Broker) DeliveredCount() int64 { return b.delivered.Load() }

func (b *Broker) TotalSubscriptionCount() int { return b.manager.SubscriptionCount() }

func (b *Broker) ActiveTopics() []*Topic { return b.manager.ActiveTopics() }

// Shutdown drains pending deliveries until ctx is done.
func (b *Broker) Shutdown(ctx context.Context) error { return b.dispatcher.Shutdown(ctx) }

func (b *Broker) ShutdownNow() { b.dispatcher.ShutdownNow() }

func (b *Broker) IsRunning() bool { return b.dispatcher.IsRunning() }

func (b *Broker) ClearSubscriptions() { b.manager.Clear() }
