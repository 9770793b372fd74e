package pubsub

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Subscription binds one subscriber to one topic. The topic and subscriber
// references are fixed for the subscription's lifetime; only the active flag
// changes, and only once: deactivation is permanent.
type Subscription struct {
	id         string
	topic      *Topic
	subscriber Subscriber
	active     atomic.Bool
}

func NewSubscription(topic *Topic, subscriber Subscriber) *Subscription {
	s := &Subscription{
		id:         uuid.NewString(),
		topic:      topic,
		subscriber: subscriber,
	}
	s.active.Store(true)
	return s
}

func (s *Subscription) ID() string             { return s.id }
func (s *Subscription) Topic() *Topic          { return s.topic }
func (s *Subscription) Subscriber() Subscriber { return s.subscriber }

// Active reports whether the subscription still receives deliveries.
func (s *Subscription) Active() bool { return s.active.Load() }

func (s *Subscription) deactivate() { s.active.Store(false) }
