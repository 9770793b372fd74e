package subscribers

import (
	"github.com/topichub/pubsub/pkg/pubsub"
)

// Filtering forwards only messages matching a predicate to the wrapped
// subscriber. It shares the wrapped subscriber's identity, so unsubscribing
// by subscriber id covers both.
type Filtering struct {
	inner pubsub.Subscriber
	keep  func(*pubsub.Message) bool
}

func NewFiltering(inner pubsub.Subscriber, keep func(*pubsub.Message) bool) *Filtering {
	return &Filtering{inner: inner, keep: keep}
}

func (s *Filtering) ID() string { return s.inner.ID() }

func (s *Filtering) OnMessage(msg *pubsub.Message) error {
	if s.keep != nil && !s.keep(msg) {
		return nil
	}
	return s.inner.OnMessage(msg)
}

func (s *Filtering) OnError(msg *pubsub.Message, err error) {
	s.inner.OnError(msg, err)
}
