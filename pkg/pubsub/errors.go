package pubsub

import "errors"

var (
	ErrClosed         = errors.New("pubsub: dispatcher has been shut down")
	ErrTopicNameEmpty = errors.New("pubsub: topic name must not be empty")
	ErrNilTopic       = errors.New("pubsub: topic must not be nil")
	ErrNilSubscriber  = errors.New("pubsub: subscriber must not be nil")
	ErrNilMessage     = errors.New("pubsub: message must not be nil")
	ErrNilPayload     = errors.New("pubsub: payload must not be nil")
)
