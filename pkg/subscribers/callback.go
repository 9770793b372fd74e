// Package subscribers provides ready-made Subscriber implementations for the
// common receiving patterns: plain callbacks, structured logging, capture for
// batch processing or tests, and predicate filtering.
package subscribers

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/topichub/pubsub/pkg/pubsub"
)

// Callback adapts plain functions to the Subscriber contract.
type Callback struct {
	id      string
	handler func(*pubsub.Message) error
	onError func(*pubsub.Message, error)
	log     *slog.Logger
}

type CallbackOption func(*Callback)

// WithErrorHandler replaces the default log-only error handler.
func WithErrorHandler(fn func(*pubsub.Message, error)) CallbackOption {
	return func(c *Callback) {
		if fn != nil {
			c.onError = fn
		}
	}
}

func WithCallbackLogger(l *slog.Logger) CallbackOption {
	return func(c *Callback) {
		if l != nil {
			c.log = l
		}
	}
}

// NewCallback wraps handler. An empty id is replaced with a generated one.
func NewCallback(id string, handler func(*pubsub.Message) error, opts ...CallbackOption) *Callback {
	if id == "" {
		id = uuid.NewString()
	}
	c := &Callback{
		id:      id,
		handler: handler,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Callback) ID() string { return c.id }

func (c *Callback) OnMessage(msg *pubsub.Message) error {
	if c.handler == nil {
		return nil
	}
	return c.handler(msg)
}

func (c *Callback) OnError(msg *pubsub.Message, err error) {
	if c.onError != nil {
		c.onError(msg, err)
		return
	}
	c.log.Error("message handling failed",
		"subscriber", c.id,
		"topic", msg.Topic().Name(),
		"error", err)
}
