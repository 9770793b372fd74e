package subscribers

import (
	"log/slog"

	"github.com/topichub/pubsub/pkg/pubsub"
)

// Logging writes every delivery to a structured logger.
type Logging struct {
	id  string
	log *slog.Logger
}

func NewLogging(id string, log *slog.Logger) *Logging {
	if log == nil {
		log = slog.Default()
	}
	return &Logging{id: id, log: log}
}

func (s *Logging) ID() string { return s.id }

func (s *Logging) OnMessage(msg *pubsub.Message) error {
	s.log.Info("message received",
		"subscriber", s.id,
		"topic", msg.Topic().Name(),
		"payload", msg.Payload(),
		"publisher", msg.PublisherID())
	return nil
}

func (s *Logging) OnError(msg *pubsub.Message, err error) {
	s.log.Error("delivery failed",
		"subscriber", s.id,
		"topic", msg.Topic().Name(),
		"error", err)
}
