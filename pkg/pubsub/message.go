package pubsub

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is the immutable record that flows through the broker. It is
// created once per publish call and never mutated afterwards.
type Message struct {
	id          string
	topic       *Topic
	payload     any
	publisherID string
	timestamp   time.Time
}

// NewMessage builds a message for topic carrying payload. publisherID may be
// empty when the producer is anonymous.
func NewMessage(topic *Topic, payload any, publisherID string) (*Message, error) {
	if topic == nil {
		return nil, ErrNilTopic
	}
	if payload == nil {
		return nil, ErrNilPayload
	}
	return &Message{
		id:          uuid.NewString(),
		topic:       topic,
		payload:     payload,
		publisherID: publisherID,
		timestamp:   time.Now(),
	}, nil
}

func (m *Message) ID() string           { return m.id }
func (m *Message) Topic() *Topic        { return m.topic }
func (m *Message) Payload() any         { return m.payload }
func (m *Message) PublisherID() string  { return m.publisherID }
func (m *Message) Timestamp() time.Time { return m.timestamp }

func (m *Message) String() string {
	return fmt.Sprintf("Message{id=%s topic=%s publisher=%s}", m.id, m.topic.Name(), m.publisherID)
}
