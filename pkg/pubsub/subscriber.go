package pubsub

// Subscriber is the receiving side of the broker. OnMessage is invoked on a
// dispatcher-owned goroutine, never on the publisher's. Returning an error
// (or panicking) routes the failed message to OnError; the failure stays
// inside this subscriber and is never seen by the publisher or by siblings.
type Subscriber interface {
	ID() string
	OnMessage(msg *Message) error
	OnError(msg *Message, err error)
}

// Publisher is a producing-side convenience that stamps its identity into
// every message it emits.
type Publisher interface {
	ID() string
	Publish(topicName string, payload any) (*Message, error)
	PublishTo(topic *Topic, payload any) (*Message, error)
}

// BrokerPublisher is the default Publisher, delegating to a Broker.
type BrokerPublisher struct {
	id     string
	broker *Broker
}

func NewPublisher(id string, broker *Broker) *BrokerPublisher {
	return &BrokerPublisher{id: id, broker: broker}
}

func (p *BrokerPublisher) ID() string { return p.id }

func (p *BrokerPublisher) Publish(topicName string, payload any) (*Message, error) {
	topic, err := p.broker.CreateTopic(topicName)
	if err != nil {
		return nil, err
	}
	return p.PublishTo(topic, payload)
}

func (p *BrokerPublisher) PublishTo(topic *Topic, payload any) (*Message, error) {
	msg, err := NewMessage(topic, payload, p.id)
	if err != nil {
		return nil, err
	}
	if err := p.broker.PublishMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}
