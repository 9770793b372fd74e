package pubsub

import "sync"

// SubscriptionManager keeps the broker's subscription bookkeeping. All
// methods are safe for concurrent use. Query results are point-in-time
// snapshots filtered to active subscriptions.
type SubscriptionManager interface {
	// AddSubscription indexes sub. It returns false without mutating
	// anything when a subscription with the same id is already present.
	AddSubscription(sub *Subscription) bool

	// RemoveSubscription unindexes and deactivates the subscription with the
	// given id. Removing an unknown (or already removed) id is a no-op.
	RemoveSubscription(id string) (*Subscription, bool)

	// RemoveSubscriberFromAll removes every subscription currently held by
	// subscriberID and returns the removed set.
	RemoveSubscriberFromAll(subscriberID string) []*Subscription

	// Subscriptions returns the active subscriptions for topic.
	Subscriptions(topic *Topic) []*Subscription

	// SubscriptionsBySubscriber returns the active subscriptions held by
	// subscriberID across all topics.
	SubscriptionsBySubscriber(subscriberID string) []*Subscription

	HasSubscribers(topic *Topic) bool
	SubscriptionCount() int
	ActiveTopics() []*Topic

	// Clear deactivates every subscription and empties all indices.
	Clear()
}

// subscriptionManager indexes subscriptions three ways: by topic name for the
// publish hot path, by subscription id for idempotent removal, and by
// subscriber id for bulk disconnect. A single lock over the three maps keeps
// them mutually consistent after every add/remove.
type subscriptionManager struct {
	mu           sync.RWMutex
	byID         map[string]*Subscription
	byTopic      map[string]map[string]*Subscription // topic name -> subscription id -> subscription
	bySubscriber map[string]map[string]struct{}      // subscriber id -> subscription ids
}

func NewSubscriptionManager() SubscriptionManager {
	return &subscriptionManager{
		byID:         make(map[string]*Subscription),
		byTopic:      make(map[string]map[string]*Subscription),
		bySubscriber: make(map[string]map[string]struct{}),
	}
}

func (m *subscriptionManager) AddSubscription(sub *Subscription) bool {
	if sub == nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[sub.ID()]; exists {
		return false
	}
	m.byID[sub.ID()] = sub

	topicName := sub.Topic().Name()
	if m.byTopic[topicName] == nil {
		m.byTopic[topicName] = make(map[string]*Subscription)
	}
	m.byTopic[topicName][sub.ID()] = sub

	subscriberID := sub.Subscriber().ID()
	if m.bySubscriber[subscriberID] == nil {
		m.bySubscriber[subscriberID] = make(map[string]struct{})
	}
	m.bySubscriber[subscriberID][sub.ID()] = struct{}{}

	return true
}

func (m *subscriptionManager) RemoveSubscription(id string) (*Subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(id)
}

// removeLocked unindexes id from all three maps, pruning now-empty buckets.
// Caller holds mu.
func (m *subscriptionManager) removeLocked(id string) (*Subscription, bool) {
	sub, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	delete(m.byID, id)

	topicName := sub.Topic().Name()
	if bucket := m.byTopic[topicName]; bucket != nil {
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(m.byTopic, topicName)
		}
	}

	subscriberID := sub.Subscriber().ID()
	if ids := m.bySubscriber[subscriberID]; ids != nil {
		delete(ids, id)
		if len(ids) == 0 {
			delete(m.bySubscriber, subscriberID)
		}
	}

	sub.deactivate()
	return sub, true
}

func (m *subscriptionManager) RemoveSubscriberFromAll(subscriberID string) []*Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.bySubscriber[subscriberID]
	if len(ids) == 0 {
		return nil
	}

	// Snapshot the id set first: removeLocked mutates it.
	snapshot := make([]string, 0, len(ids))
	for id := range ids {
		snapshot = append(snapshot, id)
	}

	removed := make([]*Subscription, 0, len(snapshot))
	for _, id := range snapshot {
		if sub, ok := m.removeLocked(id); ok {
			removed = append(removed, sub)
		}
	}
	return removed
}

func (m *subscriptionManager) Subscriptions(topic *Topic) []*Subscription {
	if topic == nil {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	bucket := m.byTopic[topic.Name()]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]*Subscription, 0, len(bucket))
	for _, sub := range bucket {
		if sub.Active() {
			out = append(out, sub)
		}
	}
	return out
}

func (m *subscriptionManager) SubscriptionsBySubscriber(subscriberID string) []*Subscription {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.bySubscriber[subscriberID]
	if len(ids) == 0 {
		return nil
	}
	out := make([]*Subscription, 0, len(ids))
	for id := range ids {
		if sub, ok := m.byID[id]; ok && sub.Active() {
			out = append(out, sub)
		}
	}
	return out
}

func (m *subscriptionManager) HasSubscribers(topic *Topic) bool {
	if topic == nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.byTopic[topic.Name()] {
		if sub.Active() {
			return true
		}
	}
	return false
}

func (m *subscriptionManager) SubscriptionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, sub := range m.byID {
		if sub.Active() {
			n++
		}
	}
	return n
}

func (m *subscriptionManager) ActiveTopics() []*Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Topic, 0, len(m.byTopic))
	for _, bucket := range m.byTopic {
		for _, sub := range bucket {
			if sub.Active() {
				out = append(out, sub.Topic())
				break
			}
		}
	}
	return out
}

func (m *subscriptionManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.byID {
		sub.deactivate()
	}
	m.byID = make(map[string]*Subscription)
	m.byTopic = make(map[string]map[string]*Subscription)
	m.bySubscriber = make(map[string]map[string]struct{})
}
