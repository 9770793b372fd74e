package pubsub

import "sync"

// Topic is a named channel that messages are published to. Topics are
// immutable and compared by name; the registry guarantees one shared
// instance per name, so holders may also compare pointers.
type Topic struct {
	name string
}

// Name returns the topic name.
func (t *Topic) Name() string { return t.name }

func (t *Topic) String() string { return t.name }

// TopicRegistry hands out one shared *Topic per name.
type TopicRegistry struct {
	mu     sync.RWMutex // guards topics
	topics map[string]*Topic
}

func NewTopicRegistry() *TopicRegistry {
	return &TopicRegistry{
		topics: make(map[string]*Topic),
	}
}

// GetOrCreate returns the topic registered under name, creating it if
// needed. Concurrent calls for the same new name observe the same instance.
func (r *TopicRegistry) GetOrCreate(name string) (*Topic, error) {
	if name == "" {
		return nil, ErrTopicNameEmpty
	}

	r.mu.RLock()
	t, ok := r.topics[name]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.topics[name]; ok {
		return t, nil
	}
	t = &Topic{name: name}
	r.topics[name] = t
	return t, nil
}

// Get returns the topic registered under name, if any.
func (r *TopicRegistry) Get(name string) (*Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.topics[name]
	return t, ok
}

func (r *TopicRegistry) Exists(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Remove forgets the topic registered under name and returns it. A later
// GetOrCreate for the same name produces a fresh instance.
func (r *TopicRegistry) Remove(name string) (*Topic, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.topics[name]
	if ok {
		delete(r.topics, name)
	}
	return t, ok
}

// Topics returns a snapshot of every registered topic.
func (r *TopicRegistry) Topics() []*Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Topic, 0, len(r.topics))
	for _, t := range r.topics {
		out = append(out, t)
	}
	return out
}

// TopicNames returns a snapshot of every registered topic name.
func (r *TopicRegistry) TopicNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.topics))
	for name := range r.topics {
		out = append(out, name)
	}
	return out
}

func (r *TopicRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics)
}
