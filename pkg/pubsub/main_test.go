package pubsub

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubSubscriber records deliveries and routed errors; optional hooks let
// tests inject failures.
type stubSubscriber struct {
	id        string
	onMessage func(*Message) error
	onError   func(*Message, error)

	mu       sync.Mutex
	received []*Message
	errs     []error
}

func newStub(id string) *stubSubscriber {
	return &stubSubscriber{id: id}
}

func (s *stubSubscriber) ID() string { return s.id }

func (s *stubSubscriber) OnMessage(m *Message) error {
	if s.onMessage != nil {
		if err := s.onMessage(m); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.received = append(s.received, m)
	s.mu.Unlock()
	return nil
}

func (s *stubSubscriber) OnError(m *Message, err error) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
	if s.onError != nil {
		s.onError(m, err)
	}
}

func (s *stubSubscriber) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func (s *stubSubscriber) errCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs)
}

func (s *stubSubscriber) messages() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Message, len(s.received))
	copy(out, s.received)
	return out
}

func waitUntil(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(2 * time.Millisecond)
	}
}
