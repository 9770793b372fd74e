package subscribers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/topichub/pubsub/pkg/pubsub"
)

// Collecting captures every received message for later batch processing or
// inspection in tests.
type Collecting struct {
	id string

	mu       sync.Mutex
	received []*pubsub.Message
	errs     []error
}

func NewCollecting(id string) *Collecting {
	if id == "" {
		id = uuid.NewString()
	}
	return &Collecting{id: id}
}

func (s *Collecting) ID() string { return s.id }

func (s *Collecting) OnMessage(msg *pubsub.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, msg)
	return nil
}

func (s *Collecting) OnError(msg *pubsub.Message, err error) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
	slog.Error("delivery failed", "subscriber", s.id, "error", err)
}

// Messages returns a snapshot of everything received so far.
func (s *Collecting) Messages() []*pubsub.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*pubsub.Message, len(s.received))
	copy(out, s.received)
	return out
}

// Payloads returns the payloads of everything received so far.
func (s *Collecting) Payloads() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]any, 0, len(s.received))
	for _, m := range s.received {
		out = append(out, m.Payload())
	}
	return out
}

func (s *Collecting) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]error, len(s.errs))
	copy(out, s.errs)
	return out
}

func (s *Collecting) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func (s *Collecting) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = nil
	s.errs = nil
}

// WaitFor blocks until at least n messages arrived or timeout elapsed.
func (s *Collecting) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if s.Len() >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(2 * time.Millisecond)
	}
}
