package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// MessageDispatcher is the delivery strategy used by the broker. Dispatch
// returns without waiting for any delivery to complete and must reject work
// once the dispatcher has been shut down. Implementations decide scheduling
// and ordering; the bundled AsyncDispatcher makes no per-subscriber ordering
// promise, so callers needing strict FIFO must plug in their own.
type MessageDispatcher interface {
	Dispatch(msg *Message, subs []*Subscription) error

	// Shutdown stops accepting new dispatches and waits for queued and
	// in-flight work until ctx is done, after which remaining work is
	// abandoned and ctx's error returned.
	Shutdown(ctx context.Context) error

	// ShutdownNow stops immediately. Queued deliveries are lost.
	ShutdownNow()

	IsRunning() bool
}

const defaultQueueSize = 10000

type deliveryTask struct {
	msg *Message
	sub *Subscription
}

type dispatcherConfig struct {
	workers         int
	queueSize       int
	deliveryTimeout time.Duration
	logger          *slog.Logger
}

type DispatcherOption func(*dispatcherConfig)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) DispatcherOption {
	return func(c *dispatcherConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithQueueSize bounds the pending-delivery queue.
func WithQueueSize(n int) DispatcherOption {
	return func(c *dispatcherConfig) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithDeliveryTimeout reserves a per-delivery deadline. The async dispatcher
// records it but does not yet enforce it; a stricter dispatcher variant may.
func WithDeliveryTimeout(d time.Duration) DispatcherOption {
	return func(c *dispatcherConfig) {
		if d > 0 {
			c.deliveryTimeout = d
		}
	}
}

func WithDispatchLogger(l *slog.Logger) DispatcherOption {
	return func(c *dispatcherConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// AsyncDispatcher fans deliveries out over a bounded worker pool. Each
// (message, subscription) pair is one independent unit of work. The task
// queue is bounded; when it is full the unit runs on the publishing
// goroutine instead, which is the sole backpressure mechanism: the publisher
// slows down rather than the queue growing without bound.
type AsyncDispatcher struct {
	mu      sync.RWMutex // guards stopped and the tasks send
	stopped bool

	tasks    chan deliveryTask
	quit     chan struct{} // closed to force workers out, dropping queued tasks
	quitOnce sync.Once
	done     chan struct{} // closed once every worker has exited

	deliveryTimeout time.Duration // reserved, not enforced

	log *slog.Logger
}

func NewAsyncDispatcher(opts ...DispatcherOption) *AsyncDispatcher {
	cfg := dispatcherConfig{
		workers:   runtime.GOMAXPROCS(0) * 2,
		queueSize: defaultQueueSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &AsyncDispatcher{
		tasks:           make(chan deliveryTask, cfg.queueSize),
		quit:            make(chan struct{}),
		done:            make(chan struct{}),
		deliveryTimeout: cfg.deliveryTimeout,
		log:             cfg.logger,
	}

	var wg sync.WaitGroup
	for i := 0; i < cfg.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.worker()
		}()
	}
	go func() {
		wg.Wait()
		close(d.done)
	}()

	return d
}

func (d *AsyncDispatcher) worker() {
	for {
		select {
		case <-d.quit:
			return
		case t, ok := <-d.tasks:
			if !ok {
				return
			}
			d.deliver(t.msg, t.sub)
		}
	}
}

// Dispatch schedules one delivery per active subscription and returns
// without waiting for any of them.
func (d *AsyncDispatcher) Dispatch(msg *Message, subs []*Subscription) error {
	if msg == nil {
		return ErrNilMessage
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrClosed
	}

	for _, sub := range subs {
		if sub == nil || !sub.Active() {
			continue
		}
		select {
		case d.tasks <- deliveryTask{msg: msg, sub: sub}:
		default:
			// Queue full: run the unit on the calling goroutine.
			d.deliver(msg, sub)
		}
	}
	return nil
}

// deliver runs one unit of work. Failures stay inside the subscriber: an
// OnMessage error or panic is routed to OnError, and an OnError panic is
// only logged.
func (d *AsyncDispatcher) deliver(msg *Message, sub *Subscription) {
	if !sub.Active() {
		return
	}
	if err := d.callOnMessage(sub.Subscriber(), msg); err != nil {
		d.callOnError(sub.Subscriber(), msg, err)
	}
}

func (d *AsyncDispatcher) callOnMessage(s Subscriber, msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pubsub: subscriber panicked: %v", r)
		}
	}()
	return s.OnMessage(msg)
}

func (d *AsyncDispatcher) callOnError(s Subscriber, msg *Message, cause error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("subscriber error handler failed",
				"subscriber", s.ID(),
				"message", msg.ID(),
				"panic", r)
		}
	}()
	s.OnError(msg, cause)
}

// Shutdown stops intake and drains the queue. If ctx expires first the
// workers are forced out and queued deliveries are dropped. Workers stuck
// inside a subscriber callback finish that callback on their own time.
func (d *AsyncDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		select {
		case <-d.done:
			return nil
		case <-ctx.Done():
			d.quitOnce.Do(func() { close(d.quit) })
			return ctx.Err()
		}
	}
	d.stopped = true
	close(d.tasks)
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.quitOnce.Do(func() { close(d.quit) })
		return ctx.Err()
	}
}

func (d *AsyncDispatcher) ShutdownNow() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.quitOnce.Do(func() { close(d.quit) })
}

func (d *AsyncDispatcher) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.stopped
}
