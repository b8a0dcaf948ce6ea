// Package notify publishes "the data at this address changed" events to
// registered observers.
//
// Addresses are slash-separated paths. A subscription on an address also
// receives changes to every descendant address: a subscriber of /tasks is
// told about /tasks/5.
//
// Delivery is asynchronous. Each subscription owns an unbounded FIFO queue
// drained by its own goroutine, so NotifyChange never waits for observers,
// and one slow observer never delays another. Changes to a subscription are
// delivered in the order NotifyChange was called.
package notify

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned by Register after Close.
var ErrClosed = errors.New("notifier closed")

// Change is a single change event.
type Change struct {
	// Address is the address passed to NotifyChange.
	Address string `json:"address"`
	// Seq increases strictly with every published change.
	Seq int64 `json:"seq"`
	// At is the publish time.
	At time.Time `json:"at"`
}

// Observer receives change events.
type Observer interface {
	OnChange(Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Change)

// OnChange calls f(c).
func (f ObserverFunc) OnChange(c Change) { f(c) }

// Notifier is an address-tree observer registry. Safe for concurrent use.
type Notifier struct {
	mu     sync.Mutex
	subs   map[string]*Subscription
	closed bool

	seq    sequence
	wg     sync.WaitGroup
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Notifier. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		subs:   make(map[string]*Subscription),
		logger: logger,
		now:    time.Now,
	}
}

// Register subscribes obs to changes at address and its descendants.
// The returned Subscription must be closed to stop delivery.
func (n *Notifier) Register(address string, obs Observer) (*Subscription, error) {
	if obs == nil {
		return nil, fmt.Errorf("register %q: nil observer", address)
	}

	s := &Subscription{
		id:       uuid.Must(uuid.NewV7()).String(),
		address:  normalize(address),
		observer: obs,
		queue:    newChangeQueue(),
		done:     make(chan struct{}),
		n:        n,
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil, ErrClosed
	}
	n.subs[s.id] = s
	n.wg.Add(1)
	n.mu.Unlock()

	go s.deliver()

	n.logger.Debug("observer registered", "subscription", s.id, "address", s.address)
	return s, nil
}

// NotifyChange publishes a change at address to every subscription on the
// address or one of its ancestors. It never blocks on observers.
// Returns the number of subscriptions the change was queued for.
func (n *Notifier) NotifyChange(address string) int {
	address = normalize(address)

	// Holding mu across stamping and enqueueing keeps Seq order and queue
	// order identical for concurrent publishers.
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return 0
	}

	c := Change{Address: address, Seq: n.seq.Next(), At: n.now()}
	queued := 0
	for _, s := range n.subs {
		if covers(s.address, address) && s.queue.Enqueue(c) {
			queued++
		}
	}

	n.logger.Debug("change published", "address", address, "seq", c.Seq, "subscribers", queued)
	return queued
}

// Subscribers returns the number of open subscriptions.
func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// LastSeq returns the Seq of the most recent change.
func (n *Notifier) LastSeq() int64 {
	return n.seq.Current()
}

// Close closes every subscription and waits for delivery goroutines to
// exit. Changes still queued are dropped. Close must not be called from
// inside an observer.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	subs := n.subs
	n.subs = make(map[string]*Subscription)
	n.mu.Unlock()

	for _, s := range subs {
		s.queue.Close()
	}
	n.wg.Wait()
}

func (n *Notifier) remove(s *Subscription) {
	n.mu.Lock()
	delete(n.subs, s.id)
	n.mu.Unlock()
}

// Subscription is one observer registration.
type Subscription struct {
	id       string
	address  string
	observer Observer
	queue    *changeQueue
	done     chan struct{}
	n        *Notifier
}

// ID returns the subscription's unique, time-sortable id.
func (s *Subscription) ID() string { return s.id }

// Address returns the normalized address the subscription watches.
func (s *Subscription) Address() string { return s.address }

// Pending returns the number of queued, undelivered changes.
func (s *Subscription) Pending() int { return s.queue.Len() }

// Done is closed when the delivery goroutine has exited.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close stops delivery. An observer call already in progress completes;
// queued changes are dropped. Safe to call more than once and from inside
// the observer.
func (s *Subscription) Close() {
	s.n.remove(s)
	s.queue.Close()
}

func (s *Subscription) deliver() {
	defer s.n.wg.Done()
	defer close(s.done)

	for range s.queue.Wait() {
		for !s.queue.isClosed() {
			c, ok := s.queue.TryDequeue()
			if !ok {
				break
			}
			s.call(c)
		}
	}
}

// call invokes the observer, containing panics so one faulty observer
// cannot take down the publisher's process.
func (s *Subscription) call(c Change) {
	defer func() {
		if r := recover(); r != nil {
			s.n.logger.Error("observer panicked", "subscription", s.id, "address", c.Address, "panic", r)
		}
	}()
	s.observer.OnChange(c)
}

// normalize gives every address a single leading slash and no trailing one.
func normalize(address string) string {
	return "/" + strings.Trim(address, "/")
}

// covers reports whether a subscription on sub receives changes at addr.
func covers(sub, addr string) bool {
	if sub == "/" || sub == addr {
		return true
	}
	return strings.HasPrefix(addr, sub+"/")
}
