package chardev

import (
	"sync"

	"github.com/eapache/queue"
)

// maxBacklog bounds the number of undelivered events per subscription.
// Events are level signals, so dropping the oldest loses nothing a
// subscriber could not learn by polling.
const maxBacklog = 64

// Subscription delivers readiness events to one callback. Delivery happens on
// the subscription's own goroutine, never on the goroutine that changed the
// channel state, and in the order the events were posted.
type Subscription struct {
	mu      sync.Mutex
	fn      func(Event)
	backlog *queue.Queue
	closed  bool

	signal chan struct{}
	done   chan struct{}
}

func newSubscription(fn func(Event)) *Subscription {
	s := &Subscription{
		fn:      fn,
		backlog: queue.New(),
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Done is closed once the subscription has stopped delivering.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// setFunc replaces the callback for events not yet delivered.
func (s *Subscription) setFunc(fn func(Event)) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
}

func (s *Subscription) post(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	n := s.backlog.Length()
	if n == 0 || s.backlog.Get(-1).(Event) != ev {
		if n >= maxBacklog {
			s.backlog.Remove()
		}
		s.backlog.Add(ev)
	}
	// signal is closed by stop under mu, so the send must stay under mu too.
	select {
	case s.signal <- struct{}{}:
	default:
	}
	s.mu.Unlock()
}

func (s *Subscription) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.signal)
}

func (s *Subscription) run() {
	defer close(s.done)
	for range s.signal {
		for {
			s.mu.Lock()
			if s.closed || s.backlog.Length() == 0 {
				s.mu.Unlock()
				break
			}
			ev := s.backlog.Remove().(Event)
			fn := s.fn
			s.mu.Unlock()
			fn(ev)
		}
	}
}
