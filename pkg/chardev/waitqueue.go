package chardev

// waitQueue is a broadcast wait set. A waiter registers by taking the
// current generation channel while holding the channel lock; a wake detaches
// that generation so the next waiter gets a fresh one, and closes it after
// the lock has been released. Every waiter of a generation is woken.
//
// Registering before the lock is dropped is what rules out lost wakeups: a
// state change that happens between the unlock and the select has to go
// through wake, which closes the generation the waiter already holds.
type waitQueue struct {
	gen chan struct{}
}

// arm returns the channel the caller should wait on. The lock must be held.
func (q *waitQueue) arm() <-chan struct{} {
	if q.gen == nil {
		q.gen = make(chan struct{})
	}
	return q.gen
}

// detach removes the current generation and returns a func that wakes it.
// The lock must be held; the returned func may be called without it.
func (q *waitQueue) detach() func() {
	gen := q.gen
	q.gen = nil
	if gen == nil {
		return func() {}
	}
	return func() { close(gen) }
}
