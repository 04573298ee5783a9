// Package chardev implements a character-device style byte stream on top of
// a fixed-capacity ring.
//
// A Channel owns one buffer.RingBuffer guarded by an interruptible lock.
// Blocked readers and blocked writers sleep on separate waiter sets, and
// readiness subscribers get an Event per transfer. A Session is a per-open handle bound to one Channel with a
// fixed Mode. A Registry creates a batch of channels atomically and refuses
// to tear them down while sessions are still open.
//
// Read and Write follow the classic monitor loop: take the lock, and while
// the buffer is empty (or full) either fail with ErrWouldBlock, or drop the
// lock, sleep on the waiter set, take the lock again and re-check. Wakeups are
// broadcast to the whole waiter set, so a woken caller may find that someone
// else already took the data and go back to sleep. Transfers may be partial;
// callers that need an exact count loop.
//
// Blocking calls take a context.Context. Cancelling it while the caller is
// asleep (or waiting for the lock) aborts the call with ErrInterrupted, and a
// timeout is just a context with a deadline.
//
// Example usage:
//
//	reg, err := chardev.NewRegistry(chardev.Config{InstanceCount: 2, BufferSize: 4096})
//	if err != nil {
//		return err
//	}
//	defer reg.Close()
//
//	s, err := reg.Open(0, chardev.Blocking)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	n, err := s.Write(ctx, []byte("hello"))
package chardev
