// Package buffer provides the fixed-capacity byte ring that backs every
// ringdev channel.
//
// RingBuffer keeps a read index, a write index and an explicit status. When the
// two indices meet the ring is either empty or full, and only the status can
// tell which, so every index change updates the status in the same step.
//
// RingBuffer is not safe for concurrent use. The chardev package wraps it
// with a lock and wait queues.
//
// Example usage:
//
//	rb, err := buffer.NewRingBuffer(4, nil)
//	if err != nil {
//		return err
//	}
//
//	rb.Write([]byte("AB"))     // 2
//	rb.Ready()                 // 2
//
//	p := make([]byte, 1)
//	rb.Read(p)                 // 1, p == "A"
//	rb.Free()                  // 3
package buffer
