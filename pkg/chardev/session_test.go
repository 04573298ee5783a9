package chardev

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestOpen(t *testing.T) {
	if _, err := Open(nil, Blocking); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Open(nil) err=%v", err)
	}
	ch := newTestChannel(t, 4)
	if _, err := Open(ch, Mode(7)); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Open(mode 7) err=%v", err)
	}

	a, err := Open(ch, Blocking)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Open(ch, NonBlocking)
	if err != nil {
		t.Fatal(err)
	}
	if a.ID() == b.ID() {
		t.Fatal("sessions share an id")
	}
	if a.Mode() != Blocking || b.Mode() != NonBlocking || a.Channel() != ch {
		t.Fatal("accessors disagree with Open arguments")
	}
}

func TestSessionMode(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t, 2)
	nb, _ := Open(ch, NonBlocking)
	defer nb.Close()

	p := make([]byte, 2)
	if _, err := nb.Read(ctx, p); !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("read on empty err=%v", err)
	}
	if n, err := nb.Write(ctx, []byte("abc")); err != nil || n != 2 {
		t.Fatalf("write n=%d err=%v", n, err)
	}
	if _, err := nb.Write(ctx, []byte("c")); !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("write on full err=%v", err)
	}

	bl, _ := Open(ch, Blocking)
	defer bl.Close()
	tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := bl.Write(tctx, []byte("c")); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("blocking write on full err=%v", err)
	}
}

func TestSessionOperations(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t, 8)
	s, _ := Open(ch, NonBlocking)
	defer s.Close()

	if n, err := s.WriteFrom(ctx, strings.NewReader("hello"), 5); err != nil || n != 5 {
		t.Fatalf("WriteFrom n=%d err=%v", n, err)
	}
	if m, err := s.Poll(ctx); err != nil || m != PollReadable|PollWritable {
		t.Fatalf("Poll=%v err=%v", m, err)
	}
	if m, err := s.PollWait(ctx, PollIn); err != nil || !m.Readable() {
		t.Fatalf("PollWait=%v err=%v", m, err)
	}
	if v, err := s.Control(ctx, QueryReady); err != nil || v != 5 {
		t.Fatalf("Control(ready)=%d err=%v", v, err)
	}
	var out bytes.Buffer
	if n, err := s.ReadTo(ctx, &out, 2); err != nil || out.String() != "he" {
		t.Fatalf("ReadTo n=%d err=%v out=%q", n, err, out.String())
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if q, err := s.Query(ctx); err != nil || q.Ready != 0 || q.Free != 8 {
		t.Fatalf("Query=%+v err=%v", q, err)
	}
}

func TestSessionClose(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t, 4)
	s, _ := Open(ch, Blocking)

	var released int
	s.onClose = func() { released++ }
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if released != 1 {
		t.Fatalf("onClose called %d times", released)
	}

	p := make([]byte, 1)
	checks := map[string]error{}
	_, checks["read"] = s.Read(ctx, p)
	_, checks["write"] = s.Write(ctx, p)
	_, checks["poll"] = s.Poll(ctx)
	_, checks["query"] = s.Query(ctx)
	_, checks["control"] = s.Control(ctx, QuerySize)
	checks["clear"] = s.Clear(ctx)
	checks["notify"] = s.Notify(func(Event) {})
	checks["stop notify"] = s.StopNotify()
	checks["close"] = s.Close()
	for op, err := range checks {
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%s after close err=%v", op, err)
		}
	}
	if released != 1 {
		t.Fatalf("onClose called %d times", released)
	}
}

func TestSessionNotify(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t, 4)
	s, _ := Open(ch, NonBlocking)

	if err := s.Notify(nil); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("Notify(nil) err=%v", err)
	}

	first := make(chan Event, 8)
	second := make(chan Event, 8)
	if err := s.Notify(func(ev Event) { first <- ev }); err != nil {
		t.Fatal(err)
	}
	sub := s.sub
	if err := s.Notify(func(ev Event) { second <- ev }); err != nil {
		t.Fatal(err)
	}
	if s.sub != sub {
		t.Fatal("second Notify created another subscription")
	}

	s.Write(ctx, []byte("x"))
	expectEvent(t, second, Event{Channel: "test", Direction: DirIn})
	select {
	case ev := <-first:
		t.Fatalf("replaced callback got %+v", ev)
	default:
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("subscription not stopped by Close")
	}
	if err := ch.lock(ctx); err != nil {
		t.Fatal(err)
	}
	n := len(ch.subs)
	ch.unlock()
	if n != 0 {
		t.Fatalf("channel still has %d subscribers", n)
	}
}

func TestSessionStopNotify(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t, 4)
	s, _ := Open(ch, NonBlocking)
	defer s.Close()

	if err := s.StopNotify(); err != nil {
		t.Fatalf("StopNotify without subscription: %v", err)
	}
	events := make(chan Event, 8)
	s.Notify(func(ev Event) { events <- ev })
	sub := s.sub
	if err := s.StopNotify(); err != nil {
		t.Fatal(err)
	}
	<-sub.Done()
	s.Write(ctx, []byte("x"))
	select {
	case ev := <-events:
		t.Fatalf("event after StopNotify: %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}
