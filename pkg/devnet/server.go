package devnet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/haivivi/ringdev/pkg/chardev"
)

// maxPending bounds the requests queued behind the running one on a single
// connection. Requests beyond it fail at once with chardev.ErrBusy.
const maxPending = 1024

// Server exposes the channels of a Registry to remote clients. Each
// connection owns exactly one session, opened by its first frame.
type Server struct {
	// Registry provides the devices. Required.
	Registry *chardev.Registry

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// OnOpen and OnClose are called as sessions come and go.
	OnOpen  func(s *chardev.Session, remote net.Addr)
	OnClose func(s *chardev.Session)

	running atomic.Bool
	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	closed  bool
	wg      sync.WaitGroup
}

// Serve accepts connections from ln until ln is closed or Close is called.
func (s *Server) Serve(ln net.Listener) error {
	if s.running.Swap(true) {
		return ErrAlreadyRunning
	}
	s.logger().Info("devnet: serving", "addr", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.running.Load() && !errors.Is(err, net.ErrClosed) {
				return err
			}
			return nil
		}
		go s.ServeConn(conn)
	}
}

// ServeConn handles a single connection and returns when it ends.
func (s *Server) ServeConn(conn net.Conn) {
	if !s.track(conn) {
		conn.Close()
		return
	}
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	c := newCodec(conn)
	sess, err := s.open(c)
	if err != nil {
		s.logger().Debug("devnet: open failed", "remote", conn.RemoteAddr(), "error", err)
		return
	}
	if s.OnOpen != nil {
		s.OnOpen(sess, conn.RemoteAddr())
	}

	sc := &serverConn{
		logger:   s.logger().With("session", sess.ID(), "remote", conn.RemoteAddr()),
		codec:    c,
		sess:     sess,
		backlog:  queue.New(),
		signal:   make(chan struct{}, 1),
		canceled: make(map[uint64]struct{}),
	}
	sc.run()

	if s.OnClose != nil {
		s.OnClose(sess)
	}
	if err := sess.Close(); err != nil {
		sc.logger.Warn("devnet: session close", "error", err)
	}
}

// Close disconnects every client and waits for their sessions to close. The
// listener passed to Serve is owned by the caller.
func (s *Server) Close() error {
	s.running.Store(false)
	s.mu.Lock()
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if s.conns == nil {
		s.conns = make(map[net.Conn]struct{})
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) open(c *codec) (*chardev.Session, error) {
	f, err := c.read()
	if err != nil {
		return nil, err
	}
	resp := &Frame{Type: FrameResponse, ID: f.ID, Op: OpOpen}
	if f.Type != FrameRequest || f.Op != OpOpen {
		err = fmt.Errorf("%w: first frame is %s %q, want open", ErrProtocol, f.Type, f.Op)
		resp.setErr(err)
		c.write(resp)
		return nil, err
	}
	if s.Registry == nil {
		err = fmt.Errorf("%w: no registry", chardev.ErrInvalidRequest)
		resp.setErr(err)
		c.write(resp)
		return nil, err
	}
	sess, err := s.Registry.Open(f.Device, f.Mode)
	if err != nil {
		resp.setErr(err)
		c.write(resp)
		return nil, err
	}
	resp.Session = sess.ID().String()
	if err := c.write(resp); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// serverConn runs one session. The reader never blocks on request
// execution: requests are queued and run one at a time, in arrival order,
// while cancels and the connection closing are seen immediately.
type serverConn struct {
	logger *slog.Logger
	codec  *codec
	sess   *chardev.Session

	signal chan struct{}

	mu       sync.Mutex
	backlog  *queue.Queue // of *Frame
	closing  bool
	cur      uint64
	cancel   context.CancelFunc
	started  uint64
	canceled map[uint64]struct{}
}

func (sc *serverConn) run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sc.work(ctx)
	}()

	err := sc.readLoop()
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		sc.logger.Debug("devnet: read failed", "error", err)
	}
	cancel()
	sc.mu.Lock()
	sc.closing = true
	close(sc.signal)
	sc.mu.Unlock()
	<-done
}

func (sc *serverConn) readLoop() error {
	for {
		f, err := sc.codec.read()
		if err != nil {
			return err
		}
		switch f.Type {
		case FrameRequest:
			sc.enqueue(f)
		case FrameCancel:
			sc.cancelRequest(f.ID)
		default:
			return fmt.Errorf("%w: unexpected %s frame", ErrProtocol, f.Type)
		}
	}
}

func (sc *serverConn) enqueue(f *Frame) {
	sc.mu.Lock()
	if sc.backlog.Length() >= maxPending {
		sc.mu.Unlock()
		sc.reply(f, nil, fmt.Errorf("%w: %d requests pending", chardev.ErrBusy, maxPending))
		return
	}
	sc.backlog.Add(f)
	select {
	case sc.signal <- struct{}{}:
	default:
	}
	sc.mu.Unlock()
}

// next pops the oldest queued request, or returns nil when the queue is
// empty or the connection is going away.
func (sc *serverConn) next() *Frame {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closing || sc.backlog.Length() == 0 {
		return nil
	}
	return sc.backlog.Remove().(*Frame)
}

func (sc *serverConn) work(ctx context.Context) {
	for range sc.signal {
		for f := sc.next(); f != nil; f = sc.next() {
			sc.exec(ctx, f)
		}
	}
}

func (sc *serverConn) cancelRequest(id uint64) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	switch {
	case sc.cancel != nil && sc.cur == id:
		sc.cancel()
	case id > sc.started:
		sc.canceled[id] = struct{}{}
	}
}

func (sc *serverConn) begin(parent context.Context, id uint64) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.started = id
	sc.cur = id
	sc.cancel = cancel
	if _, ok := sc.canceled[id]; ok {
		delete(sc.canceled, id)
		cancel()
	}
	return ctx, cancel
}

func (sc *serverConn) end() {
	sc.mu.Lock()
	sc.cancel = nil
	sc.mu.Unlock()
}

func (sc *serverConn) exec(parent context.Context, f *Frame) {
	ctx, cancel := sc.begin(parent, f.ID)
	resp, err := sc.dispatch(ctx, f)
	sc.end()
	cancel()
	sc.reply(f, resp, err)
}

func (sc *serverConn) reply(f, resp *Frame, err error) {
	if resp == nil {
		resp = &Frame{}
	}
	resp.Type = FrameResponse
	resp.ID = f.ID
	resp.Op = f.Op
	if err != nil {
		resp.setErr(err)
	}
	sc.logger.Debug("devnet: request", "op", f.Op, "id", f.ID, "error", err)
	if err := sc.codec.write(resp); err != nil {
		sc.logger.Debug("devnet: write failed", "error", err)
	}
}

func (sc *serverConn) dispatch(ctx context.Context, f *Frame) (*Frame, error) {
	switch f.Op {
	case OpRead:
		if f.Count <= 0 || f.Count > MaxTransfer {
			return nil, fmt.Errorf("%w: read count %d", chardev.ErrInvalidRequest, f.Count)
		}
		buf := make([]byte, f.Count)
		n, err := sc.sess.Read(ctx, buf)
		if err != nil {
			return nil, err
		}
		return &Frame{N: n, Data: buf[:n]}, nil

	case OpWrite:
		if len(f.Data) > MaxTransfer {
			return nil, fmt.Errorf("%w: write of %d bytes", chardev.ErrInvalidRequest, len(f.Data))
		}
		n, err := sc.sess.Write(ctx, f.Data)
		return &Frame{N: n}, err

	case OpPoll:
		m, err := sc.sess.Poll(ctx)
		return &Frame{Mask: m}, err

	case OpPollWait:
		m, err := sc.sess.PollWait(ctx, f.Want)
		return &Frame{Mask: m}, err

	case OpQuery:
		q, err := sc.sess.Query(ctx)
		if err != nil {
			return nil, err
		}
		return &Frame{Query: &q}, nil

	case OpControl:
		v, err := sc.sess.Control(ctx, f.Code)
		return &Frame{N: v}, err

	case OpClear:
		return nil, sc.sess.Clear(ctx)

	case OpNotify:
		return nil, sc.sess.Notify(sc.pushEvent)

	case OpUnnotify:
		return nil, sc.sess.StopNotify()

	case OpOpen:
		return nil, fmt.Errorf("%w: session already open", chardev.ErrInvalidRequest)

	default:
		return nil, fmt.Errorf("%w: unknown op %q", chardev.ErrInvalidRequest, f.Op)
	}
}

func (sc *serverConn) pushEvent(ev chardev.Event) {
	if err := sc.codec.write(&Frame{Type: FrameEvent, Event: &ev}); err != nil {
		sc.logger.Debug("devnet: event dropped", "error", err)
	}
}
