package devnet

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/haivivi/ringdev/pkg/chardev"
)

// ClientConfig is the configuration for a Client.
type ClientConfig struct {
	// Addr is the server address:
	//   - host:port or tcp://host:port (default port 7360)
	//   - tls://host:port (default port 7361)
	//   - ws://host:port/path and wss://host:port/path (default path /ringdev)
	Addr string

	// Device is the index of the channel to open.
	Device int

	// Mode is fixed for the life of the session.
	Mode chardev.Mode

	// TLSConfig is used for tls:// and wss:// addresses.
	TLSConfig *tls.Config

	// ConnectTimeout bounds dialing and the open handshake.
	// Default is 10 seconds.
	ConnectTimeout time.Duration

	// Dialer defaults to DefaultDialer.
	Dialer Dialer

	// OnEvent receives readiness events after Notify. It runs on the
	// client's read goroutine and must not block.
	OnEvent func(chardev.Event)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c *ClientConfig) setDefaults() {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.Dialer == nil {
		c.Dialer = DefaultDialer
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client is a session on a remote device. Its methods mirror
// chardev.Session; errors unwrap to the chardev sentinels.
type Client struct {
	cfg     ClientConfig
	conn    net.Conn
	codec   *codec
	session string

	sendMu  sync.Mutex
	nextID  uint64
	mu      sync.Mutex
	pending map[uint64]chan *Frame
	err     error
	done    chan struct{}
}

// Connect dials cfg.Addr and opens a session on cfg.Device.
func Connect(ctx context.Context, cfg ClientConfig) (*Client, error) {
	cfg.setDefaults()

	dctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	conn, err := cfg.Dialer(dctx, cfg.Addr, cfg.TLSConfig)
	if err != nil {
		return nil, fmt.Errorf("devnet: dial %s: %w", cfg.Addr, err)
	}
	c, err := newClient(dctx, conn, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func newClient(ctx context.Context, conn net.Conn, cfg ClientConfig) (*Client, error) {
	c := &Client{
		cfg:     cfg,
		conn:    conn,
		codec:   newCodec(conn),
		pending: make(map[uint64]chan *Frame),
		done:    make(chan struct{}),
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	c.nextID = 1
	if err := c.codec.write(&Frame{Type: FrameRequest, ID: c.nextID, Op: OpOpen, Device: cfg.Device, Mode: cfg.Mode}); err != nil {
		return nil, fmt.Errorf("devnet: open: %w", err)
	}
	resp, err := c.codec.read()
	if err != nil {
		return nil, fmt.Errorf("devnet: open: %w", err)
	}
	if resp.Type != FrameResponse || resp.ID != c.nextID {
		return nil, fmt.Errorf("%w: open answered by %s %d", ErrProtocol, resp.Type, resp.ID)
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	conn.SetDeadline(time.Time{})
	c.session = resp.Session

	go c.readLoop()
	return c, nil
}

// Session returns the server assigned session id.
func (c *Client) Session() string { return c.session }

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close ends the session and the connection.
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Client) readLoop() {
	var err error
	defer func() {
		c.mu.Lock()
		c.err = err
		c.pending = nil
		c.mu.Unlock()
		close(c.done)
	}()

	for {
		var f *Frame
		f, err = c.codec.read()
		if err != nil {
			return
		}
		switch f.Type {
		case FrameEvent:
			if f.Event != nil && c.cfg.OnEvent != nil {
				c.cfg.OnEvent(*f.Event)
			}
		case FrameResponse:
			c.mu.Lock()
			ch, ok := c.pending[f.ID]
			delete(c.pending, f.ID)
			c.mu.Unlock()
			if ok {
				ch <- f
			}
		default:
			c.cfg.Logger.Debug("devnet: unexpected frame", "type", f.Type)
		}
	}
}

func (c *Client) closedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return fmt.Errorf("%w: %w", ErrClosed, c.err)
	}
	return ErrClosed
}

// call sends f and waits for its response. If ctx ends first the server is
// asked to interrupt the request, and call still waits for the response so
// a transfer that completed in the meantime is not lost.
func (c *Client) call(ctx context.Context, f *Frame) (*Frame, error) {
	f.Type = FrameRequest
	ch := make(chan *Frame, 1)

	c.sendMu.Lock()
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		c.sendMu.Unlock()
		return nil, c.closedErr()
	}
	c.nextID++
	f.ID = c.nextID
	c.pending[f.ID] = ch
	c.mu.Unlock()
	err := c.codec.write(f)
	c.sendMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("devnet: send %s: %w", f.Op, err)
	}

	select {
	case resp := <-ch:
		return resp, resp.Err()
	case <-c.done:
		return nil, c.closedErr()
	case <-ctx.Done():
	}

	if err := c.codec.write(&Frame{Type: FrameCancel, ID: f.ID}); err != nil {
		return nil, c.closedErr()
	}
	select {
	case resp := <-ch:
		if err := resp.Err(); err != nil {
			if errors.Is(err, chardev.ErrInterrupted) {
				return resp, fmt.Errorf("%w: %w", err, context.Cause(ctx))
			}
			return resp, err
		}
		return resp, nil
	case <-c.done:
		return nil, c.closedErr()
	}
}

// Read reads up to len(p) bytes.
func (c *Client) Read(ctx context.Context, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	resp, err := c.call(ctx, &Frame{Op: OpRead, Count: min(len(p), MaxTransfer)})
	if err != nil {
		return 0, err
	}
	return copy(p, resp.Data), nil
}

// Write writes up to len(p) bytes; the count may be short.
func (c *Client) Write(ctx context.Context, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	resp, err := c.call(ctx, &Frame{Op: OpWrite, Data: p[:min(len(p), MaxTransfer)]})
	if err != nil {
		return 0, err
	}
	return resp.N, nil
}

// Poll reports the device's readiness.
func (c *Client) Poll(ctx context.Context) (chardev.PollMask, error) {
	resp, err := c.call(ctx, &Frame{Op: OpPoll})
	if err != nil {
		return chardev.PollErr, err
	}
	return resp.Mask, nil
}

// PollWait waits until any bit of want is set.
func (c *Client) PollWait(ctx context.Context, want chardev.PollMask) (chardev.PollMask, error) {
	resp, err := c.call(ctx, &Frame{Op: OpPollWait, Want: want})
	if err != nil {
		return chardev.PollErr, err
	}
	return resp.Mask, nil
}

// Query returns the device counters.
func (c *Client) Query(ctx context.Context) (chardev.Query, error) {
	resp, err := c.call(ctx, &Frame{Op: OpQuery})
	if err != nil {
		return chardev.Query{}, err
	}
	if resp.Query == nil {
		return chardev.Query{}, fmt.Errorf("%w: query response without counters", ErrProtocol)
	}
	return *resp.Query, nil
}

// Control returns one counter.
func (c *Client) Control(ctx context.Context, code chardev.QueryCode) (int, error) {
	resp, err := c.call(ctx, &Frame{Op: OpControl, Code: code})
	if err != nil {
		return 0, err
	}
	return resp.N, nil
}

// Clear discards the device content.
func (c *Client) Clear(ctx context.Context) error {
	_, err := c.call(ctx, &Frame{Op: OpClear})
	return err
}

// Notify starts event delivery to ClientConfig.OnEvent.
func (c *Client) Notify(ctx context.Context) error {
	_, err := c.call(ctx, &Frame{Op: OpNotify})
	return err
}

// StopNotify stops event delivery.
func (c *Client) StopNotify(ctx context.Context) error {
	_, err := c.call(ctx, &Frame{Op: OpUnnotify})
	return err
}
