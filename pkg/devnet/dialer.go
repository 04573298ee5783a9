package devnet

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Dialer opens the transport for a Client.
type Dialer func(ctx context.Context, addr string, tlsConfig *tls.Config) (net.Conn, error)

// DefaultDialer understands tcp://, tls://, ws:// and wss:// addresses. A
// bare host:port is dialed over TCP.
func DefaultDialer(ctx context.Context, addr string, tlsConfig *tls.Config) (net.Conn, error) {
	if !strings.Contains(addr, "://") {
		return dialTCP(ctx, withPort(addr, DefaultPort))
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("devnet: bad address %q: %w", addr, err)
	}

	switch scheme := strings.ToLower(u.Scheme); scheme {
	case "tcp":
		return dialTCP(ctx, withPort(u.Host, DefaultPort))

	case "tls":
		return dialTLS(ctx, withPort(u.Host, DefaultTLSPort), tlsConfig)

	case "ws", "wss":
		port := "80"
		if scheme == "wss" {
			port = "443"
		}
		path := u.Path
		if path == "" {
			path = WebSocketPath
		}
		return dialWebSocket(ctx, scheme+"://"+withPort(u.Host, port)+path, tlsConfig)

	default:
		return nil, fmt.Errorf("devnet: unsupported scheme: %s", scheme)
	}
}

func dialTCP(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

func dialTLS(ctx context.Context, addr string, config *tls.Config) (net.Conn, error) {
	if config == nil {
		host, _, _ := net.SplitHostPort(addr)
		config = &tls.Config{ServerName: host}
	}
	d := tls.Dialer{Config: config}
	return d.DialContext(ctx, "tcp", addr)
}

func dialWebSocket(ctx context.Context, urlStr string, tlsConfig *tls.Config) (net.Conn, error) {
	dialer := websocket.Dialer{
		Subprotocols:    []string{subprotocol},
		TLSClientConfig: tlsConfig,
	}
	ws, _, err := dialer.DialContext(ctx, urlStr, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{ws: ws}, nil
}

// wsConn adapts a message oriented websocket.Conn to the byte stream the
// frame codec expects. Every Write becomes one binary message.
type wsConn struct {
	ws      *websocket.Conn
	pending []byte
	writeMu sync.Mutex
}

func (c *wsConn) Read(b []byte) (int, error) {
	for len(c.pending) == 0 {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return 0, err
		}
		c.pending = data
	}
	n := copy(b, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *wsConn) Write(b []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (c *wsConn) Close() error                       { return c.ws.Close() }
func (c *wsConn) LocalAddr() net.Addr                { return c.ws.LocalAddr() }
func (c *wsConn) RemoteAddr() net.Addr               { return c.ws.RemoteAddr() }
func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.ws.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.ws.SetWriteDeadline(t) }

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

var _ net.Conn = (*wsConn)(nil)
