package devnet

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Default ports per network.
const (
	DefaultPort    = "7360"
	DefaultTLSPort = "7361"
)

// WebSocketPath is the HTTP path served by ws and wss listeners.
const WebSocketPath = "/ringdev"

const subprotocol = "ringdev"

// Listen creates a listener for the given network and address.
//
// Network can be:
//   - "tcp" for plain TCP (default port 7360)
//   - "tls" for TLS (default port 7361)
//   - "ws" for WebSocket (default port 80)
//   - "wss" for WebSocket over TLS (default port 443)
//
// tls and wss need tlsConfig.
func Listen(network, addr string, tlsConfig *tls.Config) (net.Listener, error) {
	switch strings.ToLower(network) {
	case "tcp", "":
		return net.Listen("tcp", withPort(addr, DefaultPort))

	case "tls":
		if tlsConfig == nil {
			return nil, fmt.Errorf("devnet: tls config required for tls listener")
		}
		return tls.Listen("tcp", withPort(addr, DefaultTLSPort), tlsConfig)

	case "ws":
		return newWSListener(withPort(addr, "80"), nil)

	case "wss":
		if tlsConfig == nil {
			return nil, fmt.Errorf("devnet: tls config required for wss listener")
		}
		return newWSListener(withPort(addr, "443"), tlsConfig)

	default:
		return nil, fmt.Errorf("devnet: unsupported network: %s", network)
	}
}

func withPort(addr, port string) string {
	if strings.Contains(addr, ":") {
		return addr
	}
	return net.JoinHostPort(addr, port)
}

// wsListener turns upgraded WebSocket requests into net.Conns.
type wsListener struct {
	ln        net.Listener
	connCh    chan net.Conn
	errCh     chan error
	closeOnce sync.Once
	closeCh   chan struct{}
	server    *http.Server
	upgrader  websocket.Upgrader
}

func newWSListener(addr string, tlsConfig *tls.Config) (*wsListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		ln = tls.NewListener(ln, tlsConfig)
	}

	l := &wsListener{
		ln:      ln,
		connCh:  make(chan net.Conn, 16),
		errCh:   make(chan error, 1),
		closeCh: make(chan struct{}),
		upgrader: websocket.Upgrader{
			Subprotocols: []string{subprotocol},
			CheckOrigin:  func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, l.handleWS)
	l.server = &http.Server{Handler: mux}

	go func() {
		err := l.server.Serve(ln)
		if err != nil && err != http.ErrServerClosed {
			select {
			case l.errCh <- err:
			default:
			}
		}
	}()

	return l, nil
}

func (l *wsListener) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	conn := &wsConn{ws: ws}
	select {
	case l.connCh <- conn:
	case <-l.closeCh:
		conn.Close()
	}
}

func (l *wsListener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.connCh:
		return conn, nil
	case err := <-l.errCh:
		return nil, err
	case <-l.closeCh:
		return nil, net.ErrClosed
	}
}

func (l *wsListener) Close() error {
	l.closeOnce.Do(func() {
		close(l.closeCh)
		l.server.Close()
	})
	return nil
}

func (l *wsListener) Addr() net.Addr {
	return l.ln.Addr()
}

// MultiListener accepts from several listeners at once, so one Server can
// serve tcp and ws clients together.
type MultiListener struct {
	listeners []net.Listener
	connCh    chan net.Conn
	errCh     chan error
	closeOnce sync.Once
	closeCh   chan struct{}
}

// NewMultiListener starts accepting on every listener.
func NewMultiListener(listeners ...net.Listener) *MultiListener {
	ml := &MultiListener{
		listeners: listeners,
		connCh:    make(chan net.Conn),
		errCh:     make(chan error, len(listeners)),
		closeCh:   make(chan struct{}),
	}
	for _, ln := range listeners {
		go ml.acceptLoop(ln)
	}
	return ml
}

func (ml *MultiListener) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case ml.errCh <- err:
			case <-ml.closeCh:
			}
			return
		}
		select {
		case ml.connCh <- conn:
		case <-ml.closeCh:
			conn.Close()
			return
		}
	}
}

func (ml *MultiListener) Accept() (net.Conn, error) {
	select {
	case conn := <-ml.connCh:
		return conn, nil
	case err := <-ml.errCh:
		return nil, err
	case <-ml.closeCh:
		return nil, net.ErrClosed
	}
}

func (ml *MultiListener) Close() error {
	ml.closeOnce.Do(func() {
		close(ml.closeCh)
		for _, ln := range ml.listeners {
			ln.Close()
		}
	})
	return nil
}

// Addr returns the address of the first listener.
func (ml *MultiListener) Addr() net.Addr {
	if len(ml.listeners) > 0 {
		return ml.listeners[0].Addr()
	}
	return nil
}

// ListenURL is Listen for addresses written as network://host:port. A bare
// host:port listens on tcp.
func ListenURL(rawURL string, tlsConfig *tls.Config) (net.Listener, error) {
	network, addr, ok := strings.Cut(rawURL, "://")
	if !ok {
		network, addr = "tcp", rawURL
	}
	return Listen(network, addr, tlsConfig)
}
