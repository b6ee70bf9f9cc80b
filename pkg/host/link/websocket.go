package link

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrConnectionClosed is returned when reading from a failed websocket.
var ErrConnectionClosed = errors.New("websocket connection closed")

// WebSocketOptions configures OpenWebSocket.
type WebSocketOptions struct {
	Username      string
	Password      string
	SkipSSLVerify bool
}

// WebSocketConn carries the byte stream in binary messages.
type WebSocketConn struct {
	conn *websocket.Conn

	buf       []byte
	bufOffset int
	closed    bool

	writeLock sync.Mutex
}

// NewWebSocketConn wraps an established connection.
func NewWebSocketConn(conn *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{conn: conn}
}

// Read implements io.Reader. Non-binary messages are ignored.
func (w *WebSocketConn) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, err
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		w.buf = data
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

// Write implements io.Writer, one message per call.
func (w *WebSocketConn) Write(p []byte) (int, error) {
	w.writeLock.Lock()
	defer w.writeLock.Unlock()
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements io.Closer.
func (w *WebSocketConn) Close() error {
	return w.conn.Close()
}

// OpenWebSocket dials a ws:// or wss:// endpoint.
func OpenWebSocket(wsURL string, opts WebSocketOptions) (Conn, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: DialTimeout}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: opts.SkipSSLVerify}
	}
	headers := http.Header{}
	if opts.Username != "" {
		req := http.Request{Header: headers}
		req.SetBasicAuth(opts.Username, opts.Password)
	}

	ctx, cancel := context.WithTimeout(context.Background(), DialTimeout+5*time.Second)
	defer cancel()
	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection failed: %v", err)
	}
	return NewWebSocketConn(conn), nil
}
