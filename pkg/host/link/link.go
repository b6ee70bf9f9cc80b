// Package link opens byte links to a vehicle: a serial port, a websocket
// or a TCP socket.
package link

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Conn is a bidirectional byte link.
type Conn interface {
	io.ReadWriteCloser
}

// DialTimeout bounds network connects.
var DialTimeout = 10 * time.Second

// OpenTCP connects to a raw TCP endpoint, e.g. the simulator.
func OpenTCP(addr string) (Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s: %v", addr, err)
	}
	return conn, nil
}

// Open opens a link from a URL:
//
//	serial:///dev/ttyUSB0?baud=115200
//	tcp://localhost:7000
//	ws://localhost:7001/uart
//
// A plain device path is opened as a serial port at DefaultBaud.
func Open(rawURL string) (Conn, error) {
	if !strings.Contains(rawURL, "://") {
		return OpenSerial(rawURL, DefaultBaud)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid link URL %q: %v", rawURL, err)
	}
	switch u.Scheme {
	case "serial":
		baud := DefaultBaud
		if s := u.Query().Get("baud"); s != "" {
			if baud, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("invalid baud rate %q: %v", s, err)
			}
		}
		name := u.Path
		if u.Host != "" {
			name = u.Host + u.Path
		}
		return OpenSerial(name, baud)
	case "tcp":
		return OpenTCP(u.Host)
	case "ws", "wss":
		return OpenWebSocket(rawURL, WebSocketOptions{})
	}
	return nil, fmt.Errorf("unsupported link scheme: %s (use serial://, tcp:// or ws://)", u.Scheme)
}
