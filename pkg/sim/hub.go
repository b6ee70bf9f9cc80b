package sim

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/drive.go/pkg/framework"
)

// hubQueue is the number of pending writes per client before output to
// that client is dropped.
const hubQueue = 64

type hubConn struct {
	name string
	out  chan []byte
}

// Hub is the simulated UART shared by any number of host connections.
// The device side reads what hosts write and its output is copied to
// every host.
type Hub struct {
	rx      chan []byte
	pending []byte

	lock      sync.Mutex
	conns     map[*hubConn]struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{
		rx:     make(chan []byte, hubQueue),
		conns:  make(map[*hubConn]struct{}),
		closed: make(chan struct{}),
	}
}

// Read implements io.Reader for the device side.
func (h *Hub) Read(p []byte) (int, error) {
	if len(h.pending) == 0 {
		select {
		case b := <-h.rx:
			h.pending = b
		case <-h.closed:
			return 0, io.EOF
		}
	}
	n := copy(p, h.pending)
	h.pending = h.pending[n:]
	return n, nil
}

// Write implements io.Writer for the device side. A host not keeping up
// loses output, like a UART without flow control.
func (h *Hub) Write(p []byte) (int, error) {
	h.lock.Lock()
	defer h.lock.Unlock()
	for c := range h.conns {
		select {
		case c.out <- append([]byte(nil), p...):
		default:
			glog.V(2).Infof("hub: %s overrun, %d bytes dropped", c.name, len(p))
		}
	}
	return len(p), nil
}

// Clients returns the number of attached hosts.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.conns)
}

// Close detaches the device side.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() { close(h.closed) })
	return nil
}

// Serve attaches a host connection until it fails or ctx is done.
func (h *Hub) Serve(ctx context.Context, name string, conn io.ReadWriteCloser) error {
	c := &hubConn{name: name, out: make(chan []byte, hubQueue)}
	h.lock.Lock()
	h.conns[c] = struct{}{}
	h.lock.Unlock()
	glog.Infof("hub: %s attached", name)
	defer func() {
		h.lock.Lock()
		delete(h.conns, c)
		h.lock.Unlock()
		glog.Infof("hub: %s detached", name)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		for {
			select {
			case b := <-c.out:
				if _, err := conn.Write(b); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return framework.RunWithContextCloser(ctx, conn, func() error {
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				select {
				case h.rx <- append([]byte(nil), buf[:n]...):
				case <-h.closed:
					return io.EOF
				}
			}
			if err != nil {
				return err
			}
		}
	})
}
