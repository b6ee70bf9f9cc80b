package sim

import (
	"context"
	"net"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/drive.go/pkg/framework"
)

// ServeTCP attaches every accepted connection to the hub until ctx is
// done.
func (h *Hub) ServeTCP(ctx context.Context, ln net.Listener) error {
	return framework.RunWithContextCloser(ctx, ln, func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			go h.Serve(ctx, "tcp:"+conn.RemoteAddr().String(), conn)
		}
	})
}

// WebSocketHandler serves the hub over websocket, the byte stream carried
// in binary frames. Origin is not checked.
func (h *Hub) WebSocketHandler(ctx context.Context) http.Handler {
	return websocket.Server{
		Handler: func(conn *websocket.Conn) {
			conn.PayloadType = websocket.BinaryFrame
			err := h.Serve(ctx, "ws:"+conn.Request().RemoteAddr, conn)
			glog.V(2).Infof("websocket %s: %v", conn.Request().RemoteAddr, err)
		},
	}
}
