package stream

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"

	"golang.org/x/net/websocket"
)

// Dialer opens the byte stream STOMP frames travel over.
type Dialer interface {
	Dial(ctx context.Context) (io.ReadWriteCloser, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context) (io.ReadWriteCloser, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	return f(ctx)
}

// WebSocketDialer connects to a STOMP-over-WebSocket endpoint. For a SockJS
// endpoint registered at /ws the raw WebSocket transport lives at /ws/websocket.
type WebSocketDialer struct {
	URL    string
	Origin string
	Header http.Header
}

// Dial implements Dialer.
func (d WebSocketDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	origin := d.Origin
	if origin == "" {
		origin = "http://localhost/"
	}
	cfg, err := websocket.NewConfig(d.URL, origin)
	if err != nil {
		return nil, fmt.Errorf("websocket config: %w", err)
	}
	if d.Header != nil {
		cfg.Header = d.Header.Clone()
	}
	// Spring's STOMP handler negotiates the sub-protocol from this list.
	cfg.Protocol = []string{"v12.stomp", "v11.stomp", "v10.stomp"}

	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", d.URL, err)
	}
	return conn, nil
}

// TCPDialer connects to a plain STOMP broker port.
type TCPDialer struct {
	Addr string
}

// Dial implements Dialer.
func (d TCPDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	var nd net.Dialer
	conn, err := nd.DialContext(ctx, "tcp", d.Addr)
	if err != nil {
		return nil, fmt.Errorf("tcp dial %s: %w", d.Addr, err)
	}
	return conn, nil
}
