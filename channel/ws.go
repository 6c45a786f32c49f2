package channel

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/JairusSW/wipc/demux"
)

// DialWS connects a channel via WebSocket using binary frames. The
// address must be a host and port; connecting at a particular path is
// not supported.
func DialWS(addr string, h demux.Handler) (*Channel, error) {
	ws, err := websocket.Dial(fmt.Sprintf("ws://%s/", addr), "", fmt.Sprintf("http://%s/", addr))
	if err != nil {
		return nil, err
	}
	ws.PayloadType = websocket.BinaryFrame
	return New(ws, h), nil
}

// wsListener wraps a net.Listener and WebSocket server to return
// connected channels.
type wsListener struct {
	net.Listener
	accepted chan *wsConn
	closed   chan struct{}
	once     sync.Once
}

func (l *wsListener) Accept(h demux.Handler) (*Channel, error) {
	select {
	case wc := <-l.accepted:
		return New(wc, h), nil
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *wsListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return l.Listener.Close()
}

func (l *wsListener) Addr() net.Addr {
	return l.Listener.Addr()
}

// wsConn keeps the serving goroutine alive until the channel built on
// it is closed; the websocket package tears the connection down when
// its handler returns.
type wsConn struct {
	*websocket.Conn
	done chan struct{}
	once sync.Once
}

func (c *wsConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.Conn.Close()
}

// ListenWS takes a TCP address and returns a Listener for an
// HTTP+WebSocket server listening on the given address.
func ListenWS(addr string) (Listener, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	wsl := &wsListener{
		Listener: l,
		accepted: make(chan *wsConn),
		closed:   make(chan struct{}),
	}
	srv := &http.Server{
		Addr: addr,
		Handler: websocket.Handler(func(ws *websocket.Conn) {
			ws.PayloadType = websocket.BinaryFrame
			wc := &wsConn{Conn: ws, done: make(chan struct{})}
			select {
			case wsl.accepted <- wc:
				<-wc.done
			case <-wsl.closed:
			}
		}),
	}
	go srv.Serve(l)
	return wsl, nil
}
