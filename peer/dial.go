package peer

import (
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/net/websocket"

	"github.com/JairusSW/wipc/codec"
)

// A Dialer connects to an address and returns a transport for a peer.
type Dialer func(addr string) (io.ReadWriteCloser, error)

// Dialers is a map of transport names to Dialers and includes all
// builtin transports.
var Dialers map[string]Dialer

func init() {
	Dialers = map[string]Dialer{
		"tcp":  netDialer("tcp"),
		"unix": netDialer("unix"),
		"ws":   dialWS,
		"stdio": func(string) (io.ReadWriteCloser, error) {
			return stdioTransport{os.Stdout, os.Stdin}, nil
		},
	}
}

func netDialer(proto string) Dialer {
	return func(addr string) (io.ReadWriteCloser, error) {
		return net.Dial(proto, addr)
	}
}

func dialWS(addr string) (io.ReadWriteCloser, error) {
	ws, err := websocket.Dial(fmt.Sprintf("ws://%s/", addr), "", fmt.Sprintf("http://%s/", addr))
	if err != nil {
		return nil, err
	}
	ws.PayloadType = websocket.BinaryFrame
	return ws, nil
}

type stdioTransport struct {
	io.WriteCloser
	io.ReadCloser
}

func (t stdioTransport) Close() error {
	err := t.WriteCloser.Close()
	if rerr := t.ReadCloser.Close(); err == nil {
		err = rerr
	}
	return err
}

// Dial connects to a remote address using a registered transport and
// returns an unstarted Peer. Available transports are "tcp", "unix",
// "ws", and "stdio". In the case of "stdio", the addr can be left an
// empty string.
func Dial(transport, addr string, c codec.Codec) (*Peer, error) {
	d, ok := Dialers[transport]
	if !ok {
		return nil, fmt.Errorf("transport '%s' not available in Dialers", transport)
	}
	t, err := d(addr)
	if err != nil {
		return nil, err
	}
	return New(t, c), nil
}
