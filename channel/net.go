package channel

import (
	"net"

	"github.com/JairusSW/wipc/demux"
)

// A Listener hands out unstarted channels for incoming connections.
type Listener interface {
	// Accept waits for the next connection and binds it to a channel
	// delivering receive events to h.
	Accept(h demux.Handler) (*Channel, error)

	// Close closes the listener. Any blocked Accept operations will be
	// unblocked and return errors.
	Close() error

	// Addr returns the listener's network address if available.
	Addr() net.Addr
}

// NetListener wraps a net.Listener to return connected channels.
type NetListener struct {
	net.Listener
}

func (l *NetListener) Accept(h demux.Handler) (*Channel, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return New(conn, h), nil
}

func dialNet(proto, addr string, h demux.Handler) (*Channel, error) {
	conn, err := net.Dial(proto, addr)
	if err != nil {
		return nil, err
	}
	return New(conn, h), nil
}

// DialTCP connects a channel via TCP.
func DialTCP(addr string, h demux.Handler) (*Channel, error) {
	return dialNet("tcp", addr, h)
}

// DialUnix connects a channel via Unix domain socket.
func DialUnix(path string, h demux.Handler) (*Channel, error) {
	return dialNet("unix", path, h)
}

func listenNet(proto, addr string) (*NetListener, error) {
	l, err := net.Listen(proto, addr)
	if err != nil {
		return nil, err
	}
	return &NetListener{Listener: l}, nil
}

// ListenTCP creates a TCP listener at the given address.
func ListenTCP(addr string) (*NetListener, error) {
	return listenNet("tcp", addr)
}

// ListenUnix creates a Unix domain socket listener at the given path.
func ListenUnix(path string) (*NetListener, error) {
	return listenNet("unix", path)
}
