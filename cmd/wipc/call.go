package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"

	"github.com/progrium/clon-go"

	"github.com/JairusSW/wipc/frame"
	"github.com/JairusSW/wipc/peer"
)

// call sends one CALL frame and prints the next CALL or DATA frame
// that comes back. The protocol itself has no reply correlation; the
// next frame is the reply by convention, which is how the echo service
// behaves.
//
// URLs select the transport: tcp://host:port, ws://host:port,
// unix:/path, or exec:command to spawn a subprocess and talk over its
// stdio.
func (a *app) call(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: wipc call <url> [args...]")
	}
	u, err := url.Parse(args[0])
	if err != nil {
		return err
	}

	var sargs any
	if len(args) > 1 {
		sargs, err = clon.Parse(args[1:])
		if err != nil {
			return err
		}
	}

	p, cleanup, err := a.dialTarget(u)
	if err != nil {
		return err
	}
	defer cleanup()

	reply := make(chan frame.Frame, 1)
	onReply := func(f frame.Frame) {
		cp := frame.Frame{Type: f.Type, Payload: append([]byte(nil), f.Payload...)}
		select {
		case reply <- cp:
		default:
		}
	}
	p.HandleFunc(frame.Call, onReply)
	p.HandleFunc(frame.Data, onReply)

	p.Start(a.ctx)

	if err := p.Call(sargs); err != nil {
		return err
	}

	select {
	case f := <-reply:
		p.Shutdown()
		return printFrame(p, f)
	case <-p.StopD():
		if err := p.Err(); err != nil {
			return err
		}
		return fmt.Errorf("stream ended without a reply")
	case <-a.ctx.Done():
		return a.ctx.Err()
	}
}

func printFrame(p *peer.Peer, f frame.Frame) error {
	var v any
	if err := p.Decode(f, &v); err != nil {
		// not a codec payload; print the raw bytes
		os.Stdout.Write(f.Payload)
		fmt.Println()
		return nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

// dialTarget connects a peer per the url scheme. The cleanup function
// closes the peer and reaps any spawned subprocess.
func (a *app) dialTarget(u *url.URL) (*peer.Peer, func(), error) {
	c := a.cfg.payloadCodec()

	if u.Scheme == "exec" {
		command := u.Opaque
		if command == "" {
			command = u.Path
		}
		sh, err := exec.LookPath("sh")
		if err != nil {
			return nil, nil, err
		}
		cmd := exec.Command(sh, "-c", command)
		cmd.Stderr = os.Stderr
		wc, err := cmd.StdinPipe()
		if err != nil {
			return nil, nil, err
		}
		rc, err := cmd.StdoutPipe()
		if err != nil {
			return nil, nil, err
		}
		if err := cmd.Start(); err != nil {
			return nil, nil, err
		}
		p := peer.New(duplex{wc, rc}, c)
		a.configurePeer(p)
		cleanup := func() {
			p.Close()
			cmd.Process.Signal(os.Interrupt)
			cmd.Wait()
		}
		return p, cleanup, nil
	}

	addr := u.Host
	if u.Scheme == "unix" {
		addr = u.Path
		if u.Opaque != "" {
			addr = u.Opaque
		}
	}
	p, err := peer.Dial(u.Scheme, addr, c)
	if err != nil {
		return nil, nil, err
	}
	a.configurePeer(p)
	return p, func() { p.Close() }, nil
}

func (a *app) configurePeer(p *peer.Peer) {
	p.SetMaxFrameSize(a.cfg.MaxFrameSize)
	p.SetLogger(a.log)
}

// duplex joins a subprocess's stdin and stdout pipes into one
// transport.
type duplex struct {
	io.WriteCloser
	io.ReadCloser
}

func (d duplex) Close() error {
	err := d.WriteCloser.Close()
	if rerr := d.ReadCloser.Close(); err == nil {
		err = rerr
	}
	return err
}
