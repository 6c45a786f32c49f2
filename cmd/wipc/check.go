package main

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/JairusSW/wipc/channel"
	"github.com/JairusSW/wipc/demux"
	"github.com/JairusSW/wipc/frame"
)

const checkTimeout = 5 * time.Second

// check runs interop checks against a subprocess speaking WIPC on its
// stdio. With no argument it spawns this binary's own serve command;
// an argument is run through sh -c. Every check prints a line; the
// first failure stops the run.
func (a *app) check(args []string) error {
	frames := make(chan frame.Frame, 16)
	h := demux.Handlers{
		Frame: func(f frame.Frame) {
			frames <- frame.Frame{Type: f.Type, Payload: append([]byte(nil), f.Payload...)}
		},
	}

	proc, err := a.spawnTarget(h, args)
	if err != nil {
		return err
	}
	defer proc.Close()
	proc.Start(a.ctx)

	expect := func(name string, want frame.Frame) error {
		select {
		case f := <-frames:
			if f.Type != want.Type || !bytes.Equal(f.Payload, want.Payload) {
				return fmt.Errorf("%s: got %s %q, want %s %q", name, f.Type, f.Payload, want.Type, want.Payload)
			}
			fmt.Println("ok:", name)
			return nil
		case <-proc.StopD():
			return fmt.Errorf("%s: stream ended: %v", name, proc.Err())
		case <-time.After(checkTimeout):
			return fmt.Errorf("%s: timed out", name)
		}
	}

	// data echo
	if err := proc.Send(frame.Data, []byte("hello wipc")); err != nil {
		return err
	}
	if err := expect("data echo", frame.Frame{Type: frame.Data, Payload: []byte("hello wipc")}); err != nil {
		return err
	}

	// call comes back as data
	if err := proc.Send(frame.Call, []byte(`[1,2,3]`)); err != nil {
		return err
	}
	if err := expect("call echo", frame.Frame{Type: frame.Data, Payload: []byte(`[1,2,3]`)}); err != nil {
		return err
	}

	// open acknowledged
	if err := proc.Send(frame.Open, nil); err != nil {
		return err
	}
	if err := expect("open ack", frame.Frame{Type: frame.Open}); err != nil {
		return err
	}

	// garbage between frames must not derail the conversation
	if err := proc.WriteRaw([]byte("log: starting up\n")); err != nil {
		return err
	}
	if err := proc.Send(frame.Data, []byte("after noise")); err != nil {
		return err
	}
	if err := expect("resync after garbage", frame.Frame{Type: frame.Data, Payload: []byte("after noise")}); err != nil {
		return err
	}

	// a frame split inside its magic must survive the chunk boundary
	wire, err := frame.Encode(frame.Data, []byte("split"))
	if err != nil {
		return err
	}
	if err := proc.WriteRaw(wire[:3]); err != nil {
		return err
	}
	time.Sleep(50 * time.Millisecond)
	if err := proc.WriteRaw(wire[3:]); err != nil {
		return err
	}
	if err := expect("split magic", frame.Frame{Type: frame.Data, Payload: []byte("split")}); err != nil {
		return err
	}

	// large payload integrity
	big := make([]byte, 1<<20)
	rand.Read(big)
	if err := proc.Send(frame.Data, big); err != nil {
		return err
	}
	if err := expect("1MiB echo", frame.Frame{Type: frame.Data, Payload: big}); err != nil {
		return err
	}

	// close ends the conversation
	if err := proc.Send(frame.Close, nil); err != nil {
		return err
	}
	select {
	case <-proc.StopD():
		if err := proc.Err(); err != nil {
			return fmt.Errorf("close: %v", err)
		}
		fmt.Println("ok: close")
	case <-time.After(checkTimeout):
		return fmt.Errorf("close: peer did not end the stream")
	}

	return nil
}

// spawnTarget starts the subprocess the checks talk to: this binary's
// serve command by default, or args[0] through sh -c.
func (a *app) spawnTarget(h demux.Handler, args []string) (*channel.Proc, error) {
	var proc *channel.Proc
	var err error
	if len(args) == 0 {
		var path string
		path, err = os.Executable()
		if err != nil {
			return nil, err
		}
		proc, err = channel.Spawn(h, path, "serve")
	} else {
		var sh string
		sh, err = exec.LookPath("sh")
		if err != nil {
			return nil, err
		}
		proc, err = channel.Spawn(h, sh, "-c", args[0])
	}
	if err != nil {
		return nil, err
	}
	proc.SetMaxFrameSize(a.cfg.MaxFrameSize)
	proc.SetLogger(a.log)
	return proc, nil
}
