package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/progrium/clon-go"
	"golang.org/x/sync/errgroup"

	"github.com/JairusSW/wipc/channel"
	"github.com/JairusSW/wipc/demux"
	"github.com/JairusSW/wipc/frame"
)

// exec spawns a command and bridges the terminal to it: stdin lines
// become DATA frames ("/call", "/open", "/close" send the other
// types), received frames are printed, and the child's passthrough
// bytes are forwarded to stdout verbatim.
func (a *app) exec(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: wipc exec <command> [args...]")
	}

	h := demux.Handlers{
		Frame: func(f frame.Frame) {
			if len(f.Payload) == 0 {
				fmt.Printf("<< %s\n", f.Type)
				return
			}
			fmt.Printf("<< %s %s\n", f.Type, f.Payload)
		},
		Passthrough: func(p []byte) {
			os.Stdout.Write(p)
		},
	}

	proc, err := channel.Spawn(h, args[0], args[1:]...)
	if err != nil {
		return err
	}
	proc.SetMaxFrameSize(a.cfg.MaxFrameSize)
	proc.SetLogger(a.log)
	proc.Start(a.ctx)

	var g errgroup.Group
	g.Go(func() error {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := a.sendLine(proc.Channel, scanner.Text()); err != nil {
				return err
			}
		}
		proc.Close()
		// a closed-file error here is the other goroutine unblocking
		// us after the child exited, not a terminal failure
		if err := scanner.Err(); err != nil && !errors.Is(err, fs.ErrClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-proc.StopD()
		// unblock the scanner so the program can exit
		os.Stdin.Close()
		return proc.Err()
	})
	return g.Wait()
}

func (a *app) sendLine(c *channel.Channel, line string) error {
	switch {
	case line == "/open":
		return c.Send(frame.Open, nil)
	case line == "/close":
		return c.Send(frame.Close, nil)
	case strings.HasPrefix(line, "/call"):
		fields := strings.Fields(strings.TrimPrefix(line, "/call"))
		var v any
		if len(fields) > 0 {
			parsed, err := clon.Parse(fields)
			if err != nil {
				a.log.Error().Err(err).Msg("bad /call arguments")
				return nil
			}
			v = parsed
		}
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return c.Send(frame.Call, b)
	default:
		return c.Send(frame.Data, []byte(line))
	}
}
