package main

import (
	"github.com/JairusSW/wipc/interop"
	"github.com/JairusSW/wipc/peer"
)

// serve speaks WIPC on stdio, answering with the echo service until a
// CLOSE frame arrives or the stream ends. Logs go to stderr so they
// reach the parent as plain terminal output, not passthrough.
func (a *app) serve(args []string) error {
	p, err := peer.Dial("stdio", "", a.cfg.payloadCodec())
	if err != nil {
		return err
	}
	p.SetMaxFrameSize(a.cfg.MaxFrameSize)
	p.SetLogger(a.log)

	svc := interop.NewEchoService()
	svc.Log = a.log
	svc.Attach(p)

	p.Start(a.ctx)
	a.log.Debug().Str("channel", p.ID()).Msg("serving on stdio")

	select {
	case <-svc.Done():
		return nil
	case <-p.StopD():
		return p.Err()
	}
}
