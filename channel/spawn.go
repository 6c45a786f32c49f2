package channel

import (
	"os"
	"os/exec"

	"github.com/JairusSW/wipc/demux"
)

// Proc is a channel to a spawned child process over its stdio.
type Proc struct {
	*Channel
	cmd *exec.Cmd
}

// Spawn starts name with args and returns an unstarted channel bound
// to the child's stdin and stdout. The child's stderr is inherited so
// its diagnostics reach the terminal unframed.
func Spawn(h demux.Handler, name string, arg ...string) (*Proc, error) {
	cmd := exec.Command(name, arg...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &Proc{
		Channel: New(&ioduplex{stdin, stdout}, h),
		cmd:     cmd,
	}, nil
}

// Wait waits for the child process to exit. It shadows Channel.Wait;
// the pump stops on its own when the child's stdout reaches EOF.
func (p *Proc) Wait() error {
	return p.cmd.Wait()
}

// Close closes the child's pipes, asks it to exit, and reaps it. Do
// not combine with Wait.
func (p *Proc) Close() error {
	err := p.Channel.Close()
	if p.cmd.Process != nil {
		p.cmd.Process.Signal(os.Interrupt)
	}
	if werr := p.cmd.Wait(); werr != nil && err == nil {
		err = werr
	}
	return err
}
