package channel

import (
	"io"
	"os"

	"github.com/JairusSW/wipc/demux"
)

// ioduplex joins separate write and read halves into one transport.
type ioduplex struct {
	io.WriteCloser
	io.ReadCloser
}

func (d *ioduplex) Close() error {
	err := d.WriteCloser.Close()
	if rerr := d.ReadCloser.Close(); err == nil {
		err = rerr
	}
	return err
}

// IO returns an unstarted channel over separate write and read halves.
func IO(out io.WriteCloser, in io.ReadCloser, h demux.Handler) *Channel {
	return New(&ioduplex{out, in}, h)
}

// Stdio returns an unstarted channel over the process's own stdout and
// stdin, the child side of a Spawn pair. Anything else the process
// prints to stdout becomes passthrough on the parent side, so logs
// belong on stderr.
func Stdio(h demux.Handler) *Channel {
	return IO(os.Stdout, os.Stdin, h)
}
