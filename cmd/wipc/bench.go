package main

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/JairusSW/wipc/demux"
	"github.com/JairusSW/wipc/frame"
)

const benchTimeout = 30 * time.Second

// bench measures data-frame echo throughput against a subprocess
// speaking WIPC on its stdio. Targets are chosen like check: this
// binary's serve command by default, or args[0] through sh -c. Each
// round pushes the same total volume through a different frame size.
func (a *app) bench(args []string) error {
	replies := make(chan int, 256)
	h := demux.Handlers{
		Frame: func(f frame.Frame) {
			if f.Type == frame.Data {
				replies <- len(f.Payload)
			}
		},
	}

	proc, err := a.spawnTarget(h, args)
	if err != nil {
		return err
	}
	defer proc.Close()
	proc.Start(a.ctx)

	total := 16 << 20
	for _, size := range []int{1 << 10, 64 << 10, 1 << 20} {
		payload := make([]byte, size)
		rand.Read(payload)
		count := total / size

		sendErr := make(chan error, 1)
		start := time.Now()
		go func() {
			for i := 0; i < count; i++ {
				if err := proc.Send(frame.Data, payload); err != nil {
					sendErr <- err
					return
				}
			}
		}()

		var echoed int
		for i := 0; i < count; i++ {
			select {
			case n := <-replies:
				echoed += n
			case err := <-sendErr:
				return err
			case <-proc.StopD():
				return fmt.Errorf("bench: stream ended: %v", proc.Err())
			case <-time.After(benchTimeout):
				return fmt.Errorf("bench: timed out at %d B frames", size)
			}
		}
		diff := time.Now().Sub(start)

		if echoed != total {
			return fmt.Errorf("bench: echoed %d bytes, want %d", echoed, total)
		}
		fmt.Println("Data:", count, "x", size, "B", "RTT:", diff, "Thru:", int(float64(echoed)/diff.Seconds()/(1024*1024)), "MB/s")
	}

	// drain pipeline before the deferred Close interrupts the child
	if err := proc.Send(frame.Close, nil); err != nil {
		return err
	}
	select {
	case <-proc.StopD():
	case <-time.After(benchTimeout):
	}
	return nil
}
