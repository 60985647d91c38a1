package service

import (
	"context"
	"sync"
	"time"
)

// Poller calls poll once right away and then on every tick until stopped.
// Polls run one at a time on the poller goroutine; a tick that fires while a
// poll is still running is dropped by the ticker.
type Poller struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func startPoller(ctx context.Context, interval time.Duration, poll func(ctx context.Context)) *Poller {
	ctx, cancel := context.WithCancel(ctx)
	p := &Poller{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(p.done)

		poll(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				poll(ctx)
			}
		}
	}()

	return p
}

// Stop cancels the loop and waits for the running poll, if any, to return.
func (p *Poller) Stop() {
	p.once.Do(p.cancel)
	<-p.done
}
