package app

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// backgroundPool runs detached side-channel work (mood updates, elimination
// reactions) without blocking the round. Work is bounded in flight, carries
// its own timeout, and its failures are logged and swallowed. settle blocks
// until all dispatched work has finished, so snapshots never race pending
// updates.
type backgroundPool struct {
	sem     chan struct{}
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

func newBackgroundPool(limit int, timeout time.Duration, logger *slog.Logger) *backgroundPool {
	if limit < 1 {
		limit = 1
	}
	return &backgroundPool{
		sem:     make(chan struct{}, limit),
		timeout: timeout,
		logger:  logger,
	}
}

// dispatch queues fn as detached work. fn must honor its context deadline.
func (p *backgroundPool) dispatch(name string, fn func(ctx context.Context) error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.sem <- struct{}{}
		defer func() { <-p.sem }()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			p.logger.Warn("background task failed", "task", name, "error", err)
		}
	}()
}

// settle waits for all in-flight work, up to the given timeout. Returns false
// if work was still pending when the timeout expired.
func (p *backgroundPool) settle(timeout time.Duration) bool {
	settled := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(settled)
	}()

	select {
	case <-settled:
		return true
	case <-time.After(timeout):
		p.logger.Warn("background work did not settle in time", "timeout", timeout)
		return false
	}
}
