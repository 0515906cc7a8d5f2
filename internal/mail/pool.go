package mail

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Pool is a bounded worker pool in front of a Dispatcher. Enqueue never
// blocks: when the queue is full the message is dropped and counted, which
// bounds concurrent outbound SMTP connections under a burst of unlocks.
type Pool struct {
	dispatcher Dispatcher
	jobs       chan Message
	workers    int

	wg sync.WaitGroup

	// mu orders enqueues against Stop closing the channel: Enqueue holds
	// the read lock across the closed check and the send, so the send
	// can never hit a closed channel.
	mu     sync.RWMutex
	closed bool

	dropped atomic.Int64
	failed  atomic.Int64
	sent    atomic.Int64
}

func NewPool(dispatcher Dispatcher, workers, capacity int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool{
		dispatcher: dispatcher,
		jobs:       make(chan Message, capacity),
		workers:    workers,
	}
}

// Start launches the workers. They run until ctx is cancelled; in-flight
// sends may be abandoned on shutdown.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Enqueue hands a message to the pool. Returns false when the pool is
// full or closed and the message was dropped. Never blocks: the send is
// non-blocking, so holding the read lock here cannot stall Stop.
func (p *Pool) Enqueue(msg Message) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.dropped.Add(1)
		return false
	}
	select {
	case p.jobs <- msg:
		return true
	default:
		p.dropped.Add(1)
		slog.Warn("mail queue full, notification dropped", "to", msg.To, "template", msg.TemplateKey)
		return false
	}
}

// Stop prevents further enqueues and waits for workers to drain what is
// already queued.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

// Stats returns sent, failed and dropped counts.
func (p *Pool) Stats() (sent, failed, dropped int64) {
	return p.sent.Load(), p.failed.Load(), p.dropped.Load()
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-p.jobs:
			if !ok {
				return
			}
			p.send(msg)
		}
	}
}

func (p *Pool) send(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			slog.Error("mail dispatch panic recovered",
				"panic", r, "stack", string(debug.Stack()))
		}
	}()

	if err := p.dispatcher.Dispatch(msg); err != nil {
		p.failed.Add(1)
		slog.Error("mail dispatch failed", "to", msg.To, "template", msg.TemplateKey, "error", err)
		return
	}
	p.sent.Add(1)
}
