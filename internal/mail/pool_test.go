package mail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu       sync.Mutex
	messages []Message
	err      error
	block    chan struct{}
}

func (d *recordingDispatcher) Dispatch(msg Message) error {
	if d.block != nil {
		<-d.block
	}
	d.mu.Lock()
	d.messages = append(d.messages, msg)
	d.mu.Unlock()
	return d.err
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.messages)
}

func TestPoolDeliversAll(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	pool := NewPool(dispatcher, 2, 16)
	pool.Start(context.Background())

	for i := 0; i < 10; i++ {
		require.True(t, pool.Enqueue(Message{To: "a@b.c", TemplateKey: TemplateUnlockedMemory}))
	}
	pool.Stop()

	assert.Equal(t, 10, dispatcher.count())
	sent, failed, dropped := pool.Stats()
	assert.Equal(t, int64(10), sent)
	assert.Zero(t, failed)
	assert.Zero(t, dropped)
}

func TestPoolDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	dispatcher := &recordingDispatcher{block: block}
	pool := NewPool(dispatcher, 1, 1)
	pool.Start(context.Background())

	// First message occupies the worker, second fills the queue; the
	// rest must be dropped without blocking.
	pool.Enqueue(Message{To: "1"})
	pool.Enqueue(Message{To: "2"})

	done := make(chan struct{})
	go func() {
		pool.Enqueue(Message{To: "3"})
		pool.Enqueue(Message{To: "4"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	close(block)
	pool.Stop()

	_, _, dropped := pool.Stats()
	assert.GreaterOrEqual(t, dropped, int64(1))
}

func TestPoolCountsFailures(t *testing.T) {
	dispatcher := &recordingDispatcher{err: errors.New("smtp down")}
	pool := NewPool(dispatcher, 1, 4)
	pool.Start(context.Background())

	pool.Enqueue(Message{To: "a@b.c"})
	pool.Stop()

	sent, failed, _ := pool.Stats()
	assert.Zero(t, sent)
	assert.Equal(t, int64(1), failed)
}

// Stop racing in-flight Enqueue calls must never send on the closed
// channel; every late enqueue is reported as dropped instead.
func TestPoolStopDuringConcurrentEnqueues(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	pool := NewPool(dispatcher, 2, 8)
	pool.Start(context.Background())

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 500; j++ {
				pool.Enqueue(Message{To: "a@b.c"})
			}
		}()
	}

	close(start)
	pool.Stop()
	wg.Wait()

	assert.False(t, pool.Enqueue(Message{To: "late"}))
}

func TestPoolRejectsAfterStop(t *testing.T) {
	pool := NewPool(&recordingDispatcher{}, 1, 4)
	pool.Start(context.Background())
	pool.Stop()

	assert.False(t, pool.Enqueue(Message{To: "late"}))
}
