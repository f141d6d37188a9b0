package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu            sync.Mutex
	notifications []string
	newsletters   []string
	block         chan struct{}
}

func (d *recordingDispatcher) DeliverNotification(id string) error {
	if d.block != nil {
		<-d.block
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifications = append(d.notifications, id)
	return nil
}

func (d *recordingDispatcher) DeliverNewsletter(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.newsletters = append(d.newsletters, id)
	return nil
}

func (d *recordingDispatcher) counts() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.notifications), len(d.newsletters)
}

func TestMailWorkerExecutesJobs(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	worker := NewMailWorker(dispatcher, 16, 2)
	worker.Start(context.Background())

	require.True(t, worker.EnqueueNotification("n1"))
	require.True(t, worker.EnqueueNotification("n2"))
	require.True(t, worker.EnqueueNewsletter("nl1"))

	worker.Stop()

	notifications, newsletters := dispatcher.counts()
	assert.Equal(t, 2, notifications)
	assert.Equal(t, 1, newsletters)
}

func TestMailWorkerEnqueueNonBlockingWhenFull(t *testing.T) {
	block := make(chan struct{})
	dispatcher := &recordingDispatcher{block: block}
	worker := NewMailWorker(dispatcher, 1, 1)
	worker.Start(context.Background())

	// one job in flight (blocked), one sitting in the queue
	require.True(t, worker.EnqueueNotification("inflight"))
	waitFor(t, func() bool { return len(worker.jobs) == 0 })
	require.True(t, worker.EnqueueNotification("queued"))

	// the queue is full now; the next enqueue must fail fast, not block
	done := make(chan bool, 1)
	go func() { done <- worker.EnqueueNotification("rejected") }()
	select {
	case accepted := <-done:
		assert.False(t, accepted)
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}

	close(block)
	worker.Stop()
}

func TestMailWorkerStopDrainsAcceptedJobs(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	worker := NewMailWorker(dispatcher, 64, 1)
	worker.Start(context.Background())

	for i := 0; i < 20; i++ {
		require.True(t, worker.EnqueueNotification("job"))
	}
	worker.Stop()

	notifications, _ := dispatcher.counts()
	assert.Equal(t, 20, notifications)
}

func TestMailWorkerRejectsAfterStop(t *testing.T) {
	worker := NewMailWorker(&recordingDispatcher{}, 16, 1)
	worker.Start(context.Background())
	worker.Stop()

	assert.False(t, worker.EnqueueNotification("late"))
	assert.False(t, worker.EnqueueNewsletter("late"))

	// Stop is idempotent
	worker.Stop()
}

func TestMailWorkerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	worker := NewMailWorker(&recordingDispatcher{}, 16, 1)
	worker.Start(ctx)

	cancel()
	waitFor(t, func() bool { return !worker.EnqueueNotification("x") })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
