package workers

import (
	"context"
	"sync"

	"mmoboard_backend/internal/logger"
)

// Dispatcher executes one email job. Implemented by the mail dispatch
// service; tests substitute a recording fake.
type Dispatcher interface {
	DeliverNotification(notificationID string) error
	DeliverNewsletter(newsletterID string) error
}

type jobKind int

const (
	jobNotification jobKind = iota
	jobNewsletter
)

type mailJob struct {
	kind jobKind
	id   string
}

// MailWorker is the in-process email dispatch queue: a bounded job channel
// drained by a fixed pool of goroutines. Jobs carry only an ID; all state is
// re-read at execution time. Delivery is at-most-once: a job accepted into
// the queue is attempted once, a rejected or crashed job is never replayed.
type MailWorker struct {
	dispatcher Dispatcher
	jobs       chan mailJob
	poolSize   int

	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

func NewMailWorker(dispatcher Dispatcher, queueSize, poolSize int) *MailWorker {
	if queueSize <= 0 {
		queueSize = 256
	}
	if poolSize <= 0 {
		poolSize = 4
	}
	return &MailWorker{
		dispatcher: dispatcher,
		jobs:       make(chan mailJob, queueSize),
		poolSize:   poolSize,
	}
}

// Start launches the worker pool. The pool runs until Stop; accepted jobs
// always drain. ctx is watched only to trigger Stop from the caller's
// shutdown path.
func (w *MailWorker) Start(ctx context.Context) {
	for i := 0; i < w.poolSize; i++ {
		w.wg.Add(1)
		go w.run(i)
	}
	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	logger.Info("mail worker started",
		"pool_size", w.poolSize,
		"queue_size", cap(w.jobs))
}

func (w *MailWorker) run(id int) {
	defer w.wg.Done()
	for job := range w.jobs {
		w.execute(job)
	}
	logger.Debug("mail worker goroutine exiting", "worker_id", id)
}

func (w *MailWorker) execute(job mailJob) {
	switch job.kind {
	case jobNotification:
		err := w.dispatcher.DeliverNotification(job.id)
		logger.WorkerLog("mail", "deliver_notification", err, "notification_id", job.id)
	case jobNewsletter:
		err := w.dispatcher.DeliverNewsletter(job.id)
		logger.WorkerLog("mail", "deliver_newsletter", err, "newsletter_id", job.id)
	}
}

// EnqueueNotification queues the email job for one notification. Returns
// false without blocking when the queue is full or the worker is stopped.
func (w *MailWorker) EnqueueNotification(notificationID string) bool {
	return w.enqueue(mailJob{kind: jobNotification, id: notificationID})
}

// EnqueueNewsletter queues a newsletter fan-out job.
func (w *MailWorker) EnqueueNewsletter(newsletterID string) bool {
	return w.enqueue(mailJob{kind: jobNewsletter, id: newsletterID})
}

func (w *MailWorker) enqueue(job mailJob) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return false
	}
	select {
	case w.jobs <- job:
		return true
	default:
		return false
	}
}

// Stop rejects further enqueues, drains the queued jobs, and waits for the
// pool to finish.
func (w *MailWorker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.jobs)
	w.mu.Unlock()

	w.wg.Wait()
	logger.Info("mail worker stopped")
}
