package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fairyhunter13/recipe-box-service/internal/model"
	"github.com/fairyhunter13/recipe-box-service/internal/obs"
)

// Queue is an unbounded job backlog feeding a buffered output channel
// through a background broker.
type Queue struct {
	mu           sync.Mutex
	backlog      []model.NutritionJob
	notify       chan struct{}
	out          chan model.NutritionJob
	shuttingDown atomic.Bool

	enqueued  atomic.Uint64
	processed atomic.Uint64
	failed    atomic.Uint64
}

// New creates a Queue whose output channel holds outBuffer jobs.
func New(outBuffer int) *Queue {
	if outBuffer <= 0 {
		outBuffer = 64
	}
	return &Queue{
		notify: make(chan struct{}, 1),
		out:    make(chan model.NutritionJob, outBuffer),
	}
}

// Start runs the broker until ctx is done. done is called when it exits.
func (q *Queue) Start(ctx context.Context, highWatermark int, done func()) {
	go func() {
		defer done()
		q.broker(ctx, highWatermark)
	}()
}

func (q *Queue) broker(ctx context.Context, highWatermark int) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		q.flushOnce()
		if highWatermark > 0 {
			if sz := q.BacklogSize(); sz > highWatermark {
				obs.Logger.Warn("queue_backlog_high", "backlog_size", sz, "high_watermark", highWatermark)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-q.notify:
		case <-ticker.C:
		}
	}
}

// flushOnce moves as much backlog as fits into the output buffer.
func (q *Queue) flushOnce() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.backlog) > 0 && len(q.out) < cap(q.out) {
		item := q.backlog[0]
		q.backlog = q.backlog[1:]
		q.out <- item
	}
}

// Enqueue appends a job to the backlog. It reports false once intake is
// closed.
func (q *Queue) Enqueue(job model.NutritionJob) bool {
	if q.shuttingDown.Load() {
		return false
	}
	q.enqueued.Add(1)
	q.mu.Lock()
	q.backlog = append(q.backlog, job)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// Out exposes the output channel.
func (q *Queue) Out() <-chan model.NutritionJob { return q.out }

// BacklogSize returns the number of jobs not yet moved to the output channel.
func (q *Queue) BacklogSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

// QueueDepth returns backlog plus buffered output items.
func (q *Queue) QueueDepth() int {
	q.mu.Lock()
	bl := len(q.backlog)
	q.mu.Unlock()
	return bl + len(q.out)
}

// MarkProcessed counts a finished job. Failed jobs are finished too.
func (q *Queue) MarkProcessed(failed bool) {
	if failed {
		q.failed.Add(1)
	}
	q.processed.Add(1)
}

// Stats is a snapshot of queue counters.
type Stats struct {
	Enqueued  uint64 `json:"jobs_enqueued"`
	Processed uint64 `json:"jobs_processed"`
	Failed    uint64 `json:"jobs_failed"`
	Backlog   int    `json:"backlog_size"`
	Depth     int    `json:"queue_depth"`
}

// Metrics returns counters and sizes for observability.
func (q *Queue) Metrics() Stats {
	return Stats{
		Enqueued:  q.enqueued.Load(),
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
		Backlog:   q.BacklogSize(),
		Depth:     q.QueueDepth(),
	}
}

// CloseIntake disallows future enqueues.
func (q *Queue) CloseIntake() { q.shuttingDown.Store(true) }

// IsShuttingDown reports if intake has been closed.
func (q *Queue) IsShuttingDown() bool { return q.shuttingDown.Load() }
