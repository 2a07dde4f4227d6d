// Package queue runs background nutrition jobs on an autoscaling pool of
// workers fed by an in-memory queue.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/fairyhunter13/recipe-box-service/internal/config"
	"github.com/fairyhunter13/recipe-box-service/internal/model"
	"github.com/fairyhunter13/recipe-box-service/internal/obs"
)

// Processor handles one job.
type Processor interface {
	Process(ctx context.Context, job model.NutritionJob) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job model.NutritionJob) error

func (f ProcessorFunc) Process(ctx context.Context, job model.NutritionJob) error { return f(ctx, job) }

// Manager coordinates workers processing queued jobs and scaling.
type Manager struct {
	cfg    config.Config
	q      *Queue
	proc   Processor
	seq    Sequencer
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	workerCancels []context.CancelFunc
}

// NewManager constructs a Manager with the given config, queue and processor.
func NewManager(cfg config.Config, q *Queue, proc Processor) *Manager {
	return &Manager{cfg: cfg, q: q, proc: proc}
}

// Start begins processing and autoscaling in the background.
func (m *Manager) Start(parent context.Context) {
	m.ctx, m.cancel = context.WithCancel(parent)
	m.wg.Add(2)
	m.q.Start(m.ctx, m.cfg.QueueHighWatermark, m.wg.Done)
	m.addWorkers(max(m.cfg.InitialWorkerCount, 1))
	go func() {
		defer m.wg.Done()
		m.scaler()
	}()
}

// Stop cancels background routines and waits for them to exit. Jobs still
// queued are dropped; call DrainUntil first to finish them.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Lock()
	for _, c := range m.workerCancels {
		c()
	}
	m.workerCancels = nil
	m.mu.Unlock()
	m.wg.Wait()
}

// scaler adjusts worker count based on backlog and configuration.
func (m *Manager) scaler() {
	t := time.NewTicker(m.cfg.ScaleInterval)
	defer t.Stop()
	idleTicks := 0
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-t.C:
			backlog := m.q.BacklogSize()
			wc := m.WorkerCount()
			if backlog > wc*m.cfg.ScaleUpBacklogPerWorker && wc < m.cfg.WorkerMax {
				m.addWorkers(1)
				idleTicks = 0
				continue
			}
			if backlog == 0 {
				idleTicks++
				if idleTicks >= m.cfg.ScaleDownIdleTicks && wc > m.cfg.WorkerMin {
					m.removeWorkers(1)
					idleTicks = 0
				}
			} else {
				idleTicks = 0
			}
		}
	}
}

func (m *Manager) addWorkers(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		wctx, cancel := context.WithCancel(m.ctx)
		m.workerCancels = append(m.workerCancels, cancel)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.worker(wctx)
		}()
	}
	obs.Logger.Info("workers_scaled", "worker_count", len(m.workerCancels))
}

func (m *Manager) removeWorkers(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(m.workerCancels) {
		n = len(m.workerCancels)
	}
	for i := 0; i < n; i++ {
		c := m.workerCancels[len(m.workerCancels)-1]
		m.workerCancels = m.workerCancels[:len(m.workerCancels)-1]
		c()
	}
	obs.Logger.Info("workers_scaled", "worker_count", len(m.workerCancels))
}

func (m *Manager) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-m.q.Out():
			err := m.proc.Process(ctx, job)
			if err != nil {
				obs.Logger.Error("job_failed", "recipe_id", job.RecipeID, "sequence", job.Sequence, "error", err.Error())
			}
			m.q.MarkProcessed(err != nil)
		}
	}
}

// Submit enqueues a nutrition job for a recipe, stamping it with the next
// sequence number. It reports false once intake is closed.
func (m *Manager) Submit(recipeID int64) (model.NutritionJob, bool) {
	job := model.NutritionJob{RecipeID: recipeID, Sequence: m.seq.Next()}
	return job, m.q.Enqueue(job)
}

// BacklogSize returns pending items in the queue.
func (m *Manager) BacklogSize() int { return m.q.BacklogSize() }

// QueueDepth returns backlog plus buffered output items.
func (m *Manager) QueueDepth() int { return m.q.QueueDepth() }

// WorkerCount returns the current number of workers.
func (m *Manager) WorkerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workerCancels)
}

// IsShuttingDown reports whether new enqueues are rejected.
func (m *Manager) IsShuttingDown() bool { return m.q.IsShuttingDown() }

// CloseIntake disallows future enqueues.
func (m *Manager) CloseIntake() { m.q.CloseIntake() }

// QueueMetrics exposes the underlying queue metrics.
func (m *Manager) QueueMetrics() Stats { return m.q.Metrics() }

// DrainUntil blocks until every enqueued job has been processed or ctx is
// done.
func (m *Manager) DrainUntil(ctx context.Context) bool {
	for {
		s := m.q.Metrics()
		if s.Backlog == 0 && s.Depth == 0 && s.Enqueued == s.Processed {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(50 * time.Millisecond):
		}
	}
}
