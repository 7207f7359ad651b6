package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler runs one job to completion. Returning an error marks the
// JobInfo Failed with the error's text; returning nil marks it Completed.
type Handler func(ctx context.Context, job Job) error

const queueCapacity = 1000

// Dispatcher owns one bounded channel and worker goroutine per workspace
// path, per spec.md §4.9. Jobs for different workspaces never contend —
// each workspace's queue and cancellation token are fully independent.
type Dispatcher struct {
	handler     Handler
	idleTimeout time.Duration

	mu      sync.Mutex
	queues  map[string]chan workerMessage
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewDispatcher returns a Dispatcher that runs handler for every job it
// pops, exiting an idle per-workspace worker after idleTimeout.
func NewDispatcher(handler Handler, idleTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		handler:     handler,
		idleTimeout: idleTimeout,
		queues:      make(map[string]chan workerMessage),
		cancels:     make(map[string]context.CancelFunc),
	}
}

// Dispatch enqueues job, spawning a worker for its workspace if none
// exists yet. A High priority job first asks the existing worker (if
// any) to drop its pending jobs of the same type — the queue itself is
// not torn down, only matching pending entries are dropped. The channel
// send that follows blocks under backpressure (bounded capacity 1000):
// callers may not fail silently, per spec.md §4.9.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) (*JobInfo, error) {
	info := &JobInfo{
		ID:        uuid.NewString(),
		Job:       job,
		Status:    JobPending,
		CreatedAt: time.Now(),
	}

	ch := d.queueFor(job.WorkspacePath())

	if job.Priority() == PriorityHigh {
		select {
		case ch <- cancelMessage(job.JobType()):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	select {
	case ch <- jobMessage(info):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return info, nil
}

// queueFor returns the existing channel for workspacePath or creates one
// and spawns its worker.
func (d *Dispatcher) queueFor(workspacePath string) chan workerMessage {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ch, ok := d.queues[workspacePath]; ok {
		return ch
	}

	ch := make(chan workerMessage, queueCapacity)
	workerCtx, cancel := context.WithCancel(context.Background())
	d.queues[workspacePath] = ch
	d.cancels[workspacePath] = cancel

	d.wg.Add(1)
	go d.runWorker(workerCtx, workspacePath, ch)

	return ch
}

// runWorker is the cooperative per-workspace loop spec.md §4.9 describes:
// move every message already waiting on the channel into the local FIFO
// (applying cancel requests to it), run the FIFO's head unless the
// worker's token has fired, and once the FIFO is empty wait on the
// channel with a 60-second (configurable) idle timeout.
func (d *Dispatcher) runWorker(ctx context.Context, workspacePath string, ch chan workerMessage) {
	defer d.wg.Done()
	defer d.cleanup(workspacePath)

	var pending []*JobInfo
	idle := time.NewTimer(d.idleTimeout)
	defer idle.Stop()

	for {
		for drained := false; !drained; {
			select {
			case msg := <-ch:
				if msg.isCancel() {
					pending = cancelPending(pending, msg.cancelType, workspacePath)
				} else {
					pending = append(pending, msg.job)
				}
			default:
				drained = true
			}
		}

		if len(pending) > 0 {
			if ctx.Err() != nil {
				return
			}
			info := pending[0]
			pending = pending[1:]
			d.runJob(ctx, info)
			continue
		}

		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(d.idleTimeout)

		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg.isCancel() {
				pending = cancelPending(pending, msg.cancelType, workspacePath)
				continue
			}
			pending = append(pending, msg.job)

		case <-idle.C:
			return

		case <-ctx.Done():
			return
		}
	}
}

func cancelPending(pending []*JobInfo, jobType, workspacePath string) []*JobInfo {
	kept := pending[:0]
	cancelled := 0
	for _, info := range pending {
		if info.Job.JobType() == jobType {
			cancelled++
			continue
		}
		kept = append(kept, info)
	}
	if cancelled > 0 {
		log.Printf("queue: cancelled %d pending %s job(s) for %s", cancelled, jobType, workspacePath)
	}
	return kept
}

func (d *Dispatcher) runJob(ctx context.Context, info *JobInfo) {
	info.Status = JobRunning
	info.StartedAt = time.Now()

	err := d.handler(ctx, info.Job)

	info.CompletedAt = time.Now()
	if err != nil {
		info.Status = JobFailed
		info.Error = err.Error()
		return
	}
	info.Status = JobCompleted
}

func (d *Dispatcher) cleanup(workspacePath string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.queues, workspacePath)
	delete(d.cancels, workspacePath)
}

// Shutdown signals every live worker's cancellation token and waits for
// all of them to exit. A worker mid-job finishes that job before
// observing the token and then exits without starting any queued job
// (graceful but bounded), per spec.md §4.9.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(d.cancels))
	for _, cancel := range d.cancels {
		cancels = append(cancels, cancel)
	}
	d.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	d.wg.Wait()
}

// WorkspaceCount reports how many workspaces currently have a live
// worker — used by tests and diagnostics only.
func (d *Dispatcher) WorkspaceCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}
