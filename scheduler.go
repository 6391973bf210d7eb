// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfpipe

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"golang.org/x/sync/errgroup"
)

// TaskFunc is a unit of work executed by a [Scheduler] worker.
// The worker running the task is passed in so the task can spawn
// follow-up work onto the same worker's pipe.
type TaskFunc func(w *Worker) error

type task struct {
	link Link[task]
	fn   TaskFunc
}

func (t *task) QueueLink() *Link[task] { return &t.link }

var taskPool = sync.Pool{
	New: func() any { return new(task) },
}

func newTask(fn TaskFunc) *task {
	t := taskPool.Get().(*task)
	t.fn = fn
	return t
}

func releaseTask(t *task) {
	t.fn = nil
	taskPool.Put(t)
}

// Scheduler is a work-stealing task scheduler built from the package
// primitives.
//
// Each worker owns one [Pipe]. Tasks spawned by a running task go to the
// front of its worker's pipe; the worker drains its own front first (most
// recent, cache-hot work) and otherwise steals the oldest work from the
// back of other workers' pipes. Tasks submitted from outside the workers go
// through one [IntrusiveQueue]; a [SpinLock] elects which worker acts as
// that queue's single reader at any moment.
type Scheduler struct {
	_          pad
	pending    atomix.Int64 // Submitted or spawned, not yet finished
	_          pad
	running    atomix.Uint64 // 1 while Run is active
	_          pad
	injectLock SpinLock
	_          pad
	inject     *IntrusiveQueue[task, *task]
	workers    []*Worker
}

// Worker is one scheduler worker and the single writer of its pipe.
type Worker struct {
	_     pad
	id    int
	sched *Scheduler
	pipe  *Pipe[*task]
	err   error // First error of a task run inline by Spawn
	_     padPtr
}

// NewScheduler creates a scheduler with the given number of workers, each
// owning a pipe of pipeCapacity slots.
//
// Panics if workers < 1 or pipeCapacity is not a valid [NewPipe] capacity.
func NewScheduler(workers, pipeCapacity int) *Scheduler {
	if workers < 1 {
		panic("lfpipe: scheduler needs at least one worker")
	}

	s := &Scheduler{
		inject:  NewIntrusiveQueue[task](),
		workers: make([]*Worker, workers),
	}
	for i := range s.workers {
		s.workers[i] = &Worker{
			id:    i,
			sched: s,
			pipe:  NewPipe[*task](pipeCapacity),
		}
	}
	return s
}

// Submit queues fn for execution (any goroutine).
// Submit never blocks; the injection queue is unbounded.
func (s *Scheduler) Submit(fn TaskFunc) {
	s.pending.AddAcqRel(1)
	s.inject.WriteFront(newTask(fn))
}

// Pending returns the number of tasks submitted or spawned that have not
// finished yet. The value is a snapshot.
func (s *Scheduler) Pending() int64 {
	return s.pending.Load()
}

// Workers returns the number of workers.
func (s *Scheduler) Workers() int {
	return len(s.workers)
}

// Run executes tasks until ctx is done or a task returns an error.
//
// Run returns the first task error, or nil once ctx is done. Tasks still
// queued when Run returns stay queued for the next Run.
//
// Panics if Run is already active on s.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwapAcqRel(0, 1) {
		panic("lfpipe: Scheduler.Run called while already running")
	}
	defer s.running.StoreRelease(0)

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range s.workers {
		g.Go(func() error {
			return w.loop(gctx)
		})
	}
	return g.Wait()
}

// WaitIdle waits until no task is pending or ctx is done.
func (s *Scheduler) WaitIdle(ctx context.Context) error {
	backoff := iox.Backoff{}
	for s.pending.Load() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		backoff.Wait()
	}
	return nil
}

// takeInjected pops one submitted task if no other worker is currently
// reading the injection queue.
func (s *Scheduler) takeInjected() *task {
	if !s.injectLock.TryLock() {
		return nil
	}
	t := s.inject.ReadBack()
	s.injectLock.Unlock()
	return t
}

// ID returns the worker index in [0, Workers).
func (w *Worker) ID() int {
	return w.id
}

// Spawn queues fn on w's own pipe.
//
// Spawn must only be called from a task running on w, since w is the
// single writer of its pipe. When the pipe is full the task runs inline
// instead; an error from that inline run stops the worker after the
// calling task returns.
func (w *Worker) Spawn(fn TaskFunc) {
	w.sched.pending.AddAcqRel(1)
	t := newTask(fn)
	if w.pipe.WriteFront(&t) == nil {
		return
	}
	if err := w.run(t); err != nil && w.err == nil {
		w.err = err
	}
}

func (w *Worker) loop(ctx context.Context) error {
	backoff := iox.Backoff{}
	for {
		t := w.next()
		if t == nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			backoff.Wait()
			continue
		}
		backoff.Reset()

		if err := w.run(t); err != nil {
			return err
		}
		if w.err != nil {
			err := w.err
			w.err = nil
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// next picks the next task: own front, then submissions, then steals.
func (w *Worker) next() *task {
	if t, err := w.pipe.ReadFront(); err == nil {
		return t
	}
	if t := w.sched.takeInjected(); t != nil {
		return t
	}

	n := len(w.sched.workers)
	for i := 1; i < n; i++ {
		victim := w.sched.workers[(w.id+i)%n]
		if t, err := victim.pipe.ReadBack(); err == nil {
			return t
		}
	}
	return nil
}

func (w *Worker) run(t *task) error {
	fn := t.fn
	releaseTask(t)
	defer w.sched.pending.AddAcqRel(-1)
	return fn(w)
}
