// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lfpipe provides lock-free building blocks for handing work from
// an owning goroutine to a pool of workers without a mutex on the hot path.
//
//   - Pipe: bounded single-writer multi-reader work pipe
//   - IntrusiveQueue: unbounded multi-producer single-consumer queue of
//     caller-owned nodes
//   - SpinLock: test-and-test-and-set lock for short critical sections
//   - Scheduler: a work-stealing scheduler assembled from the three
//
// # Quick Start
//
//	p := lfpipe.NewPipe[Task](256)
//
//	// Owner goroutine (the single writer)
//	t := Task{ID: 1}
//	if err := p.WriteFront(&t); lfpipe.IsWouldBlock(err) {
//	    t.Run() // Pipe full - do it yourself
//	}
//
//	// Any goroutine (readers, including the owner)
//	if t, err := p.ReadBack(); err == nil {
//	    t.Run()
//	}
//
// # Pipe Ends
//
// A Pipe has two ends. The front belongs to the writer:
//
//	WriteFront(&v)  // publish at the front
//	ReadFront()     // take back the newest item (LIFO)
//
// The back is shared by every reader:
//
//	ReadBack()      // take the oldest item (FIFO)
//
// With one writer and one reader, ReadBack returns items in exactly the
// order they were written. With the writer draining its own front and no
// readers, ReadFront returns them in reverse order.
//
// Each slot carries a state word cycling CAN_WRITE → CAN_READ → IN_FLIGHT
// → CAN_WRITE. Claiming a slot is a CAS from CAN_READ to IN_FLIGHT, so when
// the writer and several readers race for the last item exactly one wins.
// The counters only steer the search; they never decide ownership.
//
// ReadFront gives up as soon as it sees that a reader has taken the front
// slot. It never spins waiting for readers, so an owner draining its own
// pipe always makes progress.
//
// # Intrusive Queue
//
// IntrusiveQueue links nodes the caller already owns, so pushing never
// allocates:
//
//	type job struct {
//	    link lfpipe.Link[job]
//	    run  func()
//	}
//
//	func (j *job) QueueLink() *lfpipe.Link[job] { return &j.link }
//
//	q := lfpipe.NewIntrusiveQueue[job]()
//	q.WriteFront(&job{run: f})  // any goroutine
//	if j := q.ReadBack(); j != nil {  // one consumer goroutine only
//	    j.run()
//	}
//
// Guard the consumer side with a SpinLock when the consumer role moves
// between goroutines.
//
// # Scheduler
//
//	s := lfpipe.New(256).Workers(4).BuildScheduler()
//	ctx, cancel := context.WithCancel(context.Background())
//	go s.Run(ctx)
//
//	s.Submit(func(w *lfpipe.Worker) error {
//	    w.Spawn(child) // lands on w's own pipe
//	    return nil
//	})
//	s.WaitIdle(ctx)
//	cancel()
//
// # Error Handling
//
// Non-blocking operations return [ErrWouldBlock] when they cannot proceed:
// the pipe is full, empty, or the front item was taken by a reader. This
// error is sourced from [code.hybscloud.com/iox] for ecosystem consistency.
// It is routine under contention; retry with backoff, try another pipe, or
// do the work inline.
//
//	backoff := iox.Backoff{}
//	for p.WriteFront(&t) != nil {
//	    backoff.Wait()
//	}
//
// Contract violations fail loudly where they are cheap to detect: a pipe
// capacity that is not a power of 2 panics at construction, and unlocking
// an unlocked SpinLock panics. Violations that would cost a check on the
// hot path (a second writer, a second IntrusiveQueue consumer, Clear during
// concurrent use) are undefined behavior.
//
// # Thread Safety
//
//   - Pipe: one writer goroutine (WriteFront, ReadFront, Clear); any number
//     of ReadBack goroutines
//   - IntrusiveQueue: any number of WriteFront goroutines; one ReadBack
//     goroutine at a time
//   - SpinLock: any goroutine; not reentrant
//
// # Race Detection
//
// Slot payloads and intrusive node fields are plain memory published through
// atomix release/acquire operations. Go's race detector does not see those
// edges and may report false positives, so concurrent pipe and queue tests
// are excluded under -race via [RaceEnabled].
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors and
// backoff, [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, [code.hybscloud.com/spin] for CPU pause instructions,
// and [golang.org/x/sync/errgroup] for scheduler worker lifecycle.
package lfpipe
