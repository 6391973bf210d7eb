// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfpipe

import "runtime"

// Options configures pipe and scheduler creation.
type Options struct {
	// Capacity per pipe (rounds up to next power of 2)
	capacity int

	// Scheduler workers (0 selects GOMAXPROCS)
	workers int
}

// Builder creates pipes and schedulers with fluent configuration.
//
// Example:
//
//	// A pipe of at least 1000 slots (actual capacity 1024)
//	p := lfpipe.BuildPipe[Task](lfpipe.New(1000))
//
//	// A scheduler with 8 workers, 256 slots per worker pipe
//	s := lfpipe.New(256).Workers(8).BuildScheduler()
type Builder struct {
	opts Options
}

// New creates a builder with the given per-pipe capacity.
//
// Capacity rounds up to the next power of 2.
// For example, capacity=4 results in actual capacity=4, capacity=1000 results
// in actual capacity=1024.
//
// Panics if capacity < 1 or capacity > 2^31.
func New(capacity int) *Builder {
	if capacity < 1 || capacity > maxPipeCapacity {
		panic("lfpipe: capacity must be in [1, 2^31]")
	}
	return &Builder{opts: Options{capacity: capacity}}
}

// Workers sets the number of scheduler workers.
// Panics if n < 1.
func (b *Builder) Workers(n int) *Builder {
	if n < 1 {
		panic("lfpipe: workers must be >= 1")
	}
	b.opts.workers = n
	return b
}

// Capacity returns the per-pipe capacity the builder will use, after
// rounding.
func (b *Builder) Capacity() int {
	return roundToPow2(b.opts.capacity)
}

// BuildPipe creates a Pipe[T] with the builder's capacity.
func BuildPipe[T any](b *Builder) *Pipe[T] {
	return NewPipe[T](b.Capacity())
}

// BuildScheduler creates a Scheduler with one pipe per worker.
// Without Workers, the worker count is runtime.GOMAXPROCS(0).
func (b *Builder) BuildScheduler() *Scheduler {
	n := b.opts.workers
	if n == 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return NewScheduler(n, b.Capacity())
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
