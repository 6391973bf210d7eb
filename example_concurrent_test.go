// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

// This file contains examples with concurrent writer/reader goroutines.
// Pipe payloads are published through atomics the race detector cannot
// see. The examples are correct; they're excluded from race testing.

package lfpipe_test

import (
	"context"
	"fmt"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"

	"code.hybscloud.com/lfpipe"
)

// Example_workStealing has one owner queue work while helpers steal it.
func Example_workStealing() {
	type Job struct {
		ID    int
		Input int
	}

	p := lfpipe.NewPipe[Job](8)
	results := make([]int, 6)
	var done atomix.Int64
	var wg sync.WaitGroup

	// Helpers steal from the back
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			backoff := iox.Backoff{}
			for done.Load() < 6 {
				job, err := p.ReadBack()
				if err != nil {
					backoff.Wait()
					continue
				}
				backoff.Reset()
				results[job.ID] = job.Input * job.Input
				done.Add(1)
			}
		}()
	}

	// Owner queues work and also drains its own front
	backoff := iox.Backoff{}
	for i := range 6 {
		job := Job{ID: i, Input: i + 1}
		for p.WriteFront(&job) != nil {
			backoff.Wait()
		}
		backoff.Reset()
	}
	for done.Load() < 6 {
		if job, err := p.ReadFront(); err == nil {
			results[job.ID] = job.Input * job.Input
			done.Add(1)
		}
	}

	wg.Wait()

	for i, r := range results {
		fmt.Printf("Job %d: %d² = %d\n", i, i+1, r)
	}

	// Output:
	// Job 0: 1² = 1
	// Job 1: 2² = 4
	// Job 2: 3² = 9
	// Job 3: 4² = 16
	// Job 4: 5² = 25
	// Job 5: 6² = 36
}

// ExampleScheduler fans a computation out over the workers.
func ExampleScheduler() {
	s := lfpipe.New(64).Workers(4).BuildScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopped := make(chan error, 1)
	go func() { stopped <- s.Run(ctx) }()

	var sum atomix.Int64
	s.Submit(func(w *lfpipe.Worker) error {
		for i := 1; i <= 100; i++ {
			w.Spawn(func(*lfpipe.Worker) error {
				sum.Add(int64(i))
				return nil
			})
		}
		return nil
	})

	if err := s.WaitIdle(ctx); err != nil {
		fmt.Println("wait:", err)
	}
	cancel()
	fmt.Println("run:", <-stopped)
	fmt.Println("sum:", sum.Load())

	// Output:
	// run: <nil>
	// sum: 5050
}
