// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"flag"

	"code.hybscloud.com/atomix"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"code.hybscloud.com/lfpipe"
)

// schedCmd implements subcommands.Command for the "sched" command.
type schedCmd struct {
	workers  int
	tasks    int
	fanout   int
	capacity int
}

// Name implements subcommands.Command.Name.
func (*schedCmd) Name() string {
	return "sched"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*schedCmd) Synopsis() string {
	return "submit and spawn tasks on a work-stealing Scheduler"
}

// Usage implements subcommands.Command.Usage.
func (*schedCmd) Usage() string {
	return `sched [flags]

Submits -tasks root tasks; each spawns -fanout children onto its worker's
pipe, where idle workers steal them. Every task must run exactly once.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *schedCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.workers, "workers", 0, "number of workers; 0 selects GOMAXPROCS.")
	f.IntVar(&c.tasks, "tasks", 10000, "number of submitted root tasks.")
	f.IntVar(&c.fanout, "fanout", 16, "children spawned by each root task.")
	f.IntVar(&c.capacity, "capacity", 256, "per-worker pipe capacity, rounded up to a power of 2.")
}

func (c *schedCmd) validate() error {
	switch {
	case c.workers < 0:
		return errors.New("-workers must be >= 0")
	case c.tasks < 1:
		return errors.New("-tasks must be >= 1")
	case c.fanout < 0:
		return errors.New("-fanout must be >= 0")
	case c.capacity < 1 || c.capacity > 1<<31:
		return errors.New("-capacity must be in [1, 2^31]")
	}
	return nil
}

// Execute implements subcommands.Command.Execute.
func (c *schedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		return usageError(c.Name(), f.Usage, errors.New("unexpected arguments"))
	}
	if err := c.validate(); err != nil {
		return usageError(c.Name(), f.Usage, err)
	}
	return report(ctx, c.Name(), c.run)
}

func (c *schedCmd) run(ctx context.Context) (result, error) {
	b := lfpipe.New(c.capacity)
	if c.workers > 0 {
		b = b.Workers(c.workers)
	}
	s := b.BuildScheduler()

	stride := 1 + c.fanout
	total := c.tasks * stride
	seen := make([]atomix.Int32, total)
	var ran atomix.Int64

	mark := func(id int) {
		seen[id].Add(1)
		ran.Add(1)
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	stopped := make(chan error, 1)
	go func() { stopped <- s.Run(runCtx) }()

	logrus.WithFields(logrus.Fields{
		"workers": s.Workers(),
		"total":   total,
	}).Debug("scheduler started")

	for i := range c.tasks {
		root := i * stride
		s.Submit(func(w *lfpipe.Worker) error {
			mark(root)
			for j := 1; j < stride; j++ {
				w.Spawn(func(*lfpipe.Worker) error {
					mark(root + j)
					return nil
				})
			}
			return nil
		})
	}

	err := s.WaitIdle(ctx)
	stop()
	if runErr := <-stopped; err == nil {
		err = runErr
	}

	lost, dup := tally(seen)
	return result{
		want:       int64(total),
		got:        ran.Load(),
		lost:       lost,
		duplicated: dup,
	}, err
}
