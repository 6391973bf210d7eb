// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"flag"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"code.hybscloud.com/lfpipe"
)

// pipeCmd implements subcommands.Command for the "pipe" command.
type pipeCmd struct {
	readers  int
	items    int
	capacity int
	front    int
}

// Name implements subcommands.Command.Name.
func (*pipeCmd) Name() string {
	return "pipe"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*pipeCmd) Synopsis() string {
	return "one writer against concurrent back readers of a Pipe"
}

// Usage implements subcommands.Command.Usage.
func (*pipeCmd) Usage() string {
	return `pipe [flags]

One goroutine writes -items values to the front of a pipe while -readers
goroutines steal from the back. With -front N the writer also reads its own
front after every N writes. Every value must be read exactly once.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *pipeCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.readers, "readers", 4, "number of back readers.")
	f.IntVar(&c.items, "items", 1000000, "number of values to write.")
	f.IntVar(&c.capacity, "capacity", 256, "pipe capacity, rounded up to a power of 2.")
	f.IntVar(&c.front, "front", 0, "writer reads its front after every N writes; 0 disables it.")
}

func (c *pipeCmd) validate() error {
	switch {
	case c.readers < 1:
		return errors.New("-readers must be >= 1")
	case c.items < 1:
		return errors.New("-items must be >= 1")
	case c.capacity < 1 || c.capacity > 1<<31:
		return errors.New("-capacity must be in [1, 2^31]")
	case c.front < 0:
		return errors.New("-front must be >= 0")
	}
	return nil
}

// Execute implements subcommands.Command.Execute.
func (c *pipeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		return usageError(c.Name(), f.Usage, errors.New("unexpected arguments"))
	}
	if err := c.validate(); err != nil {
		return usageError(c.Name(), f.Usage, err)
	}
	return report(ctx, c.Name(), c.run)
}

func (c *pipeCmd) run(ctx context.Context) (result, error) {
	p := lfpipe.BuildPipe[int](lfpipe.New(c.capacity))
	total := int64(c.items)
	seen := make([]atomix.Int32, c.items)
	var consumed atomix.Int64

	take := func(v int) {
		seen[v].Add(1)
		consumed.Add(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	for range c.readers {
		g.Go(func() error {
			backoff := iox.Backoff{}
			for consumed.Load() < total {
				v, err := p.ReadBack()
				if err != nil {
					if err := gctx.Err(); err != nil {
						return err
					}
					backoff.Wait()
					continue
				}
				backoff.Reset()
				take(v)
			}
			return nil
		})
	}

	// The single writer
	g.Go(func() error {
		backoff := iox.Backoff{}
		for i := range c.items {
			if i%checkEvery == 0 {
				if err := gctx.Err(); err != nil {
					return err
				}
			}
			v := i
			for p.WriteFront(&v) != nil {
				if err := gctx.Err(); err != nil {
					return err
				}
				backoff.Wait()
			}
			backoff.Reset()

			if c.front > 0 && i%c.front == c.front-1 {
				if v, err := p.ReadFront(); err == nil {
					take(v)
				}
			}
		}
		return nil
	})

	err := g.Wait()
	lost, dup := tally(seen)
	return result{
		want:       total,
		got:        consumed.Load(),
		lost:       lost,
		duplicated: dup,
	}, err
}
