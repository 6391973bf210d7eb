// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"code.hybscloud.com/lfpipe"
)

type queueItem struct {
	link   lfpipe.Link[queueItem]
	writer int
	seq    int
}

func (n *queueItem) QueueLink() *lfpipe.Link[queueItem] { return &n.link }

// queueCmd implements subcommands.Command for the "queue" command.
type queueCmd struct {
	writers int
	items   int
}

// Name implements subcommands.Command.Name.
func (*queueCmd) Name() string {
	return "queue"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*queueCmd) Synopsis() string {
	return "concurrent writers against one reader of an IntrusiveQueue"
}

// Usage implements subcommands.Command.Usage.
func (*queueCmd) Usage() string {
	return `queue [flags]

-writers goroutines each push -items nodes while one goroutine pops.
Every node must be popped exactly once, each writer's nodes in push order.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *queueCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.writers, "writers", 4, "number of writers.")
	f.IntVar(&c.items, "items", 250000, "nodes pushed per writer.")
}

// Execute implements subcommands.Command.Execute.
func (c *queueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		return usageError(c.Name(), f.Usage, errors.New("unexpected arguments"))
	}
	if c.writers < 1 || c.items < 1 {
		return usageError(c.Name(), f.Usage, errors.New("-writers and -items must be >= 1"))
	}
	return report(ctx, c.Name(), c.run)
}

func (c *queueCmd) run(ctx context.Context) (result, error) {
	q := lfpipe.NewIntrusiveQueue[queueItem]()
	total := c.writers * c.items
	nodes := make([]queueItem, total)
	seen := make([]atomix.Int32, total)
	var consumed atomix.Int64

	g, gctx := errgroup.WithContext(ctx)
	for w := range c.writers {
		g.Go(func() error {
			for i := range c.items {
				if i%checkEvery == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				n := &nodes[w*c.items+i]
				n.writer, n.seq = w, i
				q.WriteFront(n)
			}
			return nil
		})
	}

	// The single reader
	g.Go(func() error {
		last := make([]int, c.writers)
		for i := range last {
			last[i] = -1
		}
		backoff := iox.Backoff{}
		for consumed.Load() < int64(total) {
			n := q.ReadBack()
			if n == nil {
				if err := gctx.Err(); err != nil {
					return err
				}
				backoff.Wait()
				continue
			}
			backoff.Reset()

			if n.seq <= last[n.writer] {
				return fmt.Errorf("%w: writer %d: seq %d after %d", errViolation, n.writer, n.seq, last[n.writer])
			}
			last[n.writer] = n.seq
			seen[n.writer*c.items+n.seq].Add(1)
			consumed.Add(1)
		}
		return nil
	})

	err := g.Wait()
	lost, dup := tally(seen)
	return result{
		want:       int64(total),
		got:        consumed.Load(),
		lost:       lost,
		duplicated: dup,
	}, err
}
