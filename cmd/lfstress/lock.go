// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"flag"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"code.hybscloud.com/lfpipe"
)

// lockCmd implements subcommands.Command for the "lock" command.
type lockCmd struct {
	goroutines int
	increments int
}

// Name implements subcommands.Command.Name.
func (*lockCmd) Name() string {
	return "lock"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*lockCmd) Synopsis() string {
	return "contended increments of a counter guarded by a SpinLock"
}

// Usage implements subcommands.Command.Usage.
func (*lockCmd) Usage() string {
	return `lock [flags]

-goroutines goroutines each increment a plain counter -increments times,
holding a SpinLock around every increment. No update may be lost.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *lockCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.goroutines, "goroutines", 8, "number of contending goroutines.")
	f.IntVar(&c.increments, "increments", 100000, "increments per goroutine.")
}

// Execute implements subcommands.Command.Execute.
func (c *lockCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		return usageError(c.Name(), f.Usage, errors.New("unexpected arguments"))
	}
	if c.goroutines < 1 || c.increments < 1 {
		return usageError(c.Name(), f.Usage, errors.New("-goroutines and -increments must be >= 1"))
	}
	return report(ctx, c.Name(), c.run)
}

func (c *lockCmd) run(ctx context.Context) (result, error) {
	var (
		l       lfpipe.SpinLock
		counter int64
	)

	g, gctx := errgroup.WithContext(ctx)
	for range c.goroutines {
		g.Go(func() error {
			for i := range c.increments {
				if i%checkEvery == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				l.Lock()
				counter++
				l.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()

	want := int64(c.goroutines) * int64(c.increments)
	r := result{want: want, got: counter}
	if err == nil && counter < want {
		r.lost = int(want - counter)
	}
	return r, err
}
