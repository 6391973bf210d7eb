// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

var errViolation = errors.New("property violated")

// checkEvery is how many operations a stress goroutine makes between
// context checks.
const checkEvery = 1024

// result is the outcome of one stress run.
type result struct {
	want       int64 // Items (or increments) the run should account for
	got        int64
	lost       int
	duplicated int
	elapsed    time.Duration
}

func (r result) fields() logrus.Fields {
	return logrus.Fields{
		"want":       r.want,
		"got":        r.got,
		"lost":       r.lost,
		"duplicated": r.duplicated,
		"elapsed":    r.elapsed,
	}
}

// check reports errViolation if anything was lost or seen twice.
func (r result) check() error {
	if r.lost != 0 || r.duplicated != 0 || r.got != r.want {
		return fmt.Errorf("%w: got %d of %d, lost %d, duplicated %d",
			errViolation, r.got, r.want, r.lost, r.duplicated)
	}
	return nil
}

// tally counts per-item delivery marks. Every mark should be exactly 1.
func tally(seen []atomix.Int32) (lost, duplicated int) {
	for i := range seen {
		switch n := seen[i].Load(); {
		case n == 0:
			lost++
		case n > 1:
			duplicated += int(n - 1)
		}
	}
	return lost, duplicated
}

// report runs one stress pass and maps its outcome to an exit status.
func report(ctx context.Context, name string, run func(context.Context) (result, error)) subcommands.ExitStatus {
	log := logrus.WithField("command", name)
	log.Debug("starting stress run")

	start := time.Now()
	r, err := run(ctx)
	r.elapsed = time.Since(start)
	if err == nil {
		err = r.check()
	}
	if err != nil {
		log.WithFields(r.fields()).WithError(err).Error("stress run failed")
		return subcommands.ExitFailure
	}
	log.WithFields(r.fields()).Info("stress run passed")
	return subcommands.ExitSuccess
}

// usageError logs a flag validation error and prints usage.
func usageError(name string, usage func(), err error) subcommands.ExitStatus {
	logrus.WithField("command", name).WithError(err).Error("invalid flags")
	usage()
	return subcommands.ExitUsageError
}
