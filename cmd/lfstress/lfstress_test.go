// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

func init() {
	logrus.SetOutput(io.Discard)
}

// runCommand parses args into cmd's flags and executes it.
func runCommand(t *testing.T, ctx context.Context, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	f.SetOutput(io.Discard)
	cmd.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("%s: parse %v: %v", cmd.Name(), args, err)
	}
	return cmd.Execute(ctx, f)
}

func TestCommandsPass(t *testing.T) {
	for _, tc := range []struct {
		cmd  subcommands.Command
		args []string
	}{
		{new(pipeCmd), []string{"-readers=4", "-items=5000", "-capacity=16"}},
		{new(pipeCmd), []string{"-readers=2", "-items=5000", "-capacity=4", "-front=3"}},
		{new(queueCmd), []string{"-writers=4", "-items=2000"}},
		{new(lockCmd), []string{"-goroutines=4", "-increments=10000"}},
		{new(schedCmd), []string{"-workers=4", "-tasks=200", "-fanout=8", "-capacity=4"}},
		{new(schedCmd), []string{"-tasks=100", "-fanout=0"}},
	} {
		t.Run(tc.cmd.Name(), func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if got := runCommand(t, ctx, tc.cmd, tc.args...); got != subcommands.ExitSuccess {
				t.Fatalf("%s %v: got status %d, want ExitSuccess", tc.cmd.Name(), tc.args, got)
			}
		})
	}
}

func TestCommandsUsageError(t *testing.T) {
	for _, tc := range []struct {
		cmd  subcommands.Command
		args []string
	}{
		{new(pipeCmd), []string{"-readers=0"}},
		{new(pipeCmd), []string{"-capacity=0"}},
		{new(pipeCmd), []string{"extra"}},
		{new(queueCmd), []string{"-writers=0"}},
		{new(lockCmd), []string{"-increments=0"}},
		{new(schedCmd), []string{"-fanout=-1"}},
		{new(schedCmd), []string{"-workers=-2"}},
	} {
		if got := runCommand(t, context.Background(), tc.cmd, tc.args...); got != subcommands.ExitUsageError {
			t.Errorf("%s %v: got status %d, want ExitUsageError", tc.cmd.Name(), tc.args, got)
		}
	}
}

// TestCommandCanceled runs against an already canceled context. The run
// must stop and report failure rather than hang.
func TestCommandCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmds := []subcommands.Command{new(pipeCmd), new(queueCmd), new(lockCmd), new(schedCmd)}
	for _, cmd := range cmds {
		done := make(chan subcommands.ExitStatus, 1)
		go func() { done <- runCommand(t, ctx, cmd) }()
		select {
		case got := <-done:
			if got != subcommands.ExitFailure {
				t.Errorf("%s: got status %d, want ExitFailure", cmd.Name(), got)
			}
		case <-time.After(10 * time.Second):
			t.Fatalf("%s: did not stop after cancellation", cmd.Name())
		}
	}
}

func TestResultCheck(t *testing.T) {
	if err := (result{want: 3, got: 3}).check(); err != nil {
		t.Fatalf("clean result: %v", err)
	}
	for _, r := range []result{
		{want: 3, got: 2, lost: 1},
		{want: 3, got: 4, duplicated: 1},
		{want: 3, got: 2},
	} {
		if err := r.check(); !errors.Is(err, errViolation) {
			t.Errorf("%+v: got %v, want errViolation", r, err)
		}
	}
}

func TestTally(t *testing.T) {
	seen := make([]atomix.Int32, 5)
	seen[0].Add(1)
	seen[1].Add(3)
	seen[3].Add(1)
	lost, dup := tally(seen)
	if lost != 2 || dup != 2 {
		t.Fatalf("tally: got (lost %d, dup %d), want (2, 2)", lost, dup)
	}
}
