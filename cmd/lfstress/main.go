// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Binary lfstress stress-runs the lfpipe primitives and reports whether
// every item was delivered exactly once.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

var (
	debug   = flag.Bool("debug", false, "enable debug logging.")
	timeout = flag.Duration("timeout", time.Minute, "bound on a single stress run; 0 disables it.")
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	const stressGroup = "stress"
	subcommands.Register(new(pipeCmd), stressGroup)
	subcommands.Register(new(queueCmd), stressGroup)
	subcommands.Register(new(lockCmd), stressGroup)
	subcommands.Register(new(schedCmd), stressGroup)

	flag.Parse()
	setupLogging(*debug)
	os.Exit(int(execute(context.Background(), *timeout)))
}

// execute runs the selected command, bounded by limit when it is positive.
func execute(ctx context.Context, limit time.Duration) subcommands.ExitStatus {
	if limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	status := subcommands.Execute(ctx)
	if status != subcommands.ExitSuccess {
		logrus.WithField("status", int(status)).Debug("exiting")
	}
	return status
}

func setupLogging(debug bool) {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
	})
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}
