// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfpipe_test

import (
	"runtime"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// =============================================================================
// Test Helpers
// =============================================================================

// stallTimeout is how long a stress run may go without progress.
const stallTimeout = 10 * time.Second

// stressItems scales a stress item count to the machine: oversubscribed
// readers on few CPUs spend most of their time in backoff sleeps.
func stressItems(n int) int {
	if cpus := runtime.NumCPU(); cpus < 4 {
		n = n * cpus / 8
	}
	if testing.Short() {
		n /= 10
	}
	return max(n, 1000)
}

// watchdog tracks the last time any goroutine of a stress run made progress.
type watchdog struct {
	last atomix.Int64 // UnixNano of the last progress
}

func newWatchdog() *watchdog {
	w := &watchdog{}
	w.kick()
	return w
}

// kick records progress.
func (w *watchdog) kick() {
	w.last.Store(time.Now().UnixNano())
}

// stalled reports whether nothing progressed for stallTimeout.
func (w *watchdog) stalled() bool {
	return time.Since(time.Unix(0, w.last.Load())) > stallTimeout
}

// waitForCount waits until counter reaches target. It fails if the counter
// stops moving for timeout.
func waitForCount(t *testing.T, timeout time.Duration, counter *atomix.Int64, target int64, msg string) {
	t.Helper()
	seen := counter.Load()
	deadline := time.Now().Add(timeout)
	backoff := iox.Backoff{}
	for {
		n := counter.Load()
		if n >= target {
			return
		}
		if n != seen {
			seen = n
			deadline = time.Now().Add(timeout)
		}
		if time.Now().After(deadline) {
			t.Fatalf("no progress for %v: %s (got %d, want %d)", timeout, msg, n, target)
		}
		backoff.Wait()
	}
}

// checkExactlyOnce reports every value that was seen zero or several times.
func checkExactlyOnce(t *testing.T, seen []atomix.Int32) {
	t.Helper()
	var missing, duplicates int
	for i := range seen {
		switch n := seen[i].Load(); {
		case n == 0:
			missing++
		case n > 1:
			duplicates++
		}
	}
	if missing > 0 || duplicates > 0 {
		t.Fatalf("conservation: %d missing, %d duplicated of %d", missing, duplicates, len(seen))
	}
}
