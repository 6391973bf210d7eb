// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfpipe

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

const (
	spinUnlocked uint64 = iota
	spinLocked
)

// SpinLock is a test-and-test-and-set spin lock for short critical sections.
//
// Lock busy-waits instead of parking the goroutine. Waiters spin on a plain
// load and only retry the CAS once the lock reads free. spin.Wait pauses
// the CPU and eventually yields to the scheduler.
//
// There is no fairness and no reentrancy: locking twice from the same
// goroutine deadlocks.
//
// The zero value is an unlocked lock. A SpinLock must not be copied after
// first use.
type SpinLock struct {
	state atomix.Uint64
}

var _ sync.Locker = (*SpinLock)(nil)

// Lock acquires the lock, spinning until it is available.
func (l *SpinLock) Lock() {
	if l.state.CompareAndSwapAcqRel(spinUnlocked, spinLocked) {
		return
	}
	l.lockSlow()
}

func (l *SpinLock) lockSlow() {
	sw := spin.Wait{}
	for {
		for l.state.LoadRelaxed() != spinUnlocked {
			sw.Once()
		}
		if l.state.CompareAndSwapAcqRel(spinUnlocked, spinLocked) {
			return
		}
	}
}

// TryLock acquires the lock if it is free and reports whether it did.
func (l *SpinLock) TryLock() bool {
	return l.state.LoadRelaxed() == spinUnlocked &&
		l.state.CompareAndSwapAcqRel(spinUnlocked, spinLocked)
}

// Unlock releases the lock.
// Panics if the lock is not held.
func (l *SpinLock) Unlock() {
	if l.state.LoadRelaxed() != spinLocked {
		panic("lfpipe: unlock of unlocked SpinLock")
	}
	l.state.StoreRelease(spinUnlocked)
}
