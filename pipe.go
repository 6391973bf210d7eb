// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfpipe

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Slot states. The state word of each slot is the sole arbiter of who
// owns the slot; all indices are hints.
const (
	slotCanWrite uint64 = iota // empty, writer may fill
	slotCanRead                // published, any reader may claim
	slotInFlight               // claimed, being copied out
)

// maxPipeCapacity is the largest supported capacity (log2 below 32).
const maxPipeCapacity = 1 << 31

// Pipe is a bounded single-writer multi-reader work pipe.
//
// Exactly one goroutine, the writer, may call WriteFront and ReadFront.
// Any number of goroutines, the writer included, may call ReadBack
// concurrently. Items written at the front are stolen from the back in
// insertion order, while the writer drains its own front in reverse order.
//
// Every slot cycles CAN_WRITE → CAN_READ → IN_FLIGHT → CAN_WRITE. Readers
// and the front-draining writer claim a slot with a CAS from CAN_READ to
// IN_FLIGHT, so two parties racing for the last item are serialized by
// that single CAS.
//
// Memory: n slots (8 bytes + sizeof(T), padded to a cache line)
type Pipe[T any] struct {
	_          pad
	writeIndex atomix.Uint64 // Writer advances; ReadFront rewinds
	_          pad
	readCount  atomix.Uint64 // Completed back reads
	_          pad
	readIndex  atomix.Uint64 // One past the highest claimed index (search hint)
	_          pad
	buffer     []pipeSlot[T]
	mask       uint64
}

type pipeSlot[T any] struct {
	state atomix.Uint64
	data  T
	_     padShort
}

// NewPipe creates a pipe with the given capacity.
//
// Panics unless capacity is a power of 2 in [1, 2^31]. Use [New] with
// [BuildPipe] to round an arbitrary capacity up instead.
func NewPipe[T any](capacity int) *Pipe[T] {
	if capacity < 1 || capacity > maxPipeCapacity || capacity&(capacity-1) != 0 {
		panic("lfpipe: pipe capacity must be a power of 2 in [1, 2^31]")
	}

	// A fresh slice is all slotCanWrite (zero).
	return &Pipe[T]{
		buffer: make([]pipeSlot[T], capacity),
		mask:   uint64(capacity - 1),
	}
}

// WriteFront publishes elem at the front of the pipe (writer only).
// The value is copied into the pipe.
// Returns ErrWouldBlock if the pipe is full, or if the oldest slot is still
// being copied out by a reader.
func (p *Pipe[T]) WriteFront(elem *T) error {
	w := p.writeIndex.LoadRelaxed()
	slot := &p.buffer[w&p.mask]

	if slot.state.LoadAcquire() != slotCanWrite {
		return ErrWouldBlock
	}

	// No reader touches a CAN_WRITE slot.
	slot.data = *elem
	slot.state.StoreRelease(slotCanRead)
	p.writeIndex.StoreRelease(w + 1)

	return nil
}

// ReadBack removes and returns the oldest available element.
// Safe for any number of concurrent readers, including the writer.
// Returns (zero-value, ErrWouldBlock) if the pipe is empty.
//
// The search starts at the advisory readIndex. A ReadFront racing with a
// reader can leave a readable slot below that hint, so once the search
// passes the front it sweeps every slot that may still be occupied.
func (p *Pipe[T]) ReadBack() (T, error) {
	readCount := p.readCount.LoadAcquire()
	idx := max(p.readIndex.LoadRelaxed(), readCount)
	capacity := p.mask + 1

	var slot *pipeSlot[T]
	swept := false
	sw := spin.Wait{}
	for {
		w := p.writeIndex.LoadAcquire()
		if w <= readCount {
			var zero T
			return zero, ErrWouldBlock
		}

		// Occupied slots all lie in [w-capacity, w).
		low := w - min(w, capacity)
		if idx < low {
			idx = low
		}
		if idx >= w {
			// Passed the front: sweep the window from its start. After a
			// fruitless sweep every remaining item is claimed, so wait
			// for the claimers first.
			if swept {
				sw.Once()
				readCount = p.readCount.LoadAcquire()
			}
			swept = true
			idx = low
			continue
		}

		slot = &p.buffer[idx&p.mask]
		if slot.state.CompareAndSwapAcqRel(slotCanRead, slotInFlight) {
			break
		}

		idx++
		readCount = p.readCount.LoadAcquire()
	}

	p.raiseReadIndex(idx + 1)
	p.readCount.AddAcqRel(1)

	elem := slot.data
	var zero T
	slot.data = zero
	slot.state.StoreRelease(slotCanWrite)

	return elem, nil
}

// ReadFront removes and returns the most recently written element
// (writer only).
//
// ReadFront competes with back readers for the front slot. When a reader
// has already claimed it, ReadFront gives up with ErrWouldBlock rather than
// chase the reader, so the writer always makes progress.
// Returns (zero-value, ErrWouldBlock) if the pipe is empty.
func (p *Pipe[T]) ReadFront() (T, error) {
	w := p.writeIndex.LoadRelaxed()
	front := w - 1

	sw := spin.Wait{}
	for {
		if w <= p.readCount.LoadAcquire() {
			var zero T
			return zero, ErrWouldBlock
		}

		slot := &p.buffer[front&p.mask]
		if slot.state.CompareAndSwapAcqRel(slotCanRead, slotInFlight) {
			// Rewind first so back readers stop probing this slot.
			p.writeIndex.StoreRelease(front)

			elem := slot.data
			var zero T
			slot.data = zero
			slot.state.StoreRelease(slotCanWrite)
			return elem, nil
		}

		// A reader owns the front slot. Once it has published its claim,
		// or already released the slot, there is nothing left for the
		// writer at this end.
		if p.readIndex.LoadAcquire() > front || slot.state.LoadAcquire() == slotCanWrite {
			var zero T
			return zero, ErrWouldBlock
		}
		sw.Once()
	}
}

// raiseReadIndex moves the advisory low-water mark forward to at least n.
func (p *Pipe[T]) raiseReadIndex(n uint64) {
	for {
		cur := p.readIndex.LoadRelaxed()
		if cur >= n || p.readIndex.CompareAndSwapRelaxed(cur, n) {
			return
		}
	}
}

// IsEmpty reports whether the pipe looked empty at the instant of the call.
//
// The result is a hint only: either end may change immediately afterwards.
// Recheck with ReadBack or ReadFront before acting on it.
func (p *Pipe[T]) IsEmpty() bool {
	return p.writeIndex.LoadAcquire() == p.readCount.LoadAcquire()
}

// Clear resets the pipe to its freshly constructed state.
//
// Clear is not synchronized: the caller must guarantee that no other
// goroutine is inside any Pipe method, e.g. at a startup or shutdown
// barrier.
func (p *Pipe[T]) Clear() {
	var zero T
	for i := range p.buffer {
		p.buffer[i].data = zero
		p.buffer[i].state.StoreRelaxed(slotCanWrite)
	}
	p.readIndex.StoreRelaxed(0)
	p.readCount.StoreRelaxed(0)
	p.writeIndex.StoreRelease(0)
}

// Cap returns the pipe capacity.
func (p *Pipe[T]) Cap() int {
	return int(p.mask + 1)
}
