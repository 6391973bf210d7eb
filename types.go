// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfpipe

import "unsafe"

// Writer is the owner side of a work pipe.
//
// Only one goroutine may hold and use a Writer. Both operations are
// non-blocking and return ErrWouldBlock when they cannot act now.
//
// Example:
//
//	p := lfpipe.NewPipe[Task](256)
//	var w lfpipe.Writer[Task] = p
//
//	t := Task{ID: 1}
//	if err := w.WriteFront(&t); lfpipe.IsWouldBlock(err) {
//	    // Pipe full: run t inline or try another pipe
//	}
//
//	// Take back the most recent item instead of waiting for a thief
//	if t, err := w.ReadFront(); err == nil {
//	    t.Run()
//	}
type Writer[T any] interface {
	// WriteFront copies *elem into the front of the pipe.
	// Returns nil on success, ErrWouldBlock if the pipe is full.
	WriteFront(elem *T) error

	// ReadFront removes the most recently written element (LIFO).
	// Returns (zero-value, ErrWouldBlock) if the pipe is empty or a
	// reader won the race for the front slot.
	ReadFront() (T, error)
}

// Reader is the stealing side of a work pipe.
//
// Any number of goroutines may share a Reader, including the goroutine
// that owns the Writer side.
type Reader[T any] interface {
	// ReadBack removes the oldest element (FIFO).
	// Returns (zero-value, ErrWouldBlock) if the pipe is empty.
	ReadBack() (T, error)
}

// WorkPipe is the combined interface implemented by [Pipe].
//
// There is intentionally no length: IsEmpty is the only occupancy query
// and it is a hint.
type WorkPipe[T any] interface {
	Writer[T]
	Reader[T]
	IsEmpty() bool
	Cap() int
}

var _ WorkPipe[int] = (*Pipe[int])(nil)

// ptrSize is the size of a pointer in bytes.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill cache line after 8-byte field.
type padShort [64 - 8]byte

// padPtr is padding to fill cache line after pointer-sized field.
type padPtr [64 - ptrSize]byte
