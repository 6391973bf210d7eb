// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfpipe

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Link is the queue linkage embedded in nodes of an [IntrusiveQueue].
//
// The link is a chaining relation only. It never keeps a node alive beyond
// what the caller already holds, and the queue never allocates or frees
// nodes.
type Link[T any] struct {
	next atomix.Pointer[T]
}

// Node is the constraint satisfied by pointers to node types.
//
// A node type embeds a Link and returns it from QueueLink:
//
//	type job struct {
//	    link lfpipe.Link[job]
//	    id   int
//	}
//
//	func (j *job) QueueLink() *lfpipe.Link[job] { return &j.link }
type Node[T any] interface {
	*T
	QueueLink() *Link[T]
}

// IntrusiveQueue is an unbounded multi-producer single-consumer queue of
// caller-owned nodes.
//
// Producers swap themselves into head and then link their predecessor to
// themselves. Between those two steps a new node is reachable from head but
// not yet from the sentinel; only the consumer walks the chain and it
// tolerates that window.
//
// WriteFront is safe from any number of goroutines. ReadBack and Empty must
// only be called by one consumer goroutine at a time; concurrent consumers
// are not detected and corrupt the queue.
//
// A node must not be pushed again until it has been returned by ReadBack.
type IntrusiveQueue[T any, N Node[T]] struct {
	_    pad
	head atomix.Pointer[T] // Most recently pushed node, or &stub
	_    pad
	stub T // Sentinel; stub.next is the oldest node
}

// NewIntrusiveQueue creates an empty queue.
func NewIntrusiveQueue[T any, N Node[T]]() *IntrusiveQueue[T, N] {
	q := &IntrusiveQueue[T, N]{}
	q.head.StoreRelease(&q.stub)
	return q
}

func (q *IntrusiveQueue[T, N]) link(node *T) *Link[T] {
	return N(node).QueueLink()
}

// WriteFront appends node to the queue (multiple producers safe).
func (q *IntrusiveQueue[T, N]) WriteFront(node *T) {
	q.link(node).next.StoreRelease(nil)
	prev := q.head.SwapAcqRel(node)
	// Publishes node and its payload to the consumer.
	q.link(prev).next.StoreRelease(node)
}

// ReadBack removes and returns the oldest node (single consumer only).
// Returns nil if the queue is empty.
func (q *IntrusiveQueue[T, N]) ReadBack() *T {
	stub := q.link(&q.stub)
	node := stub.next.LoadAcquire()
	if node == nil {
		return nil
	}

	next := q.link(node).next.LoadAcquire()
	if next != nil {
		// At least two nodes: producers only touch head, which is not node.
		stub.next.StoreRelease(next)
		return node
	}

	// node looks like the last one. Park head on the sentinel again.
	if q.head.CompareAndSwapAcqRel(node, &q.stub) {
		// A producer that arrived after the CAS may already have linked
		// itself behind the sentinel; keep its link.
		stub.next.CompareAndSwapAcqRel(node, nil)
		return node
	}

	// A producer swapped head away from node and is about to link node to
	// its own node. Wait for that store.
	sw := spin.Wait{}
	for {
		next = q.link(node).next.LoadAcquire()
		if next != nil {
			break
		}
		sw.Once()
	}
	stub.next.StoreRelease(next)
	return node
}

// Empty reports whether the queue has no linked node (single consumer only).
// A push that is mid-flight may not be visible yet.
func (q *IntrusiveQueue[T, N]) Empty() bool {
	return q.link(&q.stub).next.LoadAcquire() == nil
}
