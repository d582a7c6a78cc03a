// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pqueue implements the sequence-ordered packet queue that sits
// between the RTP receive loop and the sample processor.
package pqueue

import (
	"sync"
)

// Packet is an owned buffer holding one inbound datagram's payload, its
// parsed RTP sequence number (used only for ordering within the queue),
// and a forward link.
type Packet struct {
	Seq     uint16
	Data    []byte
	Next    *Packet
}

// Queue is a singly-linked list of Packets kept in ascending sequence
// number order, with condvar-style blocking dequeue. The queue is
// expected to stay short since, per the design, the sender is on the
// same local network.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	head   *Packet
	closed bool
}

// New creates an empty Queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Insert adds p to the queue, walking from the head to keep the list in
// ascending sequence-number order, then signals any blocked Dequeue.
// Sequence-number comparison wraps at 2^16 the same way the RTP sequence
// space does: equal entries are inserted after existing ones with the
// same sequence number.
func (q *Queue) Insert(p *Packet) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	if q.head == nil || seqLess(p.Seq, q.head.Seq) {
		p.Next = q.head
		q.head = p
		q.cond.Signal()
		return
	}
	cur := q.head
	for cur.Next != nil && !seqLess(p.Seq, cur.Next.Seq) {
		cur = cur.Next
	}
	p.Next = cur.Next
	cur.Next = p
	q.cond.Signal()
}

// seqLess reports whether a comes strictly before b in a 16-bit
// sequence-number space using the usual half-range wraparound rule.
func seqLess(a, b uint16) bool {
	return int16(a-b) < 0
}

// Dequeue blocks until a packet is available or the queue is closed, and
// returns the head packet, removing it from the list. It returns nil,
// false if the queue was closed and is now empty.
func (q *Queue) Dequeue() (*Packet, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.head == nil && !q.closed {
		q.cond.Wait()
	}
	if q.head == nil {
		return nil, false
	}
	p := q.head
	q.head = p.Next
	p.Next = nil
	return p, true
}

// Close unblocks any goroutine waiting in Dequeue once the queue drains;
// further Insert calls after Close are ignored.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len returns the current number of queued packets. Intended for tests
// and diagnostics, not the hot path.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for p := q.head; p != nil; p = p.Next {
		n++
	}
	return n
}
