/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package actor

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// node returns the queue node
type node struct {
	value atomic.Pointer[ReceiveContext]
	next  unsafe.Pointer
}

// Single global pool for queue nodes to avoid per-op allocations.
var nodePool = sync.Pool{New: func() any { return new(node) }}

// UnboundedMailbox is a lock-free multi-producer, single-consumer (MPSC)
// FIFO queue used as the actor mailbox.
//
// It is safe for many producer goroutines to call Enqueue concurrently, while
// exactly one consumer goroutine calls Dequeue. Ordering is preserved (FIFO)
// with respect to overall arrival order. Operations are non-blocking and rely
// on atomic pointer updates; underlying nodes are pooled via sync.Pool to
// reduce allocations.
//
// The zero value of UnboundedMailbox is not ready for use; always construct via
// NewUnboundedMailbox.
//
// Reference: https://concurrencyfreaks.blogspot.com/2014/04/multi-producer-single-consumer-queue.html
type UnboundedMailbox struct {
	head    unsafe.Pointer // *node, consumer side
	tail    unsafe.Pointer // *node, producer side
	counter int64
}

// enforces compilation error
var _ Mailbox = (*UnboundedMailbox)(nil)

// NewUnboundedMailbox returns a new, initialized UnboundedMailbox.
func NewUnboundedMailbox() *UnboundedMailbox {
	item := new(node)
	return &UnboundedMailbox{
		head: unsafe.Pointer(item),
		tail: unsafe.Pointer(item),
	}
}

// Enqueue appends the given ReceiveContext to the tail of the mailbox.
//
// It is safe to call Enqueue concurrently from multiple goroutines. The method
// currently always returns nil; the error is present to satisfy the Mailbox
// interface.
func (m *UnboundedMailbox) Enqueue(value *ReceiveContext) error {
	tnode := nodePool.Get().(*node)
	tnode.value.Store(value)
	atomic.StorePointer(&tnode.next, nil)

	// Atomically swap the tail pointer and link the previous tail to this node
	prev := (*node)(atomic.SwapPointer(&m.tail, unsafe.Pointer(tnode)))
	atomic.StorePointer(&prev.next, unsafe.Pointer(tnode))
	atomic.AddInt64(&m.counter, 1)
	return nil
}

// Dequeue removes and returns the next message at the head of the mailbox.
//
// It returns nil if the mailbox is empty. Dequeue must be called by exactly one
// consumer goroutine; concurrent calls to Dequeue are not supported.
func (m *UnboundedMailbox) Dequeue() *ReceiveContext {
	head := (*node)(atomic.LoadPointer(&m.head))
	next := (*node)(atomic.LoadPointer(&head.next))

	if next == nil {
		return nil
	}

	atomic.StorePointer(&m.head, unsafe.Pointer(next))
	value := next.value.Load()
	next.value.Store(nil) // avoid memory leaks
	atomic.AddInt64(&m.counter, -1)

	// the previous head node can be recycled now that it is unlinked
	head.next = nil
	nodePool.Put(head)
	return value
}

// IsEmpty returns true when the mailbox is empty.
func (m *UnboundedMailbox) IsEmpty() bool {
	return m.Len() == 0
}

// Len returns the number of messages in the mailbox.
func (m *UnboundedMailbox) Len() int64 {
	return atomic.LoadInt64(&m.counter)
}
