/*
DESCRIPTION
  ring.go implements a fixed-capacity, lock-protected, drop-oldest ring
  buffer of frames sitting between the CaptureEngine producer and the
  Pipeline consumer.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ring provides RingBuffer, a fixed-capacity, mutex-protected,
// drop-oldest queue used to hand Frames from a capturing producer to a
// processing consumer without blocking the producer.
package ring

import (
	"errors"
	"sync"
	"time"
)

// ErrNoImage is returned by GetBegin when no slot is currently Full.
var ErrNoImage = errors.New("ring: no image")

// slotState is the lifecycle state of one ring slot.
type slotState uint8

const (
	free slotState = iota
	writing
	full
	reading
)

type slot[T any] struct {
	state slotState
	seq   uint64
	ts    time.Time
	val   T
}

// RingBuffer is a bounded, generic, drop-oldest queue of type T. Recommended
// capacity is 4-16 slots, camera dependent. All state transitions occur
// under a single mutex; a reader holding a slot via GetBegin sees a stable
// value until it calls GetCommit.
type RingBuffer[T any] struct {
	mu     sync.Mutex
	slots  []slot[T]
	nextIn uint64 // Sequence number assigned to the next put.
}

// New returns a RingBuffer with the given capacity.
func New[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &RingBuffer[T]{slots: make([]slot[T], capacity)}
}

// Cap returns the buffer's fixed capacity.
func (r *RingBuffer[T]) Cap() int { return len(r.slots) }

// PutBegin returns the index of a Free slot to write into, evicting the
// oldest Full slot (drop-oldest) if the buffer is exhausted. It never
// evicts a slot that is currently Reading. PutBegin never blocks.
func (r *RingBuffer[T]) PutBegin() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.slots {
		if r.slots[i].state == free {
			r.slots[i].state = writing
			return i
		}
	}

	// No free slot: evict the oldest Full slot. Reading slots are never
	// chosen, so a slot borrowed by a consumer is never invalidated out
	// from under it.
	oldest := -1
	for i := range r.slots {
		if r.slots[i].state != full {
			continue
		}
		if oldest == -1 || r.slots[i].seq < r.slots[oldest].seq {
			oldest = i
		}
	}
	if oldest == -1 {
		// Every slot is Reading; the producer must wait for the caller's
		// next attempt. Since the contract is non-blocking, signal this by
		// returning -1.
		return -1
	}
	r.slots[oldest].state = writing
	return oldest
}

// PutCommit finalizes a write begun with PutBegin. If ok is true the slot
// transitions to Full and is assigned the next sequence number; otherwise
// it is returned to Free.
func (r *RingBuffer[T]) PutCommit(idx int, val T, ts time.Time, ok bool) {
	if idx < 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !ok {
		r.slots[idx].state = free
		return
	}
	r.slots[idx].val = val
	r.slots[idx].ts = ts
	r.slots[idx].seq = r.nextIn
	r.nextIn++
	r.slots[idx].state = full
}

// GetBegin returns the index and timestamp of the lowest-sequence Full
// slot, transitioning it to Reading, or ErrNoImage if none is Full.
// GetBegin never blocks.
func (r *RingBuffer[T]) GetBegin() (idx int, ts time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	best := -1
	for i := range r.slots {
		if r.slots[i].state != full {
			continue
		}
		if best == -1 || r.slots[i].seq < r.slots[best].seq {
			best = i
		}
	}
	if best == -1 {
		return -1, time.Time{}, ErrNoImage
	}
	r.slots[best].state = reading
	return best, r.slots[best].ts, nil
}

// Value returns the value held by a slot currently in Reading, previously
// obtained via GetBegin.
func (r *RingBuffer[T]) Value(idx int) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slots[idx].val
}

// GetCommit releases a slot previously obtained via GetBegin back to Free.
func (r *RingBuffer[T]) GetCommit(idx int) {
	if idx < 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[idx].state = free
}

// Len reports the number of currently Full slots.
func (r *RingBuffer[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i := range r.slots {
		if r.slots[i].state == full {
			n++
		}
	}
	return n
}
