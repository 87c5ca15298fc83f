package binder

import (
	"errors"
	"fmt"
)

// MaxObjects is the fixed capacity of the per-object uniform buffer. The
// buffer never grows; adds past capacity are rejected.
const MaxObjects = 2048

// ErrCapacityExceeded indicates the per-object uniform buffer is full.
var ErrCapacityExceeded = errors.New("object capacity exceeded")

// SlotAllocator hands out dense slot indices for the per-object uniform
// buffer. Object ids are sparse and unbounded, so they cannot address the
// fixed-size buffer directly; every mounted object instead holds a slot in
// [0, capacity) for as long as it is live. Released slots are recycled.
// Not safe for concurrent use.
type SlotAllocator struct {
	capacity int
	next     int
	free     []int
	live     map[int]bool
}

// NewSlotAllocator creates an allocator with the given capacity. A capacity
// of zero or less falls back to MaxObjects.
func NewSlotAllocator(capacity int) *SlotAllocator {
	if capacity <= 0 {
		capacity = MaxObjects
	}
	return &SlotAllocator{
		capacity: capacity,
		live:     make(map[int]bool),
	}
}

// Acquire returns an unused slot index.
//
// Returns:
//   - int: the acquired slot in [0, capacity)
//   - error: ErrCapacityExceeded when every slot is live
func (a *SlotAllocator) Acquire() (int, error) {
	if n := len(a.free); n > 0 {
		slot := a.free[n-1]
		a.free = a.free[:n-1]
		a.live[slot] = true
		return slot, nil
	}
	if a.next >= a.capacity {
		return 0, fmt.Errorf("%w: %d slots in use", ErrCapacityExceeded, a.capacity)
	}
	slot := a.next
	a.next++
	a.live[slot] = true
	return slot, nil
}

// Release returns a slot to the free list. Releasing a slot that is not
// live is a no-op.
func (a *SlotAllocator) Release(slot int) {
	if !a.live[slot] {
		return
	}
	delete(a.live, slot)
	a.free = append(a.free, slot)
}

// Live returns the number of slots currently held.
func (a *SlotAllocator) Live() int {
	return len(a.live)
}

// Capacity returns the total slot capacity.
func (a *SlotAllocator) Capacity() int {
	return a.capacity
}

// Offset converts a slot index to a byte offset into a dynamically-offset
// uniform buffer. Alignment is the device-reported minimum uniform buffer
// offset alignment.
func Offset(slot int, alignment uint64) uint64 {
	return uint64(slot) * alignment
}
