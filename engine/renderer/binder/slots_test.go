package binder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireDistinctSlots(t *testing.T) {
	a := NewSlotAllocator(8)
	seen := make(map[int]bool)
	for i := 0; i < 8; i++ {
		slot, err := a.Acquire()
		require.NoError(t, err)
		assert.False(t, seen[slot], "slot %d handed out twice", slot)
		seen[slot] = true
	}
	assert.Equal(t, 8, a.Live())
}

func TestAcquirePastCapacity(t *testing.T) {
	a := NewSlotAllocator(2)
	_, err := a.Acquire()
	require.NoError(t, err)
	_, err = a.Acquire()
	require.NoError(t, err)

	_, err = a.Acquire()
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestReleaseRecyclesSlot(t *testing.T) {
	a := NewSlotAllocator(2)
	s0, _ := a.Acquire()
	s1, _ := a.Acquire()

	a.Release(s0)
	assert.Equal(t, 1, a.Live())

	s2, err := a.Acquire()
	require.NoError(t, err)
	assert.Equal(t, s0, s2, "released slot should be recycled")
	assert.NotEqual(t, s1, s2)
}

func TestReleaseUnheldSlotIsNoOp(t *testing.T) {
	a := NewSlotAllocator(2)
	s0, _ := a.Acquire()

	a.Release(99)
	a.Release(s0)
	a.Release(s0)
	assert.Equal(t, 0, a.Live())

	// Double release must not let one slot be acquired twice.
	s1, _ := a.Acquire()
	s2, err := a.Acquire()
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}

func TestOffsetBijection(t *testing.T) {
	const alignment = 256
	a := NewSlotAllocator(64)

	offsets := make(map[uint64]bool)
	for i := 0; i < 64; i++ {
		slot, err := a.Acquire()
		require.NoError(t, err)
		off := Offset(slot, alignment)
		assert.Zero(t, off%alignment, "offset %d not aligned", off)
		assert.False(t, offsets[off], "offset %d occurs twice", off)
		offsets[off] = true
	}
}

func TestDefaultCapacity(t *testing.T) {
	a := NewSlotAllocator(0)
	assert.Equal(t, MaxObjects, a.Capacity())
}

func TestGPUObjectUniformMarshal(t *testing.T) {
	u := GPUObjectUniform{}
	for i := range u.Model {
		u.Model[i] = float32(i)
	}
	u.Color = [4]float32{0.1, 0.2, 0.3, 1}

	buf := u.Marshal()
	require.Len(t, buf, GPUObjectUniformSize)

	// Model occupies the first 64 bytes, color the last 16.
	assert.NotEqual(t, buf[:64], make([]byte, 64))
	assert.NotEqual(t, buf[64:], make([]byte, 16))
}
