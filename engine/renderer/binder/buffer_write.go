package binder

// BufferTarget selects which shared uniform buffer a BufferWrite lands in.
type BufferTarget int

const (
	// TargetCamera is the single-slot camera uniform buffer.
	TargetCamera BufferTarget = iota

	// TargetObjectArray is the per-object uniform array addressed by
	// dynamic offsets.
	TargetObjectArray
)

// BufferWrite describes a single GPU buffer write targeting one of the
// shared uniform buffers at a given byte offset. Writes are staged CPU-side
// and flushed in one batch per frame.
type BufferWrite struct {
	Target BufferTarget
	Offset uint64
	Data   []byte
}
