package pool

import (
	"sync"
)

// Default sizes for pooled buffers. Packing output is usually smaller than
// its input, and framed messages of a few segments fit comfortably in the
// default; buffers that grew past the threshold are dropped instead of
// returned to the pool.
const (
	CodecBufferDefaultSize  = 1024 * 8   // 8KiB
	CodecBufferMaxThreshold = 1024 * 256 // 256KiB
)

// ByteBuffer is a reusable byte slice wrapper handed out by the pool.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Grow ensures the buffer has room for n more bytes without reallocation.
func (bb *ByteBuffer) Grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}
	grown := make([]byte, len(bb.B), len(bb.B)+n)
	copy(grown, bb.B)
	bb.B = grown
}

// MustWrite appends data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// MustWriteByte appends a single byte to the buffer.
func (bb *ByteBuffer) MustWriteByte(c byte) {
	bb.B = append(bb.B, c)
}

// CopyBytes returns a freshly allocated copy of the buffer contents.
func (bb *ByteBuffer) CopyBytes() []byte {
	out := make([]byte, len(bb.B))
	copy(out, bb.B)

	return out
}

var codecBufferPool = sync.Pool{
	New: func() any {
		return NewByteBuffer(CodecBufferDefaultSize)
	},
}

// GetCodecBuffer retrieves a cleared ByteBuffer from the pool.
func GetCodecBuffer() *ByteBuffer {
	buf, _ := codecBufferPool.Get().(*ByteBuffer)
	buf.Reset()

	return buf
}

// PutCodecBuffer returns a ByteBuffer to the pool.
//
// Buffers that grew beyond CodecBufferMaxThreshold are discarded so a single
// oversized message does not pin memory for the lifetime of the pool.
func PutCodecBuffer(buf *ByteBuffer) {
	if buf == nil || buf.Cap() > CodecBufferMaxThreshold {
		return
	}
	codecBufferPool.Put(buf)
}
