package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer_WriteAndReset(t *testing.T) {
	bb := NewByteBuffer(16)
	bb.MustWrite([]byte{1, 2, 3})
	bb.MustWriteByte(4)
	require.Equal(t, []byte{1, 2, 3, 4}, bb.Bytes())
	require.Equal(t, 4, bb.Len())

	cp := bb.CopyBytes()
	bb.Reset()
	require.Zero(t, bb.Len())
	require.Equal(t, []byte{1, 2, 3, 4}, cp)
}

func TestByteBuffer_Grow(t *testing.T) {
	bb := NewByteBuffer(4)
	bb.MustWrite([]byte{1, 2})
	bb.Grow(100)
	require.GreaterOrEqual(t, bb.Cap()-bb.Len(), 100)
	require.Equal(t, []byte{1, 2}, bb.Bytes())
}

func TestCodecBufferPool_Reuse(t *testing.T) {
	buf := GetCodecBuffer()
	buf.MustWrite([]byte{9, 9, 9})
	PutCodecBuffer(buf)

	again := GetCodecBuffer()
	require.Zero(t, again.Len())
	PutCodecBuffer(again)
}

func TestCodecBufferPool_DiscardsOversized(t *testing.T) {
	buf := NewByteBuffer(CodecBufferMaxThreshold * 2)
	// Must not panic; the buffer is simply dropped.
	PutCodecBuffer(buf)
	PutCodecBuffer(nil)
}
