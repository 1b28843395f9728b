package capnwire

import (
	"testing"

	"github.com/avsm/capnwire/format"
	"github.com/avsm/capnwire/mesg"
	"github.com/stretchr/testify/require"
)

func TestPointStruct_RoundTrip(t *testing.T) {
	b, root, err := NewRoot(1, 0)
	require.NoError(t, err)
	require.NoError(t, root.SetInt32Field(0, 0, 42))
	require.NoError(t, root.SetInt32Field(4, 0, -7))

	framed, err := Marshal(b.Message())
	require.NoError(t, err)
	require.Equal(t, []byte{
		0, 0, 0, 0, // segment count - 1
		2, 0, 0, 0, // two words
		0, 0, 0, 0, 1, 0, 0, 0, // root: struct pointer, 1 data word
		42, 0, 0, 0, 0xF9, 0xFF, 0xFF, 0xFF,
	}, framed)

	back, err := Unmarshal(framed)
	require.NoError(t, err)
	ss, err := ReadRoot(back)
	require.NoError(t, err)
	require.Equal(t, int32(42), ss.Int32Field(0, 0))
	require.Equal(t, int32(-7), ss.Int32Field(4, 0))
}

func TestTextAndListFields_EndToEnd(t *testing.T) {
	b, root, err := NewRoot(1, 2)
	require.NoError(t, err)
	require.NoError(t, root.SetUint64Field(0, 0, 12345))
	require.NoError(t, root.SetTextField(0, "hello capn"))

	tags, err := root.ListFieldBuilder(1, format.ElementPointer, 2)
	require.NoError(t, err)
	require.NoError(t, tags.SetTextAt(0, "a"))
	require.NoError(t, tags.SetTextAt(1, "bb"))

	framed, err := MarshalPacked(b.Message())
	require.NoError(t, err)

	back, err := UnmarshalPacked(framed)
	require.NoError(t, err)
	ss, err := ReadRoot(back)
	require.NoError(t, err)
	require.Equal(t, uint64(12345), ss.Uint64Field(0, 0))

	text, err := ss.TextField(0, "")
	require.NoError(t, err)
	require.Equal(t, "hello capn", text)

	ls, err := ss.ListField(1)
	require.NoError(t, err)
	v, err := ls.TextAt(1)
	require.NoError(t, err)
	require.Equal(t, "bb", v)
}

func TestFarPointer_EndToEnd(t *testing.T) {
	// A 16-byte first segment cannot hold a 100-byte struct; the runtime
	// spills to a new segment and the root becomes a far pointer.
	b, root, err := NewRoot(13, 0, mesg.WithFirstSegmentWords(2))
	require.NoError(t, err)
	require.NoError(t, root.SetUint64Field(0, 0, 0x1111))
	require.NoError(t, root.SetUint64Field(96, 0, 0x2222))
	require.Greater(t, b.NumSegments(), uint32(1))

	framed, err := Marshal(b.Message())
	require.NoError(t, err)
	back, err := Unmarshal(framed)
	require.NoError(t, err)
	require.Greater(t, back.NumSegments(), uint32(1))

	ss, err := ReadRoot(back)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1111), ss.Uint64Field(0, 0))
	require.Equal(t, uint64(0x2222), ss.Uint64Field(96, 0))
}

func TestPackedRoundTrip_ByteIdentical(t *testing.T) {
	b, root, err := NewRoot(2, 1)
	require.NoError(t, err)
	require.NoError(t, root.SetUint64Field(8, 0, 0xABCDEF))
	require.NoError(t, root.SetTextField(0, "packme"))

	framed, err := Marshal(b.Message())
	require.NoError(t, err)
	packed, err := MarshalPacked(b.Message())
	require.NoError(t, err)

	back, err := UnmarshalPacked(packed)
	require.NoError(t, err)
	reframed, err := Marshal(back)
	require.NoError(t, err)
	require.Equal(t, framed, reframed)
}

func TestCompressedRoundTrip(t *testing.T) {
	b, root, err := NewRoot(1, 0)
	require.NoError(t, err)
	require.NoError(t, root.SetUint64Field(0, 0, 7))

	wrapped, err := MarshalCompressed(b.Message(), format.CompressionS2)
	require.NoError(t, err)
	back, err := UnmarshalCompressed(wrapped)
	require.NoError(t, err)

	ss, err := ReadRoot(back)
	require.NoError(t, err)
	require.Equal(t, uint64(7), ss.Uint64Field(0, 0))
}

func TestFingerprint(t *testing.T) {
	b1, r1, err := NewRoot(1, 0)
	require.NoError(t, err)
	require.NoError(t, r1.SetUint64Field(0, 0, 1))

	b2, r2, err := NewRoot(1, 0)
	require.NoError(t, err)
	require.NoError(t, r2.SetUint64Field(0, 0, 1))

	f1, err := Fingerprint(b1.Message())
	require.NoError(t, err)
	f2, err := Fingerprint(b2.Message())
	require.NoError(t, err)
	require.Equal(t, f1, f2)

	require.NoError(t, r2.SetUint64Field(0, 0, 2))
	f3, err := Fingerprint(b2.Message())
	require.NoError(t, err)
	require.NotEqual(t, f1, f3)
}

func TestNullRoot_ReadsDefaults(t *testing.T) {
	b, err := mesg.NewBuilder()
	require.NoError(t, err)

	ss, err := ReadRoot(b.Message())
	require.NoError(t, err)
	require.Nil(t, ss)
	require.Equal(t, uint32(9), ss.Uint32Field(0, 9))
	text, err := ss.TextField(0, "none")
	require.NoError(t, err)
	require.Equal(t, "none", text)
}
