package object

import (
	"testing"

	"github.com/avsm/capnwire/endian"
	"github.com/avsm/capnwire/errs"
	"github.com/avsm/capnwire/format"
	"github.com/avsm/capnwire/mesg"
	"github.com/avsm/capnwire/pointer"
	"github.com/stretchr/testify/require"
)

var engine = endian.Little()

// words builds a segment from 64-bit words in wire order.
func words(ws ...uint64) []byte {
	b := make([]byte, 0, len(ws)*8)
	for _, w := range ws {
		b = engine.AppendUint64(b, w)
	}

	return b
}

func message(t *testing.T, segments ...[]byte) *mesg.Message {
	t.Helper()
	m, err := mesg.NewMessage(segments)
	require.NoError(t, err)

	return m
}

func TestReadStructPointer_Direct(t *testing.T) {
	// Root points at a one-word struct holding x=42, y=-7 as two int32s.
	m := message(t, words(
		pointer.Struct(0, 1, 0).Encode(),
		0xFFFFFFF9_0000002A,
	))

	ss, err := RootStruct(m)
	require.NoError(t, err)
	require.NotNil(t, ss)
	require.Equal(t, uint16(1), ss.DataWords())
	require.Equal(t, uint16(0), ss.PointerWords())
	require.Equal(t, int32(42), ss.Int32Field(0, 0))
	require.Equal(t, int32(-7), ss.Int32Field(4, 0))
}

func TestReadStructPointer_NullRoot(t *testing.T) {
	m := message(t, words(0))

	ss, err := RootStruct(m)
	require.NoError(t, err)
	require.Nil(t, ss)

	// A nil struct reads as all defaults.
	require.Equal(t, int32(11), ss.Int32Field(0, 11))
}

func TestReadStructPointer_ListRejected(t *testing.T) {
	m := message(t, words(
		pointer.List(0, format.ElementByte1, 3).Encode(),
		0,
	))

	_, err := RootStruct(m)
	require.ErrorIs(t, err, errs.ErrPointerTypeMismatch)
}

func TestReadStructPointer_OutOfBounds(t *testing.T) {
	// Struct body would live past the end of the segment.
	m := message(t, words(pointer.Struct(4, 2, 0).Encode()))

	_, err := RootStruct(m)
	require.ErrorIs(t, err, errs.ErrOutOfBounds)
}

func TestReadStructPointer_FarSingleLanding(t *testing.T) {
	// Root is a far pointer to a landing pad in segment 1; the pad holds a
	// near struct pointer to the word after it.
	m := message(t,
		words(pointer.Far(1, 0, false).Encode()),
		words(
			pointer.Struct(0, 1, 0).Encode(),
			7,
		),
	)

	ss, err := RootStruct(m)
	require.NoError(t, err)
	require.Equal(t, uint16(1), ss.DataWords())
	require.Equal(t, uint64(7), ss.Uint64Field(0, 0))
}

func TestReadStructPointer_FarDoubleLanding(t *testing.T) {
	// Content sits alone in segment 1; segment 2 holds the two-word pad:
	// a far pointer addressing the content absolutely, then the shape tag
	// whose offset field is ignored.
	m := message(t,
		words(pointer.Far(2, 0, true).Encode()),
		words(9),
		words(
			pointer.Far(1, 0, false).Encode(),
			pointer.Struct(0, 1, 0).Encode(),
		),
	)

	ss, err := RootStruct(m)
	require.NoError(t, err)
	require.Equal(t, uint16(1), ss.DataWords())
	require.Equal(t, uint64(9), ss.Uint64Field(0, 0))
}

func TestReadStructPointer_FarChainOfTwoHops(t *testing.T) {
	// far -> far -> near resolves; the pad in segment 1 redirects once more.
	m := message(t,
		words(pointer.Far(1, 0, false).Encode()),
		words(pointer.Far(2, 0, false).Encode()),
		words(
			pointer.Struct(0, 1, 0).Encode(),
			13,
		),
	)

	ss, err := RootStruct(m)
	require.NoError(t, err)
	require.Equal(t, uint64(13), ss.Uint64Field(0, 0))
}

func TestReadStructPointer_FarChainTooDeep(t *testing.T) {
	m := message(t,
		words(pointer.Far(1, 0, false).Encode()),
		words(pointer.Far(2, 0, false).Encode()),
		words(pointer.Far(1, 0, false).Encode()),
	)

	_, err := RootStruct(m)
	require.ErrorIs(t, err, errs.ErrFarPointerDepth)
}

func TestReadStructPointer_FarBadSegment(t *testing.T) {
	m := message(t, words(pointer.Far(7, 0, false).Encode()))

	_, err := RootStruct(m)
	require.ErrorIs(t, err, errs.ErrSegmentOutOfRange)
}

func TestReadStructPointer_DoubleLandingBadPad(t *testing.T) {
	// The first pad word of a double landing must be a single far pointer.
	m := message(t,
		words(pointer.Far(1, 0, true).Encode()),
		words(
			pointer.Struct(0, 1, 0).Encode(),
			pointer.Struct(0, 1, 0).Encode(),
			0,
		),
	)

	_, err := RootStruct(m)
	require.ErrorIs(t, err, errs.ErrInvalidPointerType)
}

func TestReadListPointer_ByteList(t *testing.T) {
	m := message(t, words(
		pointer.List(0, format.ElementByte1, 3).Encode(),
		0x0000000000006968, // "hi\0"
	))

	ls, err := ReadListPointer(m.RootPointer())
	require.NoError(t, err)
	require.Equal(t, format.ElementByte1, ls.Element)
	require.Equal(t, uint32(3), ls.Count)
	require.Equal(t, uint32(3), ls.Slice.Len())

	v, err := ls.Uint8At(0)
	require.NoError(t, err)
	require.Equal(t, uint8('h'), v)
}

func TestReadListPointer_BitList(t *testing.T) {
	// Five bits occupy exactly one byte: 0b10110.
	m := message(t, words(
		pointer.List(0, format.ElementBit, 5).Encode(),
		0x16,
	))

	ls, err := ReadListPointer(m.RootPointer())
	require.NoError(t, err)
	require.Equal(t, uint32(1), ls.Slice.Len())

	want := []bool{false, true, true, false, true}
	for i, expect := range want {
		got, err := ls.BitAt(uint32(i))
		require.NoError(t, err)
		require.Equal(t, expect, got, "bit %d", i)
	}

	_, err = ls.BitAt(5)
	require.ErrorIs(t, err, errs.ErrOutOfBounds)
}

func TestReadListPointer_Composite(t *testing.T) {
	// Three structs of one data word and one pointer word each. The list
	// pointer's count field carries the payload word count (6); the tag
	// word's offset field carries the element count (3).
	m := message(t, words(
		pointer.List(0, format.ElementComposite, 6).Encode(),
		pointer.Struct(3, 1, 1).Encode(),
		1, 0, // element 0: data, pointer
		2, 0, // element 1
		3, 0, // element 2
	))

	ls, err := ReadListPointer(m.RootPointer())
	require.NoError(t, err)
	require.Equal(t, uint32(3), ls.Count)
	require.Equal(t, uint16(1), ls.DataWords)
	require.Equal(t, uint16(1), ls.PointerWords)

	// Element 1's data word lives at payload offset 8 + 1*16 = 24.
	elem, err := ls.StructAt(1)
	require.NoError(t, err)
	require.Equal(t, uint32(24), elem.Data.Start()-ls.Slice.Start())
	require.Equal(t, uint64(2), elem.Uint64Field(0, 0))

	child, err := elem.StructField(0)
	require.NoError(t, err)
	require.Nil(t, child)
}

func TestReadListPointer_CompositeEmpty(t *testing.T) {
	// An empty composite list still carries its tag word.
	m := message(t, words(
		pointer.List(0, format.ElementComposite, 0).Encode(),
		pointer.Struct(0, 1, 1).Encode(),
	))

	ls, err := ReadListPointer(m.RootPointer())
	require.NoError(t, err)
	require.Equal(t, uint32(0), ls.Count)
	require.Equal(t, uint32(8), ls.Slice.Len())
}

func TestReadListPointer_CompositeTagMismatch(t *testing.T) {
	// Tag claims 4 elements of 2 words each in a 6-word payload.
	m := message(t, words(
		pointer.List(0, format.ElementComposite, 6).Encode(),
		pointer.Struct(4, 1, 1).Encode(),
		0, 0, 0, 0, 0, 0,
	))

	_, err := ReadListPointer(m.RootPointer())
	require.ErrorIs(t, err, errs.ErrCompositeTagMismatch)
}

func TestReadListPointer_CountPastSegment(t *testing.T) {
	m := message(t, words(
		pointer.List(0, format.ElementByte8, 100).Encode(),
		0,
	))

	_, err := ReadListPointer(m.RootPointer())
	require.ErrorIs(t, err, errs.ErrOutOfBounds)
}

func TestReadListPointer_StructRejected(t *testing.T) {
	m := message(t, words(
		pointer.Struct(0, 1, 0).Encode(),
		0,
	))

	_, err := ReadListPointer(m.RootPointer())
	require.ErrorIs(t, err, errs.ErrPointerTypeMismatch)
}

func TestFarPointer_Transparency(t *testing.T) {
	direct := message(t, words(
		pointer.Struct(0, 1, 0).Encode(),
		0xFFFFFFF9_0000002A,
	))
	far := message(t,
		words(pointer.Far(1, 0, false).Encode()),
		words(
			pointer.Struct(0, 1, 0).Encode(),
			0xFFFFFFF9_0000002A,
		),
	)

	ds, err := RootStruct(direct)
	require.NoError(t, err)
	fs, err := RootStruct(far)
	require.NoError(t, err)

	require.Equal(t, ds.Data.Len(), fs.Data.Len())
	require.Equal(t, ds.Pointers.Len(), fs.Pointers.Len())
	require.Equal(t, ds.Int32Field(0, 0), fs.Int32Field(0, 0))
	require.Equal(t, ds.Int32Field(4, 0), fs.Int32Field(4, 0))
}
