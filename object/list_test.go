package object

import (
	"testing"

	"github.com/avsm/capnwire/errs"
	"github.com/avsm/capnwire/format"
	"github.com/stretchr/testify/require"
)

func TestList_PrimitiveElements(t *testing.T) {
	b := newBuilder(t)
	root, err := RootStructBuilder(b, 0, 4)
	require.NoError(t, err)

	u16s, err := root.ListFieldBuilder(0, format.ElementByte2, 3)
	require.NoError(t, err)
	for i := uint32(0); i < 3; i++ {
		require.NoError(t, u16s.SetUint16At(i, uint16(i*1000)))
	}

	u64s, err := root.ListFieldBuilder(1, format.ElementByte8, 2)
	require.NoError(t, err)
	require.NoError(t, u64s.SetUint64At(0, 1))
	require.NoError(t, u64s.SetFloat64At(1, 2.5))

	ss, err := RootStruct(b.Message())
	require.NoError(t, err)

	rl, err := ss.ListField(0)
	require.NoError(t, err)
	require.Equal(t, uint32(3), rl.Len())
	v, err := rl.Uint16At(2)
	require.NoError(t, err)
	require.Equal(t, uint16(2000), v)

	_, err = rl.Uint16At(3)
	require.ErrorIs(t, err, errs.ErrOutOfBounds)
	_, err = rl.Uint32At(0)
	require.ErrorIs(t, err, errs.ErrElementTypeMismatch)

	rl64, err := ss.ListField(1)
	require.NoError(t, err)
	f, err := rl64.Float64At(1)
	require.NoError(t, err)
	require.Equal(t, 2.5, f)
}

func TestList_BitElements(t *testing.T) {
	b := newBuilder(t)
	root, err := RootStructBuilder(b, 0, 1)
	require.NoError(t, err)

	bits, err := root.ListFieldBuilder(0, format.ElementBit, 10)
	require.NoError(t, err)
	// Ten bits occupy exactly two bytes.
	require.Equal(t, uint32(2), bits.Slice.Len())

	require.NoError(t, bits.SetBitAt(0, true))
	require.NoError(t, bits.SetBitAt(9, true))
	require.NoError(t, bits.SetBitAt(9, false))
	require.NoError(t, bits.SetBitAt(8, true))

	ss, err := RootStruct(b.Message())
	require.NoError(t, err)
	rl, err := ss.ListField(0)
	require.NoError(t, err)

	for i, want := range []bool{true, false, false, false, false, false, false, false, true, false} {
		got, err := rl.BitAt(uint32(i))
		require.NoError(t, err)
		require.Equal(t, want, got, "bit %d", i)
	}
}

func TestList_VoidElements(t *testing.T) {
	b := newBuilder(t)
	root, err := RootStructBuilder(b, 0, 1)
	require.NoError(t, err)

	voids, err := root.ListFieldBuilder(0, format.ElementVoid, 1000)
	require.NoError(t, err)
	require.Equal(t, uint32(1000), voids.Len())
	require.Equal(t, uint32(0), voids.Slice.Len())

	ss, err := RootStruct(b.Message())
	require.NoError(t, err)
	rl, err := ss.ListField(0)
	require.NoError(t, err)
	require.Equal(t, uint32(1000), rl.Len())
}

func TestList_TextElements(t *testing.T) {
	b := newBuilder(t)
	root, err := RootStructBuilder(b, 0, 1)
	require.NoError(t, err)

	names, err := root.ListFieldBuilder(0, format.ElementPointer, 3)
	require.NoError(t, err)
	require.NoError(t, names.SetTextAt(0, "alpha"))
	require.NoError(t, names.SetTextAt(1, "beta"))
	require.NoError(t, names.SetDataAt(2, []byte{9, 8}))

	ss, err := RootStruct(b.Message())
	require.NoError(t, err)
	rl, err := ss.ListField(0)
	require.NoError(t, err)

	a, err := rl.TextAt(0)
	require.NoError(t, err)
	require.Equal(t, "alpha", a)
	bv, err := rl.TextAt(1)
	require.NoError(t, err)
	require.Equal(t, "beta", bv)
	d, err := rl.DataAt(2)
	require.NoError(t, err)
	require.Equal(t, []byte{9, 8}, d)
}

func TestList_PointerElementsDeref(t *testing.T) {
	b := newBuilder(t)
	root, err := RootStructBuilder(b, 0, 1)
	require.NoError(t, err)

	ptrs, err := root.ListFieldBuilder(0, format.ElementPointer, 2)
	require.NoError(t, err)

	slot, err := ptrs.PointerBuilderAt(1)
	require.NoError(t, err)
	child, err := DerefStructPointer(slot, 1, 0)
	require.NoError(t, err)
	require.NoError(t, child.SetUint64Field(0, 0, 0xB0B))

	ss, err := RootStruct(b.Message())
	require.NoError(t, err)
	rl, err := ss.ListField(0)
	require.NoError(t, err)

	// Unset elements stay null.
	s0, err := rl.PointerAt(0)
	require.NoError(t, err)
	rc0, err := ReadStructPointer(s0)
	require.NoError(t, err)
	require.Nil(t, rc0)

	s1, err := rl.PointerAt(1)
	require.NoError(t, err)
	rc1, err := ReadStructPointer(s1)
	require.NoError(t, err)
	require.Equal(t, uint64(0xB0B), rc1.Uint64Field(0, 0))
}
