package object

import (
	"math"

	"github.com/avsm/capnwire/errs"
	"github.com/avsm/capnwire/format"
	"github.com/avsm/capnwire/mesg"
)

// Element accessors for list storage. Each accessor checks the storage
// layout so a corrupt or mistyped pointer cannot alias one element kind as
// another; the offset arithmetic per layout is fixed here and nowhere else.

func (l *ListStorage) checkIndex(element format.ElementType, i uint32) error {
	if l == nil || l.Element != element {
		return errs.ErrElementTypeMismatch
	}
	if i >= l.Count {
		return errs.ErrOutOfBounds
	}

	return nil
}

// BitAt reads element i of a bit list.
func (l *ListStorage) BitAt(i uint32) (bool, error) {
	if err := l.checkIndex(format.ElementBit, i); err != nil {
		return false, err
	}
	b, err := l.Slice.Uint8(i / 8)
	if err != nil {
		return false, err
	}

	return b>>(i%8)&1 == 1, nil
}

func (l *ListStorage) Uint8At(i uint32) (uint8, error) {
	if err := l.checkIndex(format.ElementByte1, i); err != nil {
		return 0, err
	}

	return l.Slice.Uint8(i)
}

func (l *ListStorage) Uint16At(i uint32) (uint16, error) {
	if err := l.checkIndex(format.ElementByte2, i); err != nil {
		return 0, err
	}

	return l.Slice.Uint16(i * 2)
}

func (l *ListStorage) Uint32At(i uint32) (uint32, error) {
	if err := l.checkIndex(format.ElementByte4, i); err != nil {
		return 0, err
	}

	return l.Slice.Uint32(i * 4)
}

func (l *ListStorage) Uint64At(i uint32) (uint64, error) {
	if err := l.checkIndex(format.ElementByte8, i); err != nil {
		return 0, err
	}

	return l.Slice.Uint64(i * 8)
}

func (l *ListStorage) Int8At(i uint32) (int8, error) {
	v, err := l.Uint8At(i)
	return int8(v), err
}

func (l *ListStorage) Int16At(i uint32) (int16, error) {
	v, err := l.Uint16At(i)
	return int16(v), err
}

func (l *ListStorage) Int32At(i uint32) (int32, error) {
	v, err := l.Uint32At(i)
	return int32(v), err
}

func (l *ListStorage) Int64At(i uint32) (int64, error) {
	v, err := l.Uint64At(i)
	return int64(v), err
}

func (l *ListStorage) Float32At(i uint32) (float32, error) {
	v, err := l.Uint32At(i)
	return math.Float32frombits(v), err
}

func (l *ListStorage) Float64At(i uint32) (float64, error) {
	v, err := l.Uint64At(i)
	return math.Float64frombits(v), err
}

// PointerAt returns the 8-byte slice of element i in a pointer list.
func (l *ListStorage) PointerAt(i uint32) (mesg.Slice, error) {
	if err := l.checkIndex(format.ElementPointer, i); err != nil {
		return mesg.Slice{}, err
	}

	return l.Slice.Sub(i*mesg.WordSize, mesg.WordSize)
}

// StructAt returns the storage of element i in a composite list.
func (l *ListStorage) StructAt(i uint32) (*StructStorage, error) {
	if err := l.checkIndex(format.ElementComposite, i); err != nil {
		return nil, err
	}
	elem := mesg.WordSize + i*l.elemWords()*mesg.WordSize
	dataBytes := uint32(l.DataWords) * mesg.WordSize
	data, err := l.Slice.Sub(elem, dataBytes)
	if err != nil {
		return nil, err
	}
	ptrs, err := l.Slice.Sub(elem+dataBytes, uint32(l.PointerWords)*mesg.WordSize)
	if err != nil {
		return nil, err
	}

	return &StructStorage{Data: data, Pointers: ptrs}, nil
}

// TextAt dereferences element i of a pointer list as text.
func (l *ListStorage) TextAt(i uint32) (string, error) {
	ps, err := l.PointerAt(i)
	if err != nil {
		return "", err
	}
	ls, err := ReadListPointer(ps)
	if err != nil {
		return "", err
	}
	if ls == nil {
		return "", nil
	}

	return textFromList(ls)
}

// DataAt dereferences element i of a pointer list as a byte blob.
func (l *ListStorage) DataAt(i uint32) ([]byte, error) {
	ps, err := l.PointerAt(i)
	if err != nil {
		return nil, err
	}
	ls, err := ReadListPointer(ps)
	if err != nil {
		return nil, err
	}
	if ls == nil {
		return nil, nil
	}

	return dataFromList(ls)
}

// Builder-side element accessors.

func (l MutListStorage) ro() *ListStorage {
	v := l.ReadOnly()
	return &v
}

func (l MutListStorage) SetBitAt(i uint32, v bool) error {
	if err := l.ro().checkIndex(format.ElementBit, i); err != nil {
		return err
	}
	b, err := l.Slice.Uint8(i / 8)
	if err != nil {
		return err
	}
	mask := uint8(1) << (i % 8)
	if v {
		b |= mask
	} else {
		b &^= mask
	}

	return l.Slice.SetUint8(i/8, b)
}

func (l MutListStorage) SetUint8At(i uint32, v uint8) error {
	if err := l.ro().checkIndex(format.ElementByte1, i); err != nil {
		return err
	}

	return l.Slice.SetUint8(i, v)
}

func (l MutListStorage) SetUint16At(i uint32, v uint16) error {
	if err := l.ro().checkIndex(format.ElementByte2, i); err != nil {
		return err
	}

	return l.Slice.SetUint16(i*2, v)
}

func (l MutListStorage) SetUint32At(i uint32, v uint32) error {
	if err := l.ro().checkIndex(format.ElementByte4, i); err != nil {
		return err
	}

	return l.Slice.SetUint32(i*4, v)
}

func (l MutListStorage) SetUint64At(i uint32, v uint64) error {
	if err := l.ro().checkIndex(format.ElementByte8, i); err != nil {
		return err
	}

	return l.Slice.SetUint64(i*8, v)
}

func (l MutListStorage) SetInt8At(i uint32, v int8) error {
	return l.SetUint8At(i, uint8(v))
}

func (l MutListStorage) SetInt16At(i uint32, v int16) error {
	return l.SetUint16At(i, uint16(v))
}

func (l MutListStorage) SetInt32At(i uint32, v int32) error {
	return l.SetUint32At(i, uint32(v))
}

func (l MutListStorage) SetInt64At(i uint32, v int64) error {
	return l.SetUint64At(i, uint64(v))
}

func (l MutListStorage) SetFloat32At(i uint32, v float32) error {
	return l.SetUint32At(i, math.Float32bits(v))
}

func (l MutListStorage) SetFloat64At(i uint32, v float64) error {
	return l.SetUint64At(i, math.Float64bits(v))
}

// PointerBuilderAt returns the writable pointer slot of element i in a
// pointer list.
func (l MutListStorage) PointerBuilderAt(i uint32) (mesg.MutSlice, error) {
	if err := l.ro().checkIndex(format.ElementPointer, i); err != nil {
		return mesg.MutSlice{}, err
	}

	return l.Slice.Sub(i*mesg.WordSize, mesg.WordSize)
}

// StructBuilderAt returns the writable storage of element i in a composite
// list.
func (l MutListStorage) StructBuilderAt(i uint32) (MutStructStorage, error) {
	if err := l.ro().checkIndex(format.ElementComposite, i); err != nil {
		return MutStructStorage{}, err
	}
	elem := mesg.WordSize + i*(uint32(l.DataWords)+uint32(l.PointerWords))*mesg.WordSize
	dataBytes := uint32(l.DataWords) * mesg.WordSize
	data, err := l.Slice.Sub(elem, dataBytes)
	if err != nil {
		return MutStructStorage{}, err
	}
	ptrs, err := l.Slice.Sub(elem+dataBytes, uint32(l.PointerWords)*mesg.WordSize)
	if err != nil {
		return MutStructStorage{}, err
	}

	return MutStructStorage{Data: data, Pointers: ptrs}, nil
}

// SetTextAt allocates a fresh byte list holding v plus its NUL terminator
// within the containing message and installs the list pointer in element
// slot i of a pointer list.
func (l MutListStorage) SetTextAt(i uint32, v string) error {
	ps, err := l.PointerBuilderAt(i)
	if err != nil {
		return err
	}
	ls, err := allocText(ps.Builder(), v)
	if err != nil {
		return err
	}

	return InitListPointer(ps, ls.ReadOnly())
}

// SetDataAt allocates a fresh byte list holding v within the containing
// message and installs the list pointer in element slot i of a pointer list.
func (l MutListStorage) SetDataAt(i uint32, v []byte) error {
	ps, err := l.PointerBuilderAt(i)
	if err != nil {
		return err
	}
	ls, err := allocData(ps.Builder(), v)
	if err != nil {
		return err
	}

	return InitListPointer(ps, ls.ReadOnly())
}

// TextAt and DataAt mirror the reader accessors for code holding a builder.

func (l MutListStorage) TextAt(i uint32) (string, error) {
	return l.ro().TextAt(i)
}

func (l MutListStorage) DataAt(i uint32) ([]byte, error) {
	return l.ro().DataAt(i)
}
