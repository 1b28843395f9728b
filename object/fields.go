package object

import (
	"math"

	"github.com/avsm/capnwire/errs"
	"github.com/avsm/capnwire/format"
	"github.com/avsm/capnwire/mesg"
)

// Scalar field accessors, keyed by (byte offset, default value).
//
// Stored values are XORed with the schema default, so zero-initialized
// storage reads back as the default without any per-field initialization.
// Reads past the physical end of the data region happen when an older
// encoder wrote fewer data words than the current schema expects; they also
// yield the default. All getters tolerate a nil receiver (an absent struct
// reads as all defaults).

func (s *StructStorage) Uint8Field(off uint32, def uint8) uint8 {
	if s == nil || uint64(off)+1 > uint64(s.Data.Len()) {
		return def
	}
	v, err := s.Data.Uint8(off)
	if err != nil {
		return def
	}

	return v ^ def
}

func (s *StructStorage) Uint16Field(off uint32, def uint16) uint16 {
	if s == nil || uint64(off)+2 > uint64(s.Data.Len()) {
		return def
	}
	v, err := s.Data.Uint16(off)
	if err != nil {
		return def
	}

	return v ^ def
}

func (s *StructStorage) Uint32Field(off uint32, def uint32) uint32 {
	if s == nil || uint64(off)+4 > uint64(s.Data.Len()) {
		return def
	}
	v, err := s.Data.Uint32(off)
	if err != nil {
		return def
	}

	return v ^ def
}

func (s *StructStorage) Uint64Field(off uint32, def uint64) uint64 {
	if s == nil || uint64(off)+8 > uint64(s.Data.Len()) {
		return def
	}
	v, err := s.Data.Uint64(off)
	if err != nil {
		return def
	}

	return v ^ def
}

func (s *StructStorage) Int8Field(off uint32, def int8) int8 {
	return int8(s.Uint8Field(off, uint8(def)))
}

func (s *StructStorage) Int16Field(off uint32, def int16) int16 {
	return int16(s.Uint16Field(off, uint16(def)))
}

func (s *StructStorage) Int32Field(off uint32, def int32) int32 {
	return int32(s.Uint32Field(off, uint32(def)))
}

func (s *StructStorage) Int64Field(off uint32, def int64) int64 {
	return int64(s.Uint64Field(off, uint64(def)))
}

// Float fields XOR the IEEE bit patterns, not the numeric values.

func (s *StructStorage) Float32Field(off uint32, def float32) float32 {
	return math.Float32frombits(s.Uint32Field(off, math.Float32bits(def)))
}

func (s *StructStorage) Float64Field(off uint32, def float64) float64 {
	return math.Float64frombits(s.Uint64Field(off, math.Float64bits(def)))
}

// BoolField reads the bit at byteOff*8+bit, XORed with the default.
func (s *StructStorage) BoolField(byteOff uint32, bit uint8, def bool) bool {
	if s == nil || byteOff >= s.Data.Len() {
		return def
	}
	b, err := s.Data.Uint8(byteOff)
	if err != nil {
		return def
	}

	return (b>>(bit&7)&1 == 1) != def
}

// Scalar setters. The builder dereference allocates data regions at the
// schema's expected size, so an out-of-range offset here is a caller bug
// surfaced as an error rather than silently dropped.

func (s MutStructStorage) SetUint8Field(off uint32, def, v uint8) error {
	return s.Data.SetUint8(off, v^def)
}

func (s MutStructStorage) SetUint16Field(off uint32, def, v uint16) error {
	return s.Data.SetUint16(off, v^def)
}

func (s MutStructStorage) SetUint32Field(off uint32, def, v uint32) error {
	return s.Data.SetUint32(off, v^def)
}

func (s MutStructStorage) SetUint64Field(off uint32, def, v uint64) error {
	return s.Data.SetUint64(off, v^def)
}

func (s MutStructStorage) SetInt8Field(off uint32, def, v int8) error {
	return s.SetUint8Field(off, uint8(def), uint8(v))
}

func (s MutStructStorage) SetInt16Field(off uint32, def, v int16) error {
	return s.SetUint16Field(off, uint16(def), uint16(v))
}

func (s MutStructStorage) SetInt32Field(off uint32, def, v int32) error {
	return s.SetUint32Field(off, uint32(def), uint32(v))
}

func (s MutStructStorage) SetInt64Field(off uint32, def, v int64) error {
	return s.SetUint64Field(off, uint64(def), uint64(v))
}

func (s MutStructStorage) SetFloat32Field(off uint32, def, v float32) error {
	return s.SetUint32Field(off, math.Float32bits(def), math.Float32bits(v))
}

func (s MutStructStorage) SetFloat64Field(off uint32, def, v float64) error {
	return s.SetUint64Field(off, math.Float64bits(def), math.Float64bits(v))
}

func (s MutStructStorage) SetBoolField(byteOff uint32, bit uint8, def, v bool) error {
	b, err := s.Data.Uint8(byteOff)
	if err != nil {
		return err
	}
	mask := uint8(1) << (bit & 7)
	if v != def {
		b |= mask
	} else {
		b &^= mask
	}

	return s.Data.SetUint8(byteOff, b)
}

// Pointer field accessors, keyed by word index.

// StructField resolves pointer field word as a struct. An absent field
// (null pointer, or a physically shorter struct) is nil.
func (s *StructStorage) StructField(word uint16) (*StructStorage, error) {
	ps, ok := s.pointerSlice(word)
	if !ok {
		return nil, nil
	}

	return ReadStructPointer(ps)
}

// ListField resolves pointer field word as a list. An absent field is nil.
func (s *StructStorage) ListField(word uint16) (*ListStorage, error) {
	ps, ok := s.pointerSlice(word)
	if !ok {
		return nil, nil
	}

	return ReadListPointer(ps)
}

// TextField reads a text field, returning def when the field is absent.
//
// Text is stored as a byte list whose final byte is a NUL terminator not
// counted in the semantic length. The result is a fresh string, never a
// view into message storage.
func (s *StructStorage) TextField(word uint16, def string) (string, error) {
	ps, ok := s.pointerSlice(word)
	if !ok {
		return def, nil
	}
	ls, err := ReadListPointer(ps)
	if err != nil {
		return "", err
	}
	if ls == nil {
		return def, nil
	}

	return textFromList(ls)
}

// DataField reads a data (blob) field, returning def when the field is
// absent. The result is a fresh copy of the bytes.
func (s *StructStorage) DataField(word uint16, def []byte) ([]byte, error) {
	ps, ok := s.pointerSlice(word)
	if !ok {
		return def, nil
	}
	ls, err := ReadListPointer(ps)
	if err != nil {
		return nil, err
	}
	if ls == nil {
		return def, nil
	}

	return dataFromList(ls)
}

func textFromList(ls *ListStorage) (string, error) {
	if ls.Element != format.ElementByte1 {
		return "", errs.ErrElementTypeMismatch
	}
	if ls.Count == 0 {
		return "", nil
	}
	b, err := ls.Slice.Bytes()
	if err != nil {
		return "", err
	}
	if b[len(b)-1] != 0 {
		return "", errs.InvalidMessagef("text missing NUL terminator")
	}

	return string(b[:len(b)-1]), nil
}

func dataFromList(ls *ListStorage) ([]byte, error) {
	if ls.Element != format.ElementByte1 {
		return nil, errs.ErrElementTypeMismatch
	}
	b, err := ls.Slice.Bytes()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)

	return out, nil
}

// Builder-side pointer field accessors.

func (s MutStructStorage) pointerSlot(word uint16) (mesg.MutSlice, error) {
	return s.Pointers.Sub(uint32(word)*mesg.WordSize, mesg.WordSize)
}

// StructFieldBuilder dereferences pointer field word as a struct of the
// expected shape, allocating or upgrading as needed.
func (s MutStructStorage) StructFieldBuilder(word uint16, dataWords, pointerWords uint16) (MutStructStorage, error) {
	ps, err := s.pointerSlot(word)
	if err != nil {
		return MutStructStorage{}, err
	}

	return DerefStructPointer(ps, dataWords, pointerWords)
}

// ListFieldBuilder dereferences pointer field word as a non-composite list,
// allocating count elements when the field is null.
func (s MutStructStorage) ListFieldBuilder(word uint16, element format.ElementType, count uint32) (MutListStorage, error) {
	ps, err := s.pointerSlot(word)
	if err != nil {
		return MutListStorage{}, err
	}

	return GetOrInitList(ps, element, count)
}

// CompositeListFieldBuilder dereferences pointer field word as a composite
// list, allocating count elements of the given shape when the field is null.
func (s MutStructStorage) CompositeListFieldBuilder(word uint16, dataWords, pointerWords uint16, count uint32) (MutListStorage, error) {
	ps, err := s.pointerSlot(word)
	if err != nil {
		return MutListStorage{}, err
	}

	return GetOrInitCompositeList(ps, dataWords, pointerWords, count)
}

// SetTextField allocates a fresh byte list holding v plus its NUL
// terminator and points field word at it.
func (s MutStructStorage) SetTextField(word uint16, v string) error {
	ps, err := s.pointerSlot(word)
	if err != nil {
		return err
	}
	ls, err := allocText(ps.Builder(), v)
	if err != nil {
		return err
	}

	return InitListPointer(ps, ls.ReadOnly())
}

// SetDataField allocates a fresh byte list holding v and points field word
// at it.
func (s MutStructStorage) SetDataField(word uint16, v []byte) error {
	ps, err := s.pointerSlot(word)
	if err != nil {
		return err
	}
	ls, err := allocData(ps.Builder(), v)
	if err != nil {
		return err
	}

	return InitListPointer(ps, ls.ReadOnly())
}

// ClearPointerField nulls pointer field word, restoring default-on-read
// semantics. The previously referenced storage is not reclaimed.
func (s MutStructStorage) ClearPointerField(word uint16) error {
	ps, err := s.pointerSlot(word)
	if err != nil {
		return err
	}

	return ps.SetUint64(0, 0)
}

// TextField and DataField mirror the reader accessors for code holding a
// builder.

func (s MutStructStorage) TextField(word uint16, def string) (string, error) {
	ro := s.ReadOnly()
	return ro.TextField(word, def)
}

func (s MutStructStorage) DataField(word uint16, def []byte) ([]byte, error) {
	ro := s.ReadOnly()
	return ro.DataField(word, def)
}

func allocText(b *mesg.MessageBuilder, v string) (MutListStorage, error) {
	ls, err := AllocList(b, format.ElementByte1, uint32(len(v))+1)
	if err != nil {
		return MutListStorage{}, err
	}
	if err := ls.Slice.SetBytes(0, []byte(v)); err != nil {
		return MutListStorage{}, err
	}
	// Terminator byte is already zero from allocation.

	return ls, nil
}

func allocData(b *mesg.MessageBuilder, v []byte) (MutListStorage, error) {
	ls, err := AllocList(b, format.ElementByte1, uint32(len(v)))
	if err != nil {
		return MutListStorage{}, err
	}
	if err := ls.Slice.SetBytes(0, v); err != nil {
		return MutListStorage{}, err
	}

	return ls, nil
}
